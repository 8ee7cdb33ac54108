// Package schema describes tool input schemas and validates arguments
// against them.
//
// Schemas are built with small constructors and rendered as value.Value for
// the tools/list response:
//
//	s := schema.Object(map[string]*schema.Schema{
//	    "file_path": schema.String("Path to the Swift file"),
//	    "line":      schema.Integer("Line number (0-based)"),
//	}, "file_path", "line")
//
//	rendered := s.Value()
//
// # Validation
//
// Validate checks a decoded argument object and reports every problem at
// once as ValidationErrors:
//
//	if err := s.Validate(args); err != nil {
//	    var verrs schema.ValidationErrors
//	    errors.As(err, &verrs)
//	}
//
// Checks cover required members, types and string enums. Integer fields
// accept only integer literals; a number written with a decimal point is
// rejected. Null satisfies no required member and is otherwise ignored.
package schema
