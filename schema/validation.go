package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ClassicalDude/swift-mcp-server/value"
)

// Schema type constants.
const (
	typeObject  = "object"
	typeArray   = "array"
	typeString  = "string"
	typeInteger = "integer"
	typeNumber  = "number"
	typeBoolean = "boolean"
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Path    string // path to the invalid field (e.g., "options.name")
	Message string // Human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range e {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Value renders the errors as an array of {path, message} objects.
func (e ValidationErrors) Value() value.Value {
	items := make([]value.Value, 0, len(e))
	for _, err := range e {
		items = append(items, value.Object(map[string]value.Value{
			"path":    value.String(err.Path),
			"message": value.String(err.Message),
		}))
	}
	return value.Array(items...)
}

// Validate validates a value against the schema.
// Returns nil if valid, or ValidationErrors if invalid.
func (s *Schema) Validate(v value.Value) error {
	var errs ValidationErrors
	s.validate("", v, &errs)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *Schema) validate(path string, v value.Value, errs *ValidationErrors) {
	if v.IsNull() {
		return
	}

	switch s.Type {
	case typeObject:
		s.validateObject(path, v, errs)
	case typeArray:
		s.validateArray(path, v, errs)
	case typeString:
		s.validateString(path, v, errs)
	case typeInteger:
		s.validateInteger(path, v, errs)
	case typeNumber:
		s.validateNumber(path, v, errs)
	case typeBoolean:
		s.validateBoolean(path, v, errs)
	}
}

func (s *Schema) validateObject(path string, v value.Value, errs *ValidationErrors) {
	if v.Kind() != value.KindObject {
		*errs = append(*errs, typeMismatch(path, typeObject, v))
		return
	}

	for _, req := range s.Required {
		if member, exists := v.Get(req); !exists || member.IsNull() {
			*errs = append(*errs, &ValidationError{
				Path:    joinPath(path, req),
				Message: "required field is missing",
			})
		}
	}

	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if member, exists := v.Get(name); exists {
			s.Properties[name].validate(joinPath(path, name), member, errs)
		}
	}
}

func (s *Schema) validateArray(path string, v value.Value, errs *ValidationErrors) {
	items, ok := v.AsArray()
	if !ok {
		*errs = append(*errs, typeMismatch(path, typeArray, v))
		return
	}

	if s.Items == nil {
		return
	}

	for i, item := range items {
		s.Items.validate(fmt.Sprintf("%s[%d]", path, i), item, errs)
	}
}

func (s *Schema) validateString(path string, v value.Value, errs *ValidationErrors) {
	str, ok := v.AsString()
	if !ok {
		*errs = append(*errs, typeMismatch(path, typeString, v))
		return
	}

	if len(s.Enum) == 0 {
		return
	}
	for _, e := range s.Enum {
		if e == str {
			return
		}
	}
	*errs = append(*errs, &ValidationError{
		Path:    path,
		Message: fmt.Sprintf("value must be one of: %s", strings.Join(s.Enum, ", ")),
	})
}

func (s *Schema) validateInteger(path string, v value.Value, errs *ValidationErrors) {
	n, ok := v.AsInt()
	if !ok {
		if v.Kind() == value.KindFloat {
			*errs = append(*errs, &ValidationError{
				Path:    path,
				Message: "expected integer, got decimal number",
			})
			return
		}
		*errs = append(*errs, typeMismatch(path, typeInteger, v))
		return
	}

	s.validateNumericConstraints(path, float64(n), errs)
}

func (s *Schema) validateNumber(path string, v value.Value, errs *ValidationErrors) {
	num, ok := v.AsFloat()
	if !ok {
		*errs = append(*errs, typeMismatch(path, typeNumber, v))
		return
	}

	s.validateNumericConstraints(path, num, errs)
}

func (s *Schema) validateNumericConstraints(path string, num float64, errs *ValidationErrors) {
	if s.Minimum != nil && num < *s.Minimum {
		*errs = append(*errs, &ValidationError{
			Path:    path,
			Message: fmt.Sprintf("value %v is less than minimum %v", num, *s.Minimum),
		})
	}

	if s.Maximum != nil && num > *s.Maximum {
		*errs = append(*errs, &ValidationError{
			Path:    path,
			Message: fmt.Sprintf("value %v is greater than maximum %v", num, *s.Maximum),
		})
	}
}

func (s *Schema) validateBoolean(path string, v value.Value, errs *ValidationErrors) {
	if _, ok := v.AsBool(); !ok {
		*errs = append(*errs, typeMismatch(path, typeBoolean, v))
	}
}

func typeMismatch(path, want string, got value.Value) *ValidationError {
	return &ValidationError{
		Path:    path,
		Message: fmt.Sprintf("expected %s, got %s", want, got.Kind()),
	}
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}
