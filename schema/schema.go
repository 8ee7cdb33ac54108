package schema

import (
	"github.com/ClassicalDude/swift-mcp-server/value"
)

// Schema represents a JSON Schema.
type Schema struct {
	Type        string
	Properties  map[string]*Schema
	Required    []string
	Description string
	Default     value.Value
	Enum        []string
	Minimum     *float64
	Maximum     *float64
	Items       *Schema
}

// Object returns an object schema with the given properties and required members.
func Object(properties map[string]*Schema, required ...string) *Schema {
	if properties == nil {
		properties = map[string]*Schema{}
	}
	return &Schema{Type: typeObject, Properties: properties, Required: required}
}

// String returns a string schema.
func String(description string) *Schema {
	return &Schema{Type: typeString, Description: description}
}

// Integer returns an integer schema.
func Integer(description string) *Schema {
	return &Schema{Type: typeInteger, Description: description}
}

// Enum returns a string schema restricted to values.
func Enum(description string, values ...string) *Schema {
	return &Schema{Type: typeString, Description: description, Enum: values}
}

// Value renders the schema. Object schemas always carry properties and
// required, even when empty.
func (s *Schema) Value() value.Value {
	obj := map[string]value.Value{}
	if s.Type != "" {
		obj["type"] = value.String(s.Type)
	}
	if s.Description != "" {
		obj["description"] = value.String(s.Description)
	}
	if !s.Default.IsNull() {
		obj["default"] = s.Default
	}
	if len(s.Enum) > 0 {
		obj["enum"] = value.Strings(s.Enum...)
	}
	if s.Minimum != nil {
		obj["minimum"] = value.Float(*s.Minimum)
	}
	if s.Maximum != nil {
		obj["maximum"] = value.Float(*s.Maximum)
	}
	if s.Items != nil {
		obj["items"] = s.Items.Value()
	}

	if s.Type == typeObject || len(s.Properties) > 0 {
		props := make(map[string]value.Value, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = prop.Value()
		}
		obj["properties"] = value.Object(props)
	}
	if s.Type == typeObject || len(s.Required) > 0 {
		obj["required"] = value.Strings(s.Required...)
	}
	return value.Object(obj)
}
