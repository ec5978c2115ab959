// Package jsonschema projects schema nodes onto JSON Schema (draft 2020-12).
package jsonschema

import gojson "github.com/goccy/go-json"

// Draft is the dialect declared by FromNode at the root.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// Schema is the JSON Schema representation used for export. Only the
// keywords a schema node can produce are modeled.
type Schema struct {
	// Core
	Dialect     string             `json:"$schema,omitempty"`
	Ref         string             `json:"$ref,omitempty"`
	Defs        map[string]*Schema `json:"$defs,omitempty"`
	Type        any                `json:"type,omitempty"` // string or []string
	Format      string             `json:"format,omitempty"`
	Description string             `json:"description,omitempty"`
	Default     any                `json:"default,omitempty"`
	Const       any                `json:"const,omitempty"`
	Enum        []any              `json:"enum,omitempty"`
	ReadOnly    bool               `json:"readOnly,omitempty"`

	// String
	MinLength       *int   `json:"minLength,omitempty"`
	MaxLength       *int   `json:"maxLength,omitempty"`
	Pattern         string `json:"pattern,omitempty"`
	ContentEncoding string `json:"contentEncoding,omitempty"`

	// Number
	Minimum          *float64 `json:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`
	MultipleOf       *float64 `json:"multipleOf,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"` // bool or *Schema
	PropertyNames        *Schema            `json:"propertyNames,omitempty"`

	// Array
	PrefixItems []*Schema `json:"prefixItems,omitempty"`
	Items       any       `json:"items,omitempty"` // *Schema or false
	MinItems    *int      `json:"minItems,omitempty"`
	MaxItems    *int      `json:"maxItems,omitempty"`
	UniqueItems bool      `json:"uniqueItems,omitempty"`

	// Combinators
	AnyOf []*Schema `json:"anyOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`
	AllOf []*Schema `json:"allOf,omitempty"`
	Not   *Schema   `json:"not,omitempty"`
}

// Marshal renders s as indented JSON.
func (s *Schema) Marshal() ([]byte, error) {
	return gojson.MarshalIndent(s, "", "  ")
}
