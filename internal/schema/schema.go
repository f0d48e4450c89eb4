// Package schema reads the declarative ORM schema file (model and enum
// blocks) and derives a structural JSON schema for every model.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// RefPrefix is where model and enum components live in the generated document.
const RefPrefix = "#/components/schemas/"

// Model is the structural description of one model block. It is not modified
// after parsing.
type Model struct {
	Name       string
	Properties map[string]map[string]any
	Required   []string
}

// Enum is a named set of string values.
type Enum struct {
	Name   string
	Values []string
}

// Set holds everything parsed from one schema file.
type Set struct {
	Models map[string]*Model
	Enums  map[string]*Enum
	// Warnings lists lines that were skipped without failing the parse.
	Warnings []*ParseError
}

// Empty reports whether the set has no components to emit.
func (s *Set) Empty() bool {
	return s == nil || (len(s.Models) == 0 && len(s.Enums) == 0)
}

// ModelNames returns model names sorted for deterministic iteration.
func (s *Set) ModelNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Models))
	for n := range s.Models {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Components renders the set as an OpenAPI components.schemas object.
func (s *Set) Components() map[string]any {
	if s.Empty() {
		return nil
	}
	out := make(map[string]any, len(s.Models)+len(s.Enums))
	for name, m := range s.Models {
		out[name] = m.JSONSchema()
	}
	for name, e := range s.Enums {
		if _, clash := out[name]; clash {
			continue
		}
		out[name] = e.JSONSchema()
	}
	return out
}

// JSONSchema renders the model as an object schema.
func (m *Model) JSONSchema() map[string]any {
	props := make(map[string]any, len(m.Properties))
	for name, p := range m.Properties {
		props[name] = p
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(m.Required) > 0 {
		schema["required"] = append([]string(nil), m.Required...)
	}
	return schema
}

// JSONSchema renders the enum as a string schema.
func (e *Enum) JSONSchema() map[string]any {
	values := make([]any, 0, len(e.Values))
	for _, v := range e.Values {
		values = append(values, v)
	}
	return map[string]any{"type": "string", "enum": values}
}

// Ref returns a $ref object pointing at the named component.
func Ref(name string) map[string]any {
	return map[string]any{"$ref": RefPrefix + name}
}

// ParseError reports a structural problem in the schema file.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("schema line %d: %s", e.Line, e.Message)
}

// scalarTypes maps the schema language's scalar types to JSON schema fragments.
var scalarTypes = map[string]func() map[string]any{
	"String":   func() map[string]any { return map[string]any{"type": "string"} },
	"Int":      func() map[string]any { return map[string]any{"type": "integer"} },
	"BigInt":   func() map[string]any { return map[string]any{"type": "integer", "format": "int64"} },
	"Float":    func() map[string]any { return map[string]any{"type": "number"} },
	"Decimal":  func() map[string]any { return map[string]any{"type": "string", "format": "decimal"} },
	"Boolean":  func() map[string]any { return map[string]any{"type": "boolean"} },
	"DateTime": func() map[string]any { return map[string]any{"type": "string", "format": "date-time"} },
	"Json":     func() map[string]any { return map[string]any{"type": "object"} },
	"Bytes":    func() map[string]any { return map[string]any{"type": "string", "format": "byte"} },
}

// fieldSchema maps a base type to a JSON schema fragment. Other identifiers
// are relations or enums and become references. Unsupported("...") and
// anything else that is not a plain identifier become the empty schema.
func fieldSchema(base string, array bool) map[string]any {
	var item map[string]any
	if mk, ok := scalarTypes[base]; ok {
		item = mk()
	} else if identRe.MatchString(base) {
		item = Ref(base)
	} else {
		item = map[string]any{}
	}
	if array {
		return map[string]any{"type": "array", "items": item}
	}
	return item
}

// isRequired applies the required-field rule: not optional and no identity
// or default attribute.
func isRequired(optional bool, attrs string) bool {
	if optional {
		return false
	}
	return !strings.Contains(attrs, "@id") && !strings.Contains(attrs, "@default")
}
