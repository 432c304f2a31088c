// Package schema carries tool and output schemas as a small, dependency-free
// descriptor: a union of object/array/string/number/boolean/enum/nullish
// kinds with refinements. The same descriptor both validates Go values and
// renders a provider-understandable JSON Schema shape, so a tool's input
// constraints and its advertised shape never drift apart.
package schema

import (
	"fmt"
	"regexp"
	"sort"
)

// Kind identifies the shape a Schema describes.
type Kind string

const (
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindEnum    Kind = "enum"
	KindNullish Kind = "nullish"
	KindAny     Kind = "any"
)

// Schema is a provider-independent descriptor for a JSON value shape. Exactly
// the fields relevant to Kind are consulted; others are ignored.
type Schema struct {
	Kind        Kind
	Description string

	// Object
	Properties map[string]*Schema
	Required   []string

	// Array
	Items *Schema

	// String
	Pattern   string
	MinLength *int
	MaxLength *int

	// Number/Integer
	Minimum *float64
	Maximum *float64

	// Enum
	Values []string

	// Nullish wraps an inner schema that may also be nil/absent.
	Inner *Schema
}

// Object constructs an object schema with the given properties. Keys listed
// in required must be present in properties.
func Object(properties map[string]*Schema, required ...string) *Schema {
	return &Schema{Kind: KindObject, Properties: properties, Required: required}
}

// String constructs a string schema.
func String() *Schema { return &Schema{Kind: KindString} }

// Integer constructs an integer schema.
func Integer() *Schema { return &Schema{Kind: KindInteger} }

// Number constructs a number schema.
func Number() *Schema { return &Schema{Kind: KindNumber} }

// Boolean constructs a boolean schema.
func Boolean() *Schema { return &Schema{Kind: KindBoolean} }

// Array constructs an array schema whose elements match items.
func Array(items *Schema) *Schema { return &Schema{Kind: KindArray, Items: items} }

// Enum constructs a string enum schema.
func Enum(values ...string) *Schema { return &Schema{Kind: KindEnum, Values: values} }

// Nullish wraps inner so that a nil or absent value is also valid.
func Nullish(inner *Schema) *Schema { return &Schema{Kind: KindNullish, Inner: inner} }

// Any matches any JSON value without constraint.
func Any() *Schema { return &Schema{Kind: KindAny} }

// WithDescription returns a copy of s with Description set, for fluent construction.
func (s *Schema) WithDescription(desc string) *Schema {
	cp := *s
	cp.Description = desc
	return &cp
}

// ValidationError describes a single schema-validation failure at a JSON pointer path.
type ValidationError struct {
	Path       string
	Constraint string
	Message    string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate checks value (typically decoded from JSON into map[string]any,
// []any, string, float64, bool, or nil) against s, returning every violation
// found. A nil slice means value is valid.
func (s *Schema) Validate(value any) []*ValidationError {
	return s.validateAt("$", value)
}

func (s *Schema) validateAt(path string, value any) []*ValidationError {
	if s == nil {
		return nil
	}
	switch s.Kind {
	case KindAny:
		return nil
	case KindNullish:
		if value == nil {
			return nil
		}
		return s.Inner.validateAt(path, value)
	case KindObject:
		return s.validateObject(path, value)
	case KindArray:
		return s.validateArray(path, value)
	case KindString:
		return s.validateString(path, value)
	case KindEnum:
		return s.validateEnum(path, value)
	case KindNumber, KindInteger:
		return s.validateNumber(path, value)
	case KindBoolean:
		if _, ok := value.(bool); !ok {
			return []*ValidationError{{Path: path, Constraint: "invalid_field_type", Message: "expected boolean"}}
		}
		return nil
	default:
		return []*ValidationError{{Path: path, Constraint: "invalid_field_type", Message: "unknown schema kind"}}
	}
}

func (s *Schema) validateObject(path string, value any) []*ValidationError {
	obj, ok := value.(map[string]any)
	if !ok {
		return []*ValidationError{{Path: path, Constraint: "invalid_field_type", Message: "expected object"}}
	}
	var errs []*ValidationError
	for _, name := range s.Required {
		if _, present := obj[name]; !present {
			errs = append(errs, &ValidationError{
				Path: path + "." + name, Constraint: "missing_field",
				Message: fmt.Sprintf("field %q is required", name),
			})
		}
	}
	// Validate known properties in a deterministic order for reproducible error ordering.
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v, present := obj[name]
		if !present {
			continue
		}
		errs = append(errs, s.Properties[name].validateAt(path+"."+name, v)...)
	}
	return errs
}

func (s *Schema) validateArray(path string, value any) []*ValidationError {
	arr, ok := value.([]any)
	if !ok {
		return []*ValidationError{{Path: path, Constraint: "invalid_field_type", Message: "expected array"}}
	}
	var errs []*ValidationError
	for i, v := range arr {
		errs = append(errs, s.Items.validateAt(fmt.Sprintf("%s[%d]", path, i), v)...)
	}
	return errs
}

func (s *Schema) validateString(path string, value any) []*ValidationError {
	str, ok := value.(string)
	if !ok {
		return []*ValidationError{{Path: path, Constraint: "invalid_field_type", Message: "expected string"}}
	}
	var errs []*ValidationError
	if s.MinLength != nil && len(str) < *s.MinLength {
		errs = append(errs, &ValidationError{Path: path, Constraint: "invalid_length", Message: "string is too short"})
	}
	if s.MaxLength != nil && len(str) > *s.MaxLength {
		errs = append(errs, &ValidationError{Path: path, Constraint: "invalid_length", Message: "string is too long"})
	}
	if s.Pattern != "" {
		re, err := regexp.Compile(s.Pattern)
		if err == nil && !re.MatchString(str) {
			errs = append(errs, &ValidationError{Path: path, Constraint: "invalid_pattern", Message: "string does not match pattern " + s.Pattern})
		}
	}
	return errs
}

func (s *Schema) validateEnum(path string, value any) []*ValidationError {
	str, ok := value.(string)
	if !ok {
		return []*ValidationError{{Path: path, Constraint: "invalid_field_type", Message: "expected string"}}
	}
	for _, v := range s.Values {
		if v == str {
			return nil
		}
	}
	return []*ValidationError{{Path: path, Constraint: "invalid_enum_value", Message: fmt.Sprintf("value %q is not one of %v", str, s.Values)}}
}

func (s *Schema) validateNumber(path string, value any) []*ValidationError {
	num, ok := value.(float64)
	if !ok {
		if i, ok2 := value.(int); ok2 {
			num = float64(i)
		} else {
			return []*ValidationError{{Path: path, Constraint: "invalid_field_type", Message: "expected number"}}
		}
	}
	var errs []*ValidationError
	if s.Kind == KindInteger && num != float64(int64(num)) {
		errs = append(errs, &ValidationError{Path: path, Constraint: "invalid_field_type", Message: "expected integer"})
	}
	if s.Minimum != nil && num < *s.Minimum {
		errs = append(errs, &ValidationError{Path: path, Constraint: "invalid_range", Message: "value is below minimum"})
	}
	if s.Maximum != nil && num > *s.Maximum {
		errs = append(errs, &ValidationError{Path: path, Constraint: "invalid_range", Message: "value is above maximum"})
	}
	return errs
}

// RenderJSON converts s into a plain map/slice tree suitable for
// json.Marshal into a JSON Schema document understood by model providers.
func (s *Schema) RenderJSON() map[string]any {
	if s == nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if s.Description != "" {
		out["description"] = s.Description
	}
	switch s.Kind {
	case KindNullish:
		inner := s.Inner.RenderJSON()
		inner["nullable"] = true
		return inner
	case KindObject:
		out["type"] = "object"
		props := map[string]any{}
		for name, prop := range s.Properties {
			props[name] = prop.RenderJSON()
		}
		out["properties"] = props
		if len(s.Required) > 0 {
			out["required"] = append([]string{}, s.Required...)
		}
	case KindArray:
		out["type"] = "array"
		out["items"] = s.Items.RenderJSON()
	case KindString:
		out["type"] = "string"
		if s.Pattern != "" {
			out["pattern"] = s.Pattern
		}
		if s.MinLength != nil {
			out["minLength"] = *s.MinLength
		}
		if s.MaxLength != nil {
			out["maxLength"] = *s.MaxLength
		}
	case KindNumber:
		out["type"] = "number"
		renderBounds(out, s)
	case KindInteger:
		out["type"] = "integer"
		renderBounds(out, s)
	case KindBoolean:
		out["type"] = "boolean"
	case KindEnum:
		out["type"] = "string"
		out["enum"] = append([]string{}, s.Values...)
	case KindAny:
		// No type constraint: any JSON value is accepted.
	}
	return out
}

func renderBounds(out map[string]any, s *Schema) {
	if s.Minimum != nil {
		out["minimum"] = *s.Minimum
	}
	if s.Maximum != nil {
		out["maximum"] = *s.Maximum
	}
}
