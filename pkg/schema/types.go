package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Type validates a value and converts request strings into it.
type Type interface {
	// Name returns the type name as written in route files (e.g. "int", "[string]").
	Name() string
	// Validate checks that value already has this type.
	Validate(value any) error
	// Coerce converts value to this type. Strings are parsed; values of the
	// right type are returned unchanged.
	Coerce(value any) (any, error)
}

type stringType struct{}

func (stringType) Name() string { return "string" }

func (stringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

func (t stringType) Coerce(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case int, int64, float64, bool:
		return fmt.Sprint(v), nil
	}
	return nil, t.Validate(value)
}

type intType struct{}

func (intType) Name() string { return "int" }

func (intType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return nil
	case float64:
		// JSON numbers decode as float64.
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	}
	return fmt.Errorf("expected int, got %T", value)
}

func (t intType) Coerce(value any) (any, error) {
	switch v := value.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected int, got %q", v)
		}
		return n, nil
	case float64:
		if err := t.Validate(v); err != nil {
			return nil, err
		}
		return int64(v), nil
	}
	if err := t.Validate(value); err != nil {
		return nil, err
	}
	return reflect.ValueOf(value).Int(), nil
}

type floatType struct{}

func (floatType) Name() string { return "float" }

func (floatType) Validate(value any) error {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64:
		return nil
	}
	return fmt.Errorf("expected float, got %T", value)
}

func (t floatType) Coerce(value any) (any, error) {
	if s, ok := value.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("expected float, got %q", s)
		}
		return f, nil
	}
	if err := t.Validate(value); err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(value)
	if rv.CanFloat() {
		return rv.Float(), nil
	}
	return float64(rv.Int()), nil
}

type boolType struct{}

func (boolType) Name() string { return "bool" }

func (boolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

func (t boolType) Coerce(value any) (any, error) {
	if s, ok := value.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "1", "true", "on", "yes":
			return true, nil
		case "", "0", "false", "off", "no":
			return false, nil
		}
		return nil, fmt.Errorf("expected bool, got %q", s)
	}
	if err := t.Validate(value); err != nil {
		return nil, err
	}
	return value, nil
}

type sliceType struct {
	elem Type
}

func (t sliceType) Name() string {
	return "[" + t.elem.Name() + "]"
}

func (t sliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// Coerce accepts a slice or a single value, which becomes a one-element slice.
func (t sliceType) Coerce(value any) (any, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		v, err := t.elem.Coerce(value)
		if err != nil {
			return nil, err
		}
		return []any{v}, nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		v, err := t.elem.Coerce(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

type customType struct {
	name     string
	validate func(any) error
}

func (t customType) Name() string             { return t.name }
func (t customType) Validate(value any) error { return t.validate(value) }

func (t customType) Coerce(value any) (any, error) {
	if err := t.validate(value); err != nil {
		return nil, err
	}
	return value, nil
}

// String creates a string type.
func String() Type { return stringType{} }

// Int creates an integer type. Coerced values are int64.
func Int() Type { return intType{} }

// Float creates a float type. Coerced values are float64.
func Float() Type { return floatType{} }

// Bool creates a boolean type.
func Bool() Type { return boolType{} }

// Slice creates a slice type for elements of the given type.
func Slice(elem Type) Type { return sliceType{elem: elem} }

// Custom creates a type checked by a user-defined function. Coerce does not convert.
func Custom(name string, validate func(any) error) Type {
	return customType{name: name, validate: validate}
}

// ParseType converts a type name to a Type: "string", "int", "float", "bool",
// or any of them in brackets for a slice ("[int]"). A trailing "?" marks the
// field optional and is handled by ParseTypeMap.
func ParseType(name string) (Type, error) {
	if len(name) > 2 && name[0] == '[' && name[len(name)-1] == ']' {
		elem, err := ParseType(name[1 : len(name)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elem), nil
	}

	switch name {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	}
	return nil, fmt.Errorf("unsupported type: %s", name)
}

// ParseTypeMap builds a Schema from field names to type names, such as
// {"page": "int", "tags": "[string]", "q": "string?"}.
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema, len(typeMap))
	for key, name := range typeMap {
		optional := strings.HasSuffix(name, "?")
		t, err := ParseType(strings.TrimSuffix(name, "?"))
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = Field{Type: t, Optional: optional}
	}
	return result, nil
}
