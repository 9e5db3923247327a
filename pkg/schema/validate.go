package schema

import "sort"

// Field is one entry of a Schema.
type Field struct {
	Type     Type
	Optional bool
}

// Schema maps field names to their expected types.
type Schema map[string]Field

// Required builds a schema where every field is required.
func Required(types map[string]Type) Schema {
	s := make(Schema, len(types))
	for k, t := range types {
		s[k] = Field{Type: t}
	}
	return s
}

// Validate checks that data conforms to the schema. All failures are reported
// in one *AggregateError.
func Validate(s Schema, data map[string]any) error {
	_, err := check(s, data, false)
	return err
}

// Coerce converts the schema fields of data to their types and returns them.
// Fields absent from the schema are not returned. Optional fields that are
// missing are skipped.
func Coerce(s Schema, data map[string]any) (map[string]any, error) {
	return check(s, data, true)
}

func check(s Schema, data map[string]any, coerce bool) (map[string]any, error) {
	if len(s) == 0 {
		return map[string]any{}, nil
	}

	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(s))
	var errs []error
	for _, key := range keys {
		field := s[key]
		value, exists := data[key]
		if !exists || value == nil {
			if !field.Optional {
				errs = append(errs, &ValidationError{Key: key, Reason: "required"})
			}
			continue
		}

		if !coerce {
			if err := field.Type.Validate(value); err != nil {
				errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
			}
			continue
		}
		v, err := field.Type.Coerce(value)
		if err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
			continue
		}
		out[key] = v
	}

	if len(errs) > 0 {
		return nil, &AggregateError{Errors: errs}
	}
	return out, nil
}
