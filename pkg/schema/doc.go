// Package schema validates and converts loosely typed input maps.
//
// Request parameters arrive as strings; a Schema names the type each field
// should have and Coerce converts them:
//
//	s, err := schema.ParseTypeMap(map[string]string{
//	    "page": "int",
//	    "tags": "[string]",
//	    "q":    "string?",
//	})
//	typed, err := schema.Coerce(s, params)
//
// Validate checks values that are already typed, such as decoded JSON.
package schema
