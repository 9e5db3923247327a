package compiler

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// File is one route definition document.
type File struct {
	Groups map[string]GroupDef `mapstructure:"groups"`
}

// GroupDef declares a group.
type GroupDef struct {
	Overrides map[string]bool `mapstructure:"overrides"`
	Global    []SliceDef      `mapstructure:"global"`
	Routes    []RouteDef      `mapstructure:"routes"`
}

// RouteDef declares a route.
type RouteDef struct {
	Name       string            `mapstructure:"name"`
	Method     string            `mapstructure:"method"`
	Aliases    []string          `mapstructure:"aliases"`
	Permission string            `mapstructure:"permission"`
	Template   string            `mapstructure:"template"`
	Inputs     map[string]any    `mapstructure:"inputs"`
	Overrides  map[string]bool   `mapstructure:"overrides"`
	OutputMap  map[string]string `mapstructure:"output_map"`
	Slices     []SliceDef        `mapstructure:"slices"`
}

// SliceDef declares a slice. Binding lists take either a key name or a
// single-entry map from source to target.
type SliceDef struct {
	Controller  string            `mapstructure:"controller"`
	Name        string            `mapstructure:"name"`
	Static      map[string]any    `mapstructure:"static"`
	InputMap    []any             `mapstructure:"input_map"`
	StoreInput  map[string][]any  `mapstructure:"store_input"`
	OutputMap   map[string]string `mapstructure:"output_map"`
	StoreOutput map[string][]any  `mapstructure:"store_output"`
	Exit        []ExitDef         `mapstructure:"exit"`
}

// ExitDef declares an exit state. Code is a number or a reserved code name.
type ExitDef struct {
	Code   any    `mapstructure:"code"`
	Mode   string `mapstructure:"mode"`
	Target string `mapstructure:"target"`
}

// Parse decodes a definition document.
func Parse(raw []byte) (*File, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse routes: %w", err)
	}

	var f File
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &f,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to decode routes: %w", err)
	}
	return &f, nil
}

// LoadFiles reads and merges definition files. A group declared twice is an error.
func LoadFiles(paths ...string) (*File, error) {
	merged := &File{Groups: make(map[string]GroupDef)}
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read routes: %w", err)
		}
		f, err := Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		for name, g := range f.Groups {
			if _, dup := merged.Groups[name]; dup {
				return nil, fmt.Errorf("%s: group %q already declared", p, name)
			}
			merged.Groups[name] = g
		}
	}
	return merged, nil
}
