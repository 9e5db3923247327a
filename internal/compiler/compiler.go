// Package compiler turns declarative route definitions into group factories
// backed by the controller registry.
package compiler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/leynos/pkg/controller"
	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/registry"
	"github.com/aretw0/leynos/pkg/route"
)

var exitCodes = map[string]int{
	"success":          domain.ExitSuccess,
	"failure":          domain.ExitFailure,
	"idle_success":     domain.ExitIdleSuccess,
	"input_failure":    domain.ExitInputFailure,
	"database_failure": domain.ExitDatabaseFailure,
	"io_failure":       domain.ExitIOFailure,
	"memory_failure":   domain.ExitMemoryFailure,
}

// Compile checks every definition and returns the routing map. Each factory
// builds a fresh group from the checked definition.
func Compile(f *File, reg *registry.Registry) (map[string]route.GroupFactory, error) {
	groups := make(map[string]route.GroupFactory, len(f.Groups))

	names := make([]string, 0, len(f.Groups))
	for name := range f.Groups {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := f.Groups[name]
		// Build once up front so definition errors surface at load time.
		if _, err := buildGroup(def, reg); err != nil {
			return nil, fmt.Errorf("group %q: %w", name, err)
		}
		groups[name] = func() *route.Group {
			g, _ := buildGroup(def, reg)
			return g
		}
	}
	return groups, nil
}

func buildGroup(def GroupDef, reg *registry.Registry) (*route.Group, error) {
	g := route.NewGroup()

	overrides, err := parseOverrides(def.Overrides)
	if err != nil {
		return nil, err
	}
	for opt, v := range overrides {
		g.Override(opt, v)
	}

	for i, sd := range def.Global {
		s, err := buildSlice(sd, reg)
		if err != nil {
			return nil, fmt.Errorf("global slice %d: %w", i, err)
		}
		g.GlobalSlices(s)
	}

	for _, rd := range def.Routes {
		r, err := buildRoute(rd, reg)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", rd.Name, err)
		}
		g.Add(r)
	}
	return g, nil
}

func buildRoute(def RouteDef, reg *registry.Registry) (*route.Route, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	slices := make([]*route.Slice, 0, len(def.Slices))
	for i, sd := range def.Slices {
		s, err := buildSlice(sd, reg)
		if err != nil {
			return nil, fmt.Errorf("slice %d: %w", i, err)
		}
		slices = append(slices, s)
	}

	r := route.New(def.Name, slices...)
	if def.Method != "" {
		r.Method(strings.ToUpper(def.Method))
	}
	if len(def.Aliases) > 0 {
		r.Alias(def.Aliases...)
	}
	if def.Permission != "" {
		r.Permission(def.Permission)
	}
	if def.Template != "" {
		r.Template(def.Template)
	}
	if def.Inputs != nil {
		r.Inputs(def.Inputs)
	}
	if def.OutputMap != nil {
		r.OutputMap(def.OutputMap)
	}

	overrides, err := parseOverrides(def.Overrides)
	if err != nil {
		return nil, err
	}
	for opt, v := range overrides {
		r.Override(opt, v)
	}
	return r, nil
}

func buildSlice(def SliceDef, reg *registry.Registry) (*route.Slice, error) {
	var factory controller.Factory
	if def.Controller != "" {
		f, err := reg.Lookup(def.Controller)
		if err != nil {
			return nil, err
		}
		factory = f
	}

	s := route.NewSlice(factory)
	if def.Name != "" {
		s.Named(def.Name)
	}
	if def.Static != nil {
		s.Statics(def.Static)
	}

	if def.InputMap != nil {
		bindings, err := parseBindings(def.InputMap)
		if err != nil {
			return nil, fmt.Errorf("input_map: %w", err)
		}
		s.InputMap(bindings...)
	}
	for store, raw := range def.StoreInput {
		kind, err := domain.ParseStoreKind(store)
		if err != nil {
			return nil, fmt.Errorf("store_input: %w", err)
		}
		bindings, err := parseBindings(raw)
		if err != nil {
			return nil, fmt.Errorf("store_input.%s: %w", store, err)
		}
		s.StoreInput(kind, bindings...)
	}

	if def.OutputMap != nil {
		s.OutputMap(def.OutputMap)
	}
	for store, raw := range def.StoreOutput {
		kind, err := domain.ParseStoreKind(store)
		if err != nil {
			return nil, fmt.Errorf("store_output: %w", err)
		}
		bindings, err := parseBindings(raw)
		if err != nil {
			return nil, fmt.Errorf("store_output.%s: %w", store, err)
		}
		s.StoreOutput(kind, bindings...)
	}

	for i, ed := range def.Exit {
		st, err := parseExit(ed)
		if err != nil {
			return nil, fmt.Errorf("exit %d: %w", i, err)
		}
		s.Exit(st)
	}
	return s, nil
}

func parseBindings(raw []any) ([]route.Binding, error) {
	out := make([]route.Binding, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			out = append(out, route.Key(v))
		case map[string]any:
			if len(v) != 1 {
				return nil, fmt.Errorf("binding %v must have exactly one entry", v)
			}
			for src, dst := range v {
				target, ok := dst.(string)
				if !ok {
					return nil, fmt.Errorf("binding target for %q must be a string", src)
				}
				out = append(out, route.Bind(src, target))
			}
		default:
			return nil, fmt.Errorf("binding %v has unsupported type %T", item, item)
		}
	}
	return out, nil
}

func parseExit(def ExitDef) (domain.ExitState, error) {
	code, err := parseCode(def.Code)
	if err != nil {
		return domain.ExitState{}, err
	}
	mode, err := domain.ParseExitMode(def.Mode)
	if err != nil {
		return domain.ExitState{}, err
	}
	if mode != domain.ModeRender && def.Target == "" {
		return domain.ExitState{}, fmt.Errorf("%s needs a target", mode)
	}
	return domain.NewExitState(code, mode, def.Target), nil
}

func parseCode(raw any) (int, error) {
	switch v := raw.(type) {
	case nil:
		return domain.ExitSuccess, nil
	case int:
		return v, nil
	case string:
		if code, ok := exitCodes[strings.ToLower(v)]; ok {
			return code, nil
		}
		if n, err := strconv.Atoi(v); err == nil {
			return n, nil
		}
		return 0, fmt.Errorf("unknown exit code %q", v)
	default:
		return 0, fmt.Errorf("exit code %v has unsupported type %T", raw, raw)
	}
}

func parseOverrides(raw map[string]bool) (domain.Overrides, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ov := make(domain.Overrides, len(raw))
	for name, v := range raw {
		opt, err := domain.ParseOption(name)
		if err != nil {
			return nil, err
		}
		ov[opt] = v
	}
	return ov, nil
}
