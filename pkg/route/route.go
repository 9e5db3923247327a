package route

import (
	"net/http"

	"github.com/aretw0/leynos/pkg/domain"
)

// Route is one named, method-scoped endpoint.
type Route struct {
	name       string
	method     string
	slices     []*Slice
	inputs     map[string]any
	permission string
	overrides  domain.Overrides
	aliases    []string
	outputMap  map[string]string
	template   string
}

// New builds a GET route with the given slice chain.
func New(name string, slices ...*Slice) *Route {
	return &Route{
		name:      name,
		method:    http.MethodGet,
		slices:    slices,
		inputs:    make(map[string]any),
		overrides: make(domain.Overrides),
	}
}

// Method sets the HTTP method the route answers.
func (r *Route) Method(method string) *Route {
	r.method = method
	return r
}

// Input adds a static input seeding the accumulator.
func (r *Route) Input(key string, value any) *Route {
	r.inputs[key] = value
	return r
}

// Inputs adds static inputs.
func (r *Route) Inputs(values map[string]any) *Route {
	for k, v := range values {
		r.inputs[k] = v
	}
	return r
}

// Permission requires the caller to hold token.
func (r *Route) Permission(token string) *Route {
	r.permission = token
	return r
}

// Override sets an option for this route only.
func (r *Route) Override(opt domain.Option, value bool) *Route {
	r.overrides[opt] = value
	return r
}

// Alias registers extra names resolving to this route.
func (r *Route) Alias(names ...string) *Route {
	r.aliases = append(r.aliases, names...)
	return r
}

// OutputMap replaces the final accumulator with the mapped keys (source to destination).
func (r *Route) OutputMap(m map[string]string) *Route {
	if r.outputMap == nil {
		r.outputMap = make(map[string]string, len(m))
	}
	for k, v := range m {
		r.outputMap[k] = v
	}
	return r
}

// Template sets the template rendered when no exit state names one.
func (r *Route) Template(name string) *Route {
	r.template = name
	return r
}

// Append adds slices to the end of the chain.
func (r *Route) Append(slices ...*Slice) *Route {
	r.slices = append(r.slices, slices...)
	return r
}

func (r *Route) Name() string { return r.name }

// RequestMethod returns the HTTP method the route answers.
func (r *Route) RequestMethod() string { return r.method }

func (r *Route) Slices() []*Slice { return r.slices }

// StaticInputs returns a copy of the static inputs. Nested maps and slices
// are copied too, so a controller never edits the route definition.
func (r *Route) StaticInputs() map[string]any {
	return copyStatics(r.inputs)
}

// PermissionToken returns the required token; false means unrestricted.
func (r *Route) PermissionToken() (string, bool) {
	return r.permission, r.permission != ""
}

func (r *Route) Overrides() domain.Overrides { return r.overrides }

func (r *Route) Aliases() []string { return r.aliases }

// OutputAliases returns the output map and whether one is defined.
func (r *Route) OutputAliases() (map[string]string, bool) {
	return r.outputMap, r.outputMap != nil
}

// DefaultTemplate returns the template rendered when no exit state names one.
func (r *Route) DefaultTemplate() string { return r.template }

func copyStatics(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out
	case []any:
		out := make([]any, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}
