package route

import (
	"sort"

	"github.com/aretw0/leynos/pkg/domain"
)

// DefaultRoute is the route name a group falls back to when the requested name is unknown.
const DefaultRoute = "default"

// Group is a named collection of routes sharing overrides and global slices.
type Group struct {
	routes    map[string]map[string]*Route // method -> name or alias -> route
	order     []*Route
	overrides domain.Overrides
	global    []*Slice
}

// GroupFactory builds a group. Factories are looked up by group name in the routing map.
type GroupFactory func() *Group

// NewGroup creates an empty group.
func NewGroup() *Group {
	return &Group{
		routes:    make(map[string]map[string]*Route),
		overrides: make(domain.Overrides),
	}
}

// Add registers routes under their names and aliases. A later registration for the
// same name or alias and method silently replaces the earlier one.
func (g *Group) Add(routes ...*Route) *Group {
	for _, r := range routes {
		byName, ok := g.routes[r.method]
		if !ok {
			byName = make(map[string]*Route)
			g.routes[r.method] = byName
		}
		byName[r.name] = r
		for _, alias := range r.aliases {
			byName[alias] = r
		}
		g.order = append(g.order, r)
	}
	return g
}

// Override sets an option for every route in the group.
func (g *Group) Override(opt domain.Option, value bool) *Group {
	g.overrides[opt] = value
	return g
}

// GlobalSlices prepends slices to every route's chain at execution time.
func (g *Group) GlobalSlices(slices ...*Slice) *Group {
	g.global = append(g.global, slices...)
	return g
}

// Lookup finds the route registered under name (or alias) for method.
func (g *Group) Lookup(name, method string) (*Route, bool) {
	r, ok := g.routes[method][name]
	return r, ok
}

// Resolve finds the route for name and method, falling back to the group's default route.
func (g *Group) Resolve(name, method string) (*Route, bool) {
	if r, ok := g.Lookup(name, method); ok {
		return r, true
	}
	return g.Lookup(DefaultRoute, method)
}

func (g *Group) Overrides() domain.Overrides { return g.overrides }

// Globals returns the slices prepended to every route.
func (g *Group) Globals() []*Slice { return g.global }

// Chain returns the full slice chain executed for r: global slices first.
func (g *Group) Chain(r *Route) []*Slice {
	chain := make([]*Slice, 0, len(g.global)+len(r.slices))
	chain = append(chain, g.global...)
	return append(chain, r.slices...)
}

// Routes returns the distinct routes still reachable in the group, sorted by name then method.
func (g *Group) Routes() []*Route {
	seen := make(map[*Route]bool)
	var out []*Route
	for _, r := range g.order {
		if seen[r] {
			continue
		}
		seen[r] = true
		if g.reachable(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].name != out[j].name {
			return out[i].name < out[j].name
		}
		return out[i].method < out[j].method
	})
	return out
}

func (g *Group) reachable(r *Route) bool {
	for _, candidate := range g.routes[r.method] {
		if candidate == r {
			return true
		}
	}
	return false
}
