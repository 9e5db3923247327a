package route

import "sort"

// Info describes a route for listings and tooling.
type Info struct {
	Group      string            `json:"group"`
	Name       string            `json:"name"`
	Method     string            `json:"method"`
	Aliases    []string          `json:"aliases,omitempty"`
	Permission string            `json:"permission,omitempty"`
	Slices     int               `json:"slices"`
	Template   string            `json:"template,omitempty"`
	Overrides  map[string]bool   `json:"overrides,omitempty"`
	Exits      []string          `json:"exits,omitempty"`
	OutputMap  map[string]string `json:"output_map,omitempty"`
}

// Path returns the canonical request path of the route.
func (i Info) Path() string {
	return "/" + i.Group + "/" + i.Name
}

// Describe lists the reachable routes of g.
func Describe(groupName string, g *Group) []Info {
	routes := g.Routes()
	infos := make([]Info, 0, len(routes))
	for _, r := range routes {
		info := Info{
			Group:      groupName,
			Name:       r.Name(),
			Method:     r.RequestMethod(),
			Aliases:    r.Aliases(),
			Permission: r.permission,
			Slices:     len(g.Chain(r)),
			Template:   r.DefaultTemplate(),
		}
		if len(g.overrides)+len(r.overrides) > 0 {
			info.Overrides = make(map[string]bool)
			for opt, v := range g.overrides {
				info.Overrides[opt.String()] = v
			}
			for opt, v := range r.overrides {
				info.Overrides[opt.String()] = v
			}
		}
		for _, s := range g.Chain(r) {
			for _, st := range s.ExitStates() {
				if st.HasTarget() {
					info.Exits = append(info.Exits, st.Mode.String()+" "+st.Target)
				}
			}
		}
		sort.Strings(info.Exits)
		info.OutputMap = r.outputMap
		infos = append(infos, info)
	}
	return infos
}
