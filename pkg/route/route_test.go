package route_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/aretw0/leynos/pkg/controller"
	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noop = controller.Of(controller.Func(func(context.Context, *controller.Exchange) (int, error) {
	return domain.ExitSuccess, nil
}))

func TestGroup_LookupByNameAndAlias(t *testing.T) {
	show := route.New("show", route.NewSlice(noop)).Alias("view", "display")
	g := route.NewGroup().Add(show)

	for _, name := range []string{"show", "view", "display"} {
		r, ok := g.Lookup(name, http.MethodGet)
		require.True(t, ok, name)
		assert.Same(t, show, r)
	}

	_, ok := g.Lookup("show", http.MethodPost)
	assert.False(t, ok, "routes are method-scoped")
}

func TestGroup_AliasCollisionLastWins(t *testing.T) {
	first := route.New("first")
	second := route.New("second").Alias("first")

	g := route.NewGroup().Add(first, second)

	r, ok := g.Lookup("first", http.MethodGet)
	require.True(t, ok)
	assert.Same(t, second, r)

	names := []string{}
	for _, r := range g.Routes() {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{"second"}, names, "shadowed routes are no longer listed")
}

func TestGroup_ResolveFallsBackToDefault(t *testing.T) {
	def := route.New(route.DefaultRoute)
	g := route.NewGroup().Add(def, route.New("known"))

	r, ok := g.Resolve("unknown", http.MethodGet)
	require.True(t, ok)
	assert.Same(t, def, r)

	_, ok = g.Resolve("unknown", http.MethodPost)
	assert.False(t, ok)
}

func TestGroup_ChainPrependsGlobals(t *testing.T) {
	global := route.NewSlice(nil).Named("auth")
	own := route.NewSlice(noop).Named("own")

	r := route.New("r", own)
	g := route.NewGroup().GlobalSlices(global).Add(r)

	chain := g.Chain(r)
	require.Len(t, chain, 2)
	assert.Equal(t, "auth", chain[0].Name())
	assert.Equal(t, "own", chain[1].Name())
	assert.Len(t, r.Slices(), 1, "the route's own chain is untouched")
}

func TestRoute_Builder(t *testing.T) {
	r := route.New("save").
		Method(http.MethodPost).
		Input("a", 1).
		Inputs(map[string]any{"b": 2}).
		Permission("EDIT").
		Override(domain.OptionSessionRequired, false).
		Template("saved")

	assert.Equal(t, http.MethodPost, r.RequestMethod())
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, r.StaticInputs())

	tok, restricted := r.PermissionToken()
	assert.True(t, restricted)
	assert.Equal(t, "EDIT", tok)

	assert.Equal(t, domain.Overrides{domain.OptionSessionRequired: false}, r.Overrides())
	assert.Equal(t, "saved", r.DefaultTemplate())

	_, ok := r.OutputAliases()
	assert.False(t, ok, "no output map until one is set")

	r.OutputMap(map[string]string{})
	_, ok = r.OutputAliases()
	assert.True(t, ok, "an empty output map is still a map")
}

func TestSlice_Builder(t *testing.T) {
	s := route.NewSlice(noop).
		Static("k", "v").
		InputMap(route.Bind("a", "b")).
		StoreInput(domain.StoreGlobal, route.Key("g")).
		StoreOutput(domain.StoreSession, route.Bind("out", "sess")).
		Exit(domain.Render(domain.ExitSuccess, "first"), domain.Redirect(domain.ExitFailure, "/x/y")).
		Exit(domain.Render(domain.ExitSuccess, "second"))

	assert.True(t, s.HasController())
	assert.Equal(t, map[string]any{"k": "v"}, s.StaticInputs())
	assert.Equal(t, []route.Binding{{Source: "a", Target: "b"}}, s.InputBindings())
	assert.Equal(t, []route.Binding{{Source: "g", Target: "g"}}, s.StoreInputs(domain.StoreGlobal))
	assert.Empty(t, s.StoreInputs(domain.StoreRequest))
	assert.Equal(t, []route.Binding{{Source: "out", Target: "sess"}}, s.StoreOutputs(domain.StoreSession))

	st, ok := s.ExitState(domain.ExitSuccess)
	require.True(t, ok)
	assert.Equal(t, "second", st.Target, "later exit states replace earlier ones")

	_, ok = s.ExitState(domain.ExitIOFailure)
	assert.False(t, ok)
	assert.Len(t, s.ExitStates(), 2)

	assert.False(t, route.NewSlice(nil).HasController())
}

func TestStaticInputsAreCopied(t *testing.T) {
	nested := func() map[string]any {
		return map[string]any{
			"filter": map[string]any{"status": "open"},
			"tags":   []any{"a", "b"},
			"limit":  10,
		}
	}
	r := route.New("list").Inputs(nested())
	s := route.NewSlice(noop).Statics(nested())

	tests := []struct {
		name   string
		inputs func() map[string]any
	}{
		{"route", r.StaticInputs},
		{"slice", s.StaticInputs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := tt.inputs()
			first["limit"] = 99
			first["filter"].(map[string]any)["status"] = "closed"
			first["tags"].([]any)[0] = "z"

			assert.Equal(t, nested(), tt.inputs())
		})
	}
}

func TestDescribe(t *testing.T) {
	g := route.NewGroup().
		Override(domain.OptionSessionRequired, false).
		Add(route.New("list",
			route.NewSlice(noop).Exit(domain.Redirect(domain.ExitFailure, "/items/error"), domain.Render(domain.ExitSuccess, "list")),
		).Alias("index").Permission("READ"))

	infos := route.Describe("items", g)
	require.Len(t, infos, 1)

	info := infos[0]
	assert.Equal(t, "/items/list", info.Path())
	assert.Equal(t, []string{"index"}, info.Aliases)
	assert.Equal(t, "READ", info.Permission)
	assert.Equal(t, 1, info.Slices)
	assert.Equal(t, map[string]bool{"session_required": false}, info.Overrides)
	assert.Equal(t, []string{"redirect /items/error", "render list"}, info.Exits)
}
