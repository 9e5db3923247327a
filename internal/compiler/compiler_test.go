package compiler_test

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/leynos/internal/compiler"
	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/registry"
	"github.com/aretw0/leynos/pkg/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const itemsYAML = `
groups:
  items:
    overrides:
      connect_database: false
    global:
      - controller: echo
        name: audit
    routes:
      - name: list
        aliases: [index]
        template: items/list
        inputs:
          page: 1
        slices:
          - controller: echo
            static:
              limit: 10
            input_map:
              - page
              - q: search
            store_input:
              session: [user_id]
            store_output:
              global:
                - rows: cached_rows
            output_map:
              rows: rows
            exit:
              - code: success
              - code: 1
                mode: redirect
                target: /items/error
              - code: "100"
                mode: rewrite
                target: /items/other
      - name: save
        method: post
        permission: items.write
        overrides:
          session_required: false
        output_map:
          id: item_id
        slices:
          - controller: message
`

func compile(t *testing.T, raw string) map[string]route.GroupFactory {
	t.Helper()
	f, err := compiler.Parse([]byte(raw))
	require.NoError(t, err)
	groups, err := compiler.Compile(f, registry.Default())
	require.NoError(t, err)
	return groups
}

func TestCompile(t *testing.T) {
	groups := compile(t, itemsYAML)
	require.Contains(t, groups, "items")

	g := groups["items"]()
	assert.Equal(t, domain.Overrides{domain.OptionConnectDatabase: false}, g.Overrides())
	require.Len(t, g.Globals(), 1)
	assert.Equal(t, "audit", g.Globals()[0].Name())

	list, ok := g.Lookup("index", http.MethodGet)
	require.True(t, ok)
	assert.Equal(t, "list", list.Name())
	assert.Equal(t, "items/list", list.DefaultTemplate())
	assert.Equal(t, map[string]any{"page": 1}, list.StaticInputs())

	s := list.Slices()[0]
	assert.True(t, s.HasController())
	assert.Equal(t, map[string]any{"limit": 10}, s.StaticInputs())
	assert.Equal(t, []route.Binding{route.Key("page"), route.Bind("q", "search")}, s.InputBindings())
	assert.Equal(t, []route.Binding{route.Key("user_id")}, s.StoreInputs(domain.StoreSession))
	assert.Equal(t, []route.Binding{route.Bind("rows", "cached_rows")}, s.StoreOutputs(domain.StoreGlobal))
	aliases, ok := s.OutputAliases()
	require.True(t, ok)
	assert.Equal(t, map[string]string{"rows": "rows"}, aliases)

	st, ok := s.ExitState(domain.ExitSuccess)
	require.True(t, ok)
	assert.Equal(t, domain.Render(domain.ExitSuccess, ""), st)
	st, _ = s.ExitState(domain.ExitFailure)
	assert.Equal(t, domain.Redirect(domain.ExitFailure, "/items/error"), st)
	st, _ = s.ExitState(100)
	assert.Equal(t, domain.Rewrite(100, "/items/other"), st)

	save, ok := g.Lookup("save", http.MethodPost)
	require.True(t, ok)
	token, ok := save.PermissionToken()
	require.True(t, ok)
	assert.Equal(t, "items.write", token)
	assert.Equal(t, domain.Overrides{domain.OptionSessionRequired: false}, save.Overrides())
	out, ok := save.OutputAliases()
	require.True(t, ok)
	assert.Equal(t, map[string]string{"id": "item_id"}, out)
}

func TestCompile_FreshGroups(t *testing.T) {
	groups := compile(t, itemsYAML)
	assert.NotSame(t, groups["items"](), groups["items"]())
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown controller", `
groups:
  g:
    routes:
      - name: r
        slices: [{controller: nope}]
`},
		{"unknown store", `
groups:
  g:
    routes:
      - name: r
        slices: [{store_input: {disk: [a]}}]
`},
		{"bad binding", `
groups:
  g:
    routes:
      - name: r
        slices: [{input_map: [{a: b, c: d}]}]
`},
		{"unknown option", `
groups:
  g:
    overrides: {turbo: true}
`},
		{"redirect without target", `
groups:
  g:
    routes:
      - name: r
        slices: [{exit: [{code: 0, mode: redirect}]}]
`},
		{"unknown exit code", `
groups:
  g:
    routes:
      - name: r
        slices: [{exit: [{code: great}]}]
`},
		{"unknown mode", `
groups:
  g:
    routes:
      - name: r
        slices: [{exit: [{mode: teleport}]}]
`},
		{"missing name", `
groups:
  g:
    routes:
      - slices: []
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := compiler.Parse([]byte(tt.yaml))
			require.NoError(t, err)
			_, err = compiler.Compile(f, registry.Default())
			assert.Error(t, err)
		})
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := compiler.Parse([]byte("groups:\n  g:\n    roots: []\n"))
	assert.Error(t, err)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	require.NoError(t, os.WriteFile(a, []byte(itemsYAML), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("groups:\n  users:\n    routes: [{name: list}]\n"), 0o644))

	f, err := compiler.LoadFiles(a, b)
	require.NoError(t, err)
	assert.Len(t, f.Groups, 2)

	_, err = compiler.LoadFiles(a, a)
	assert.Error(t, err, "a group declared twice is rejected")
}
