package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/leynos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRoutes = `
groups:
  site:
    routes:
      - name: home
        slices:
          - controller: echo
            exit:
              - code: success
                mode: rewrite
                target: /site/greet
      - name: greet
        slices:
          - controller: echo
            static:
              greeting: hi
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "routes.yaml"), []byte(testRoutes), 0o644))
	cfgPath := filepath.Join(dir, "leynos.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("routing:\n  groups: [routes.yaml]\noptions:\n  session_required: false\n"), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", cfgPath, "--log-level", "error"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
		wantErr  bool
	}{
		{name: "version", args: []string{"version"}, contains: []string{"leynos version " + leynos.Version}},
		{name: "routes json", args: []string{"routes", "--format", "json"}, contains: []string{`"name": "greet"`, `"rewrite /site/greet"`}},
		{name: "routes mermaid", args: []string{"routes", "--format", "mermaid"}, contains: []string{"site_home --> site_greet"}},
		{name: "routes bad format", args: []string{"routes", "--format", "xml"}, wantErr: true},
		{name: "validate", args: []string{"validate"}, contains: []string{"2 routes are valid!"}},
		{name: "resolve", args: []string{"resolve", "/site/greet/json"}, contains: []string{"greet", "json"}},
		{
			name:     "resolve dispatch",
			args:     []string{"resolve", "/site/home/json", "--dispatch", "--graph"},
			contains: []string{"200 OK", "Rewrites: [/site/greet]", `"greeting":"hi"`, "class site_greet current;"},
		},
		{name: "resolve unknown", args: []string{"resolve", "/nope/x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err, out)
			for _, c := range tt.contains {
				assert.Contains(t, out, c)
			}
		})
	}
}
