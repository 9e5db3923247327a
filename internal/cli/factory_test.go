package cli

import (
	"context"
	"encoding/base64"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/leynos"
	"github.com/aretw0/leynos/pkg/config"
	"github.com/aretw0/leynos/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const routesYAML = `
groups:
  site:
    routes:
      - name: hello
        template: hello
        inputs:
          name: world
        slices:
          - controller: echo
            input_map: [name]
      - name: answer
        slices:
          - controller: sql
            static:
              query: SELECT 41 + 1 AS answer
      - name: remember
        method: post
        slices:
          - controller: echo
            store_input:
              request: [colour]
            store_output:
              session: [colour]
      - name: recall
        slices:
          - controller: echo
            store_input:
              session: [colour]
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return dir
}

func loadApp(t *testing.T, extra string) *App {
	t.Helper()
	dir := writeFiles(t, map[string]string{
		"routes.yaml":          routesYAML,
		"templates/hello.html": "hello {{.name}}",
		"templates/error.html": "oops: {{.error}}",
		"leynos.yaml": `
routing:
  groups: [routes.yaml]
options:
  session_required: false
templates:
  dir: templates
databases:
  default:
    driver: sqlite
    dsn: ":memory:"
` + extra,
	})

	cfg, err := config.Load(filepath.Join(dir, "leynos.yaml"))
	require.NoError(t, err)

	app, err := Build(cfg, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })
	return app
}

func dispatch(app *App, method, path string, params map[string]any, sid string) *leynos.Recorder {
	rec := leynos.NewRecorder()
	app.Kernel.Dispatch(context.Background(), &domain.Request{
		Path:      path,
		Method:    method,
		Params:    params,
		SessionID: sid,
	}, rec)
	return rec
}

func TestBuild(t *testing.T) {
	app := loadApp(t, "")
	require.NotNil(t, app.Templates)

	tests := []struct {
		name   string
		path   string
		status int
		body   string
		json   bool
	}{
		{name: "template", path: "/site/hello", status: http.StatusOK, body: "hello world"},
		{name: "database", path: "/site/answer/json", status: http.StatusOK, body: `{"rows":[{"answer":42}]}`, json: true},
		{name: "error template", path: "/site/missing", status: http.StatusNotFound, body: "oops: Not found."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := dispatch(app, http.MethodGet, tt.path, nil, "")
			assert.Equal(t, tt.status, rec.Code)
			if tt.json {
				assert.JSONEq(t, tt.body, rec.String())
			} else {
				assert.Equal(t, tt.body, rec.String())
			}
		})
	}
}

func TestBuild_Metrics(t *testing.T) {
	app := loadApp(t, "")
	dispatch(app, http.MethodGet, "/site/hello", nil, "")

	families, err := app.Registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "leynos_requests_total")
	assert.Contains(t, names, "go_goroutines")
}

func TestBuild_RedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))

	app := loadApp(t, `
store:
  backend: redis
  addr: `+mr.Addr()+`
session:
  distributed_locks: true
  encryption_key: `+key+`
`)

	rec := dispatch(app, http.MethodPost, "/site/remember/json", map[string]any{"colour": "teal"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.String())
	require.NotEmpty(t, rec.SessionID)

	raw, err := mr.Get("leynos:session:" + rec.SessionID)
	require.NoError(t, err)
	assert.NotContains(t, raw, "teal")

	rec = dispatch(app, http.MethodGet, "/site/recall/json", nil, rec.SessionID)
	assert.JSONEq(t, `{"colour":"teal"}`, rec.String())
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "invalid config", mutate: func(c *config.Config) { c.Store.Backend = "tape" }},
		{name: "missing group file", mutate: func(c *config.Config) { c.Routing.Groups = []string{"/does/not/exist.yaml"} }},
		{name: "missing templates", mutate: func(c *config.Config) { c.Templates.Dir = "/does/not/exist" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			_, err := Build(cfg, nil, nil)
			assert.Error(t, err)
		})
	}
}

func TestStoreBackends(t *testing.T) {
	assert.Equal(t, []string{"file", "memcached", "memory", "redis"}, StoreBackends())

	_, _, err := OpenStore(config.StoreConfig{Backend: "tape"})
	assert.Error(t, err)

	s, closer, err := OpenStore(config.StoreConfig{Backend: config.BackendMemory})
	require.NoError(t, err)
	assert.Nil(t, closer)
	require.NoError(t, s.Set(context.Background(), "k", "v"))

	dir := t.TempDir()
	s, _, err = OpenStore(config.StoreConfig{Backend: config.BackendFile, Dir: dir})
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "k", "v"))
	assert.FileExists(t, filepath.Join(dir, "k.json"))
}

func TestNewLogger(t *testing.T) {
	_, err := NewLogger(config.LogConfig{Level: "debug", Format: "json"})
	assert.NoError(t, err)
	_, err = NewLogger(config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
