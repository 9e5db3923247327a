package view_test

import (
	"bytes"
	"math"
	"testing"
	"testing/fstest"

	"github.com/aretw0/leynos/pkg/ports"
	"github.com/aretw0/leynos/pkg/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.View           = view.JSON{}
	_ ports.BinaryView     = (*view.CSV)(nil)
	_ ports.TemplateEngine = (*view.Templates)(nil)
)

func TestJSON_Render(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, view.JSON{}.Render(&buf, map[string]any{"a": 1, "b": "x"}))
	assert.JSONEq(t, `{"a":1,"b":"x"}`, buf.String())

	buf.Reset()
	require.NoError(t, view.JSON{}.Render(&buf, nil))
	assert.Equal(t, `{}`, buf.String())
}

func TestJSON_Failure(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, view.JSON{}.Render(&buf, map[string]any{"bad": math.Inf(1)}))
	assert.Equal(t, view.FailureJSON, buf.String())
}

func TestTemplates(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/list.html":        {Data: []byte(`{{range .items}}<li>{{.}}</li>{{end}}`)},
		"templates/errors/page.html": {Data: []byte(`<p>{{.error | upper}}</p>`)},
		"templates/notes.txt":        {Data: []byte(`ignored`)},
	}
	tpl, err := view.LoadTemplates(fsys, "templates")
	require.NoError(t, err)

	assert.True(t, tpl.Has("list"))
	assert.True(t, tpl.Has("list.html"))
	assert.True(t, tpl.Has("errors/page"))
	assert.False(t, tpl.Has("notes.txt"))

	var buf bytes.Buffer
	require.NoError(t, tpl.Render(&buf, "list", map[string]any{"items": []string{"a", "<b>"}}))
	assert.Equal(t, `<li>a</li><li>&lt;b&gt;</li>`, buf.String())

	buf.Reset()
	require.NoError(t, tpl.Render(&buf, "errors/page", map[string]any{"error": "not found."}))
	assert.Equal(t, `<p>NOT FOUND.</p>`, buf.String())

	assert.Error(t, tpl.Render(&buf, "missing", nil))
}

func TestTemplates_ParseError(t *testing.T) {
	fsys := fstest.MapFS{"t/broken.html": {Data: []byte(`{{if}}`)}}
	_, err := view.LoadTemplates(fsys, "t")
	assert.Error(t, err)
}

func TestCSV(t *testing.T) {
	tests := []struct {
		name string
		view *view.CSV
		data map[string]any
		want string
	}{
		{
			name: "maps with sorted header",
			view: view.NewCSV("rows", "items.csv"),
			data: map[string]any{"rows": []map[string]any{
				{"name": "apple", "qty": 3},
				{"name": "pear, green", "qty": nil},
			}},
			want: "name,qty\napple,3\n\"pear, green\",\n",
		},
		{
			name: "maps with fixed columns",
			view: view.NewCSV("rows", "", "qty"),
			data: map[string]any{"rows": []map[string]any{{"name": "apple", "qty": 3}}},
			want: "qty\n3\n",
		},
		{
			name: "raw records",
			view: view.NewCSV("rows", ""),
			data: map[string]any{"rows": [][]string{{"a", "b"}, {"1", "2"}}},
			want: "a,b\n1,2\n",
		},
		{
			name: "missing source",
			view: view.NewCSV("rows", "", "id"),
			data: map[string]any{},
			want: "id\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.view.Render(&buf, tt.data))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestCSV_Metadata(t *testing.T) {
	v := view.NewCSV("rows", "")
	assert.Equal(t, "export.csv", v.FileName())
	assert.Equal(t, view.CSVMime, v.MIMEType())

	err := v.Render(&bytes.Buffer{}, map[string]any{"rows": 42})
	assert.Error(t, err)
}
