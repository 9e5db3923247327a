package view

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
)

const (
	// Ext is appended when a template name is given without one.
	Ext = ".html"

	// HTMLMime is the content type of rendered templates.
	HTMLMime = "text/html; charset=utf-8"
)

// Templates is a TemplateEngine over html/template.
type Templates struct {
	set *template.Template
}

// LoadTemplates parses every *.html file under root in fsys. Templates are
// named by their slash path relative to root.
func LoadTemplates(fsys fs.FS, root string) (*Templates, error) {
	set := template.New("").Funcs(Funcs())
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != Ext {
			return nil
		}
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		name := strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
		if _, err := set.New(name).Parse(string(raw)); err != nil {
			return fmt.Errorf("parse template %s: %w", p, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	return &Templates{set: set}, nil
}

// NewTemplates wraps an already parsed set.
func NewTemplates(set *template.Template) *Templates {
	return &Templates{set: set}
}

// Funcs is the function map available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
	}
}

func (t *Templates) lookup(name string) *template.Template {
	if tpl := t.set.Lookup(name); tpl != nil {
		return tpl
	}
	if path.Ext(name) == "" {
		return t.set.Lookup(name + Ext)
	}
	return nil
}

// Has reports whether name (with or without the extension) is loaded.
func (t *Templates) Has(name string) bool {
	return t.lookup(name) != nil
}

// Render implements ports.TemplateEngine.
func (t *Templates) Render(w io.Writer, name string, data map[string]any) error {
	tpl := t.lookup(name)
	if tpl == nil {
		return fmt.Errorf("template %q not found", name)
	}
	return tpl.Execute(w, data)
}
