package ports

import "io"

// View renders the final data accumulator.
type View interface {
	Render(w io.Writer, data map[string]any) error
}

// BinaryView is a View producing a downloadable file.
type BinaryView interface {
	View
	MIMEType() string
	FileName() string
}

// TemplateEngine renders named templates.
type TemplateEngine interface {
	Render(w io.Writer, name string, data map[string]any) error
	Has(name string) bool
}
