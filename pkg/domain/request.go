package domain

import (
	"mime/multipart"
	"net/http"
)

// File is an uploaded file attached to a request.
type File struct {
	Field       string
	Name        string
	ContentType string
	Size        int64

	// Header gives access to the file contents; nil outside HTTP transports.
	Header *multipart.FileHeader
}

// Request is the explicit context of one incoming request.
// It is built once by the transport and never mutated by the engine.
type Request struct {
	ID     string
	Path   string
	Method string
	Header http.Header

	// Params holds the sanitized request parameters (query and form).
	Params map[string]any
	Files  []File

	SessionID      string
	AcceptLanguage string
	RemoteAddr     string
}

// Param reads one request parameter.
func (r *Request) Param(key string) (any, bool) {
	v, ok := r.Params[key]
	return v, ok
}
