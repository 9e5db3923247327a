package leynos

import (
	"bytes"
	"net/http"
)

// Recorder is an in-memory ResponseWriter. It backs the CLI and MCP surfaces and tests.
type Recorder struct {
	Code        int
	Location    string
	Type        string
	Disposition string
	SessionID   string
	Header      http.Header
	Body        bytes.Buffer
}

// NewRecorder returns a Recorder with status 200.
func NewRecorder() *Recorder {
	return &Recorder{Code: http.StatusOK, Header: make(http.Header)}
}

func (r *Recorder) Write(p []byte) (int, error) { return r.Body.Write(p) }

// Redirect records a 303 to location.
func (r *Recorder) Redirect(location string) {
	r.Code = http.StatusSeeOther
	r.Location = location
}

func (r *Recorder) ContentType(mime string)            { r.Type = mime }
func (r *Recorder) ContentDisposition(filename string) { r.Disposition = filename }
func (r *Recorder) Status(code int)                    { r.Code = code }
func (r *Recorder) Set(key, value string)              { r.Header.Set(key, value) }
func (r *Recorder) Session(id string)                  { r.SessionID = id }

// String returns the body written so far.
func (r *Recorder) String() string { return r.Body.String() }
