// Package http serves the dispatch engine over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/aretw0/leynos"
	"github.com/aretw0/leynos/internal/logging"
	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	// DefaultSessionCookie names the cookie carrying the session id.
	DefaultSessionCookie = "leynos_session"

	// DefaultMaxBodyBytes bounds request bodies, uploads included.
	DefaultMaxBodyBytes = 10 << 20
)

// Dispatcher answers one request.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *domain.Request, w ports.ResponseWriter) *leynos.Result
}

// Server adapts a Dispatcher to net/http.
type Server struct {
	dispatcher   Dispatcher
	cookie       string
	secure       bool
	maxBodyBytes int64
	metrics      http.Handler
	logger       *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithSessionCookie sets the session cookie name and whether it is HTTPS only.
func WithSessionCookie(name string, secure bool) Option {
	return func(s *Server) {
		if name != "" {
			s.cookie = name
		}
		s.secure = secure
	}
}

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the adapter logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler: /health, optional /metrics, and every
// other path dispatched.
func NewHandler(d Dispatcher, opts ...Option) http.Handler {
	s := &Server{
		dispatcher:   d,
		cookie:       DefaultSessionCookie,
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.HandleFunc("/*", s.dispatch)
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": leynos.Version})
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	req, err := s.request(r)
	if err != nil {
		s.logger.Warn("request rejected", "path", r.URL.Path, "err", err)
		status := http.StatusBadRequest
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, "Invalid request.", status)
		return
	}

	rw := &responseWriter{w: w, server: s, status: http.StatusOK}
	s.dispatcher.Dispatch(r.Context(), req, rw)
	rw.finish()
}

// request builds the domain request from sanitized query, form and upload data.
func (s *Server) request(r *http.Request) (*domain.Request, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(s.maxBodyBytes); err != nil {
			return nil, err
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, err
	}

	params, err := SanitizeParams(r.Form)
	if err != nil {
		return nil, err
	}

	req := &domain.Request{
		ID:             middleware.GetReqID(r.Context()),
		Path:           r.URL.Path,
		Method:         r.Method,
		Header:         r.Header.Clone(),
		Params:         params,
		AcceptLanguage: r.Header.Get("Accept-Language"),
		RemoteAddr:     r.RemoteAddr,
	}
	if c, err := r.Cookie(s.cookie); err == nil {
		req.SessionID = c.Value
	}

	if r.MultipartForm != nil {
		for field, headers := range r.MultipartForm.File {
			for _, h := range headers {
				req.Files = append(req.Files, domain.File{
					Field:       SanitizeKey(field),
					Name:        h.Filename,
					ContentType: h.Header.Get("Content-Type"),
					Size:        h.Size,
					Header:      h,
				})
			}
		}
	}
	return req, nil
}

// responseWriter implements ports.ResponseWriter over net/http. The status is
// sent with the first body write, so header calls may come in any order before it.
type responseWriter struct {
	w      http.ResponseWriter
	server *Server
	status int
	wrote  bool
}

func (rw *responseWriter) Write(p []byte) (int, error) {
	if !rw.wrote {
		rw.w.WriteHeader(rw.status)
		rw.wrote = true
	}
	return rw.w.Write(p)
}

func (rw *responseWriter) Redirect(location string) {
	rw.w.Header().Set("Location", location)
	rw.status = http.StatusSeeOther
}

func (rw *responseWriter) ContentType(mimeType string) {
	rw.w.Header().Set("Content-Type", mimeType)
}

func (rw *responseWriter) ContentDisposition(filename string) {
	rw.w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
}

func (rw *responseWriter) Status(code int) {
	if !rw.wrote {
		rw.status = code
	}
}

func (rw *responseWriter) Set(key, value string) {
	rw.w.Header().Set(key, value)
}

func (rw *responseWriter) Session(id string) {
	http.SetCookie(rw.w, &http.Cookie{
		Name:     rw.server.cookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   rw.server.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (rw *responseWriter) finish() {
	if !rw.wrote {
		rw.w.WriteHeader(rw.status)
		rw.wrote = true
	}
}
