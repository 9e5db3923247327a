package session

import (
	"context"
	"sync"

	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/persistence/codec"
)

func init() {
	// Messages wait in the session between requests.
	codec.Register("leynos.Message", domain.Message{})
}

// Session is one caller's session data, loaded for the duration of a request.
// It implements ports.MemoryStore over its in-memory copy; nothing reaches the
// backing store until Manager.Save.
type Session struct {
	id    string
	isNew bool

	mu    sync.Mutex
	data  map[string]any
	dirty bool
}

func newSession(id string, data map[string]any, isNew bool) *Session {
	if data == nil {
		data = make(map[string]any)
	}
	return &Session{id: id, data: data, isNew: isNew}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// IsNew reports whether the session was created by this request.
func (s *Session) IsNew() bool { return s.isNew }

// Dirty reports whether the session changed since it was loaded.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Session) Get(_ context.Context, key string) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *Session) Set(_ context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	s.dirty = true
	return nil
}

func (s *Session) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		delete(s.data, key)
		s.dirty = true
	}
	return nil
}

// Data returns a copy of the session contents.
func (s *Session) Data() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

func (s *Session) markClean() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
	s.isNew = false
}
