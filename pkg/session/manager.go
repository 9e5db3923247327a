package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/leynos/internal/logging"
	"github.com/aretw0/leynos/pkg/ports"
	"github.com/google/uuid"
)

// DefaultPrefix prefixes session keys in the backing store.
const DefaultPrefix = "session:"

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent writes.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store  ports.MemoryStore
	prefix string

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL bounds how long a distributed lock outlives a crashed holder.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithPrefix sets the key prefix used in the backing store.
func WithPrefix(prefix string) Option {
	return func(m *Manager) {
		m.prefix = prefix
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new session manager over the given store.
func NewManager(store ports.MemoryStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		prefix:  DefaultPrefix,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Load returns the session for id. Unknown or malformed ids start a fresh session
// under a new id, so clients can never choose their own session key.
func (m *Manager) Load(ctx context.Context, sessionID string) (*Session, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return newSession(uuid.NewString(), nil, true), nil
	}

	var sess *Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		raw, ok, err := m.store.Get(ctx, m.prefix+sessionID)
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		if !ok {
			sess = newSession(uuid.NewString(), nil, true)
			return nil
		}
		data, isMap := raw.(map[string]any)
		if !isMap {
			return fmt.Errorf("session %s holds %T, want a map", sessionID, raw)
		}
		sess = newSession(sessionID, data, false)
		return nil
	})
	return sess, err
}

// Save persists the session if it changed.
func (m *Manager) Save(ctx context.Context, sess *Session) error {
	if !sess.Dirty() {
		return nil
	}
	err := m.WithLock(ctx, sess.ID(), func(ctx context.Context) error {
		return m.store.Set(ctx, m.prefix+sess.ID(), sess.Data())
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	sess.markClean()
	return nil
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, m.prefix+sessionID)
	})
}

// Store returns the underlying store.
func (m *Manager) Store() ports.MemoryStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
