// Package database hands controllers lazily opened, request-scoped SQL connections.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/leynos/internal/logging"
)

// DefaultAlias is used when a controller asks for the empty alias.
const DefaultAlias = "default"

// ErrUnknownDatabase is returned for aliases missing from the configuration.
var ErrUnknownDatabase = errors.New("unknown database alias")

// Settings describes one database. DSN is passed to the driver untouched.
type Settings struct {
	Driver          string        `mapstructure:"driver" yaml:"driver"`
	DSN             string        `mapstructure:"dsn" yaml:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// Registry owns one connection pool per alias, opened on first use.
type Registry struct {
	mu       sync.Mutex
	settings map[string]Settings
	pools    map[string]*sql.DB
	logger   *slog.Logger
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger configures a logger for the Registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a registry over the configured databases.
func NewRegistry(settings map[string]Settings, opts ...Option) *Registry {
	r := &Registry{
		settings: make(map[string]Settings, len(settings)),
		pools:    make(map[string]*sql.DB),
		logger:   logging.NewNop(),
	}
	for alias, s := range settings {
		r.settings[alias] = s
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Aliases lists the configured aliases in sorted order.
func (r *Registry) Aliases() []string {
	out := make([]string, 0, len(r.settings))
	for alias := range r.settings {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// Pool returns the pool for alias, opening it on first use.
func (r *Registry) Pool(alias string) (*sql.DB, error) {
	if alias == "" {
		alias = DefaultAlias
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if db, ok := r.pools[alias]; ok {
		return db, nil
	}
	s, ok := r.settings[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDatabase, alias)
	}

	db, err := sql.Open(s.Driver, s.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", alias, err)
	}
	if s.MaxOpenConns > 0 {
		db.SetMaxOpenConns(s.MaxOpenConns)
	}
	if s.MaxIdleConns > 0 {
		db.SetMaxIdleConns(s.MaxIdleConns)
	}
	if s.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(s.ConnMaxLifetime)
	}

	r.pools[alias] = db
	r.logger.Debug("database pool opened", "alias", alias, "driver", s.Driver)
	return db, nil
}

// Begin starts the set of connections for one request.
func (r *Registry) Begin() *Handles {
	return &Handles{registry: r, conns: make(map[string]*sql.Conn)}
}

// Close closes every open pool.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for alias, db := range r.pools {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database %q: %w", alias, err))
		}
		delete(r.pools, alias)
	}
	return errors.Join(errs...)
}

// Handles is the per-request connection set. Each alias is connected once and
// the same connection serves every slice of the request, including rewrites.
type Handles struct {
	registry *Registry
	mu       sync.Mutex
	conns    map[string]*sql.Conn
}

// Conn implements ports.Databases.
func (h *Handles) Conn(ctx context.Context, alias string) (*sql.Conn, error) {
	if alias == "" {
		alias = DefaultAlias
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.conns[alias]; ok {
		return c, nil
	}
	db, err := h.registry.Pool(alias)
	if err != nil {
		return nil, err
	}
	c, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect database %q: %w", alias, err)
	}
	h.conns[alias] = c
	return c, nil
}

// Opened lists the aliases connected so far.
func (h *Handles) Opened() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.conns))
	for alias := range h.conns {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// Close returns every connection to its pool.
func (h *Handles) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	for alias, c := range h.conns {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("release database %q: %w", alias, err))
		}
		delete(h.conns, alias)
	}
	return errors.Join(errs...)
}
