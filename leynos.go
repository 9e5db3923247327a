package leynos

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/leynos/internal/logging"
	"github.com/aretw0/leynos/internal/runtime"
	"github.com/aretw0/leynos/pkg/adapters/memory"
	"github.com/aretw0/leynos/pkg/database"
	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/ports"
	"github.com/aretw0/leynos/pkg/route"
	"github.com/aretw0/leynos/pkg/session"
)

const (
	// DefaultErrorTemplate renders failures in HTML mode.
	DefaultErrorTemplate = "error"

	// DefaultCacheNamespace roots the keys of the local and global stores.
	DefaultCacheNamespace = "leynos"

	// FallbackBody is written when even the error page cannot be rendered.
	FallbackBody = "Internal server error."
)

// Kernel orchestrates one request from path resolution to the rendered response.
// It is safe for concurrent use.
type Kernel struct {
	engine *runtime.Engine

	options        domain.Options
	auth           ports.Authenticator
	sessions       *session.Manager
	store          ports.MemoryStore
	cacheNamespace string
	databases      *database.Registry
	templates      ports.TemplateEngine
	errorTemplate  string
	documentRoot   string
	location       *time.Location

	engineOpts []runtime.EngineOption
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
}

// Option configures the Kernel.
type Option func(*Kernel)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(k *Kernel) {
		k.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(k *Kernel) {
		k.hooks = k.hooks.Merge(hooks)
	}
}

// WithOptions replaces the global option defaults.
func WithOptions(opts domain.Options) Option {
	return func(k *Kernel) {
		k.options = opts
	}
}

// WithAuthenticator sets how callers are identified from their session.
// Without one every caller is anonymous.
func WithAuthenticator(auth ports.Authenticator) Option {
	return func(k *Kernel) {
		k.auth = auth
	}
}

// WithSessions sets the session manager. The default keeps sessions in process memory.
func WithSessions(m *session.Manager) Option {
	return func(k *Kernel) {
		k.sessions = m
	}
}

// WithStore sets the backend behind the local and global stores.
func WithStore(store ports.MemoryStore) Option {
	return func(k *Kernel) {
		k.store = store
	}
}

// WithCacheNamespace sets the key prefix of the local and global stores.
func WithCacheNamespace(ns string) Option {
	return func(k *Kernel) {
		k.cacheNamespace = ns
	}
}

// WithDatabases enables per-request connections for routes that connect to databases.
func WithDatabases(reg *database.Registry) Option {
	return func(k *Kernel) {
		k.databases = reg
	}
}

// WithTemplates sets the engine used for HTML responses and handed to controllers.
func WithTemplates(t ports.TemplateEngine) Option {
	return func(k *Kernel) {
		k.templates = t
	}
}

// WithErrorTemplate sets the template rendering HTML failures.
func WithErrorTemplate(name string) Option {
	return func(k *Kernel) {
		k.errorTemplate = name
	}
}

// WithDocumentRoot sets the document root exposed to controllers.
func WithDocumentRoot(dir string) Option {
	return func(k *Kernel) {
		k.documentRoot = dir
	}
}

// WithLocation sets the timezone exposed to controllers.
func WithLocation(loc *time.Location) Option {
	return func(k *Kernel) {
		if loc != nil {
			k.location = loc
		}
	}
}

// WithRoutingPattern sets the regular expression splitting paths into group, route and format.
func WithRoutingPattern(pattern string) Option {
	return func(k *Kernel) {
		k.engineOpts = append(k.engineOpts, runtime.WithPattern(pattern))
	}
}

// WithRootRoute sends requests for "/" to path.
func WithRootRoute(path string) Option {
	return func(k *Kernel) {
		k.engineOpts = append(k.engineOpts, runtime.WithRootRoute(runtime.DefaultRootMarker, path))
	}
}

// WithMaxRewriteDepth bounds chains of internal rewrites.
func WithMaxRewriteDepth(n int) Option {
	return func(k *Kernel) {
		k.engineOpts = append(k.engineOpts, runtime.WithMaxRewriteDepth(n))
	}
}

// New builds a kernel over the routing map (group name to factory).
func New(groups map[string]route.GroupFactory, opts ...Option) (*Kernel, error) {
	k := &Kernel{
		options:        domain.DefaultOptions(),
		store:          memory.NewStore(),
		cacheNamespace: DefaultCacheNamespace,
		errorTemplate:  DefaultErrorTemplate,
		location:       time.UTC,
		logger:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.logger == nil {
		k.logger = logging.NewNop()
	}
	if k.sessions == nil {
		k.sessions = session.NewManager(memory.NewStore(), session.WithLogger(k.logger))
	}

	engineOpts := append([]runtime.EngineOption{
		runtime.WithLogger(k.logger),
		runtime.WithLifecycleHooks(k.hooks),
	}, k.engineOpts...)

	eng, err := runtime.NewEngine(groups, engineOpts...)
	if err != nil {
		return nil, err
	}
	k.engine = eng
	return k, nil
}

// Options returns the global option defaults.
func (k *Kernel) Options() domain.Options {
	return k.options
}

// Routes describes every reachable route of every group.
func (k *Kernel) Routes() ([]route.Info, error) {
	return k.engine.Inspect()
}

// Resolve resolves a path without executing it.
func (k *Kernel) Resolve(ctx context.Context, path, method string) (*runtime.Resolution, error) {
	return k.engine.Resolve(ctx, path, normalizeMethod(method), k.options)
}
