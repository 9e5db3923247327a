package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/leynos"
	"github.com/aretw0/leynos/internal/compiler"
	"github.com/aretw0/leynos/internal/logging"
	"github.com/aretw0/leynos/pkg/adapters/redis"
	"github.com/aretw0/leynos/pkg/config"
	"github.com/aretw0/leynos/pkg/database"
	"github.com/aretw0/leynos/pkg/observability"
	"github.com/aretw0/leynos/pkg/persistence/middleware"
	"github.com/aretw0/leynos/pkg/ports"
	"github.com/aretw0/leynos/pkg/registry"
	"github.com/aretw0/leynos/pkg/session"
	"github.com/aretw0/leynos/pkg/view"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// lockPrefix namespaces distributed session locks.
const lockPrefix = "leynos:lock:"

// App is a kernel built from configuration together with the resources it owns.
type App struct {
	Kernel    *leynos.Kernel
	Config    *config.Config
	Metrics   *observability.Metrics
	Registry  *prometheus.Registry
	Sessions  *session.Manager
	Templates *view.Templates // nil without a templates directory
	Logger    *slog.Logger

	closers []io.Closer
}

// Close releases the store clients and database pools.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewLogger builds the application logger from the log settings.
func NewLogger(cfg config.LogConfig) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewFor(cfg.Format, level)
}

// Build validates cfg and assembles a kernel: store backend, sessions, databases,
// templates, compiled route groups and metrics. A nil controllers registry uses
// the built-in controllers.
func Build(cfg *config.Config, controllers *registry.Registry, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if controllers == nil {
		controllers = registry.Default()
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	app := &App{
		Config:   cfg,
		Metrics:  observability.NewMetrics(),
		Registry: prometheus.NewRegistry(),
		Logger:   logger,
	}
	fail := func(err error) (*App, error) {
		if cerr := app.Close(); cerr != nil {
			logger.Warn("cleanup after failed build", "err", cerr)
		}
		return nil, err
	}

	if err := app.Metrics.Register(app.Registry); err != nil {
		return fail(fmt.Errorf("register metrics: %w", err))
	}
	if err := app.Registry.Register(collectors.NewGoCollector()); err != nil {
		return fail(fmt.Errorf("register go collector: %w", err))
	}

	file, err := compiler.LoadFiles(cfg.Routing.Groups...)
	if err != nil {
		return fail(err)
	}
	groups, err := compiler.Compile(file, controllers)
	if err != nil {
		return fail(err)
	}

	store, closer, err := OpenStore(cfg.Store)
	if err != nil {
		return fail(err)
	}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}

	sessions, err := newSessions(cfg, store, logger)
	if err != nil {
		return fail(err)
	}
	app.Sessions = sessions

	loc, err := cfg.Location()
	if err != nil {
		return fail(err)
	}

	opts := []leynos.Option{
		leynos.WithLogger(logger),
		leynos.WithOptions(cfg.DomainOptions()),
		leynos.WithLifecycleHooks(app.Metrics.Hooks()),
		leynos.WithLifecycleHooks(observability.LoggingHooks(logger)),
		leynos.WithAuthenticator(session.Authenticator{}),
		leynos.WithSessions(sessions),
		leynos.WithStore(store),
		leynos.WithCacheNamespace(cfg.Store.Namespace),
		leynos.WithErrorTemplate(cfg.Templates.Error),
		leynos.WithDocumentRoot(cfg.DocumentRoot),
		leynos.WithLocation(loc),
		leynos.WithMaxRewriteDepth(cfg.Routing.MaxRewriteDepth),
	}
	if cfg.Routing.Pattern != "" {
		opts = append(opts, leynos.WithRoutingPattern(cfg.Routing.Pattern))
	}
	if cfg.Routing.RootRoute != "" {
		opts = append(opts, leynos.WithRootRoute(cfg.Routing.RootRoute))
	}

	if len(cfg.Databases) > 0 {
		dbs := database.NewRegistry(cfg.Databases, database.WithLogger(logger))
		app.closers = append(app.closers, dbs)
		opts = append(opts, leynos.WithDatabases(dbs))
	}

	if cfg.Templates.Dir != "" {
		tmpl, err := view.LoadTemplates(os.DirFS(cfg.Templates.Dir), ".")
		if err != nil {
			return fail(fmt.Errorf("load templates from %s: %w", cfg.Templates.Dir, err))
		}
		app.Templates = tmpl
		opts = append(opts, leynos.WithTemplates(tmpl))
	}

	k, err := leynos.New(groups, opts...)
	if err != nil {
		return fail(err)
	}
	app.Kernel = k
	return app, nil
}

// newSessions builds the session manager over the backend, encrypting values
// when a key is configured and locking through Redis when asked to.
func newSessions(cfg *config.Config, store ports.MemoryStore, logger *slog.Logger) (*session.Manager, error) {
	opts := []session.Option{
		session.WithPrefix(cfg.Session.Prefix),
		session.WithLockTTL(cfg.Session.LockTTL),
		session.WithLogger(logger),
	}

	if cfg.Session.DistributedLocks {
		rs, ok := store.(*redis.Store)
		if !ok {
			return nil, fmt.Errorf("distributed session locks need the redis backend, got %T", store)
		}
		opts = append(opts, session.WithLocker(redis.NewLocker(rs.Client(), lockPrefix)))
	}

	if cfg.Session.EncryptionKey != "" {
		active, fallback, err := cfg.SessionKeys()
		if err != nil {
			return nil, err
		}
		store = middleware.Chain(store, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}

	return session.NewManager(store, opts...), nil
}
