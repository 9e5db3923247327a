package runtime

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"

	"github.com/aretw0/leynos/internal/logging"
	"github.com/aretw0/leynos/pkg/adapters/memory"
	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/ports"
	"github.com/aretw0/leynos/pkg/route"
)

const (
	// DefaultPattern matches /group/route with an optional /format suffix and query string.
	DefaultPattern = `^/([\w-]+)/([\w-]+)(?:/(\w+))?/?(?:\?.*)?$`

	// DefaultRootMarker is the path rewritten to the root route.
	DefaultRootMarker = "/"

	// DefaultMaxRewriteDepth bounds chains of internal rewrites.
	DefaultMaxRewriteDepth = 8

	// GroupCachePrefix prefixes group cache keys.
	GroupCachePrefix = "route_group_cache:"
)

// Engine resolves request paths to routes and executes their slice chains.
// It is safe for concurrent use once built.
type Engine struct {
	groups          map[string]route.GroupFactory
	pattern         *regexp.Regexp
	rootMarker      string
	rootRoute       string
	cache           ports.MemoryStore
	hooks           domain.LifecycleHooks
	logger          *slog.Logger
	maxRewriteDepth int
}

// EngineOption configures the Engine.
type EngineOption func(*Engine) error

// WithPattern sets the routing pattern. Named groups "group", "route" and "format"
// are used when present, otherwise the first three positional groups.
func WithPattern(pattern string) EngineOption {
	return func(e *Engine) error {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid routing pattern: %w", err)
		}
		if re.NumSubexp() < 2 {
			return fmt.Errorf("routing pattern %q needs at least group and route captures", pattern)
		}
		e.pattern = re
		return nil
	}
}

// WithRootRoute rewrites requests for marker (the site index) to path before matching.
func WithRootRoute(marker, path string) EngineOption {
	return func(e *Engine) error {
		e.rootMarker = marker
		e.rootRoute = path
		return nil
	}
}

// WithGroupCache sets the in-process store holding built groups.
func WithGroupCache(store ports.MemoryStore) EngineOption {
	return func(e *Engine) error {
		e.cache = store
		return nil
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) error {
		e.hooks = hooks
		return nil
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) error {
		if logger != nil {
			e.logger = logger
		}
		return nil
	}
}

// WithMaxRewriteDepth bounds nested rewrites. Values below 1 disable rewrites entirely.
func WithMaxRewriteDepth(n int) EngineOption {
	return func(e *Engine) error {
		e.maxRewriteDepth = n
		return nil
	}
}

// NewEngine creates an engine over the routing map (group name to factory).
func NewEngine(groups map[string]route.GroupFactory, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		groups:          make(map[string]route.GroupFactory, len(groups)),
		pattern:         regexp.MustCompile(DefaultPattern),
		rootMarker:      DefaultRootMarker,
		cache:           memory.NewStore(),
		logger:          logging.NewNop(),
		maxRewriteDepth: DefaultMaxRewriteDepth,
	}
	for name, f := range groups {
		e.groups[name] = f
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// GroupNames lists the routing map keys in sorted order.
func (e *Engine) GroupNames() []string {
	names := make([]string, 0, len(e.groups))
	for name := range e.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Inspect builds every group fresh and describes its routes.
func (e *Engine) Inspect() ([]route.Info, error) {
	var infos []route.Info
	for _, name := range e.GroupNames() {
		g, err := build(name, e.groups[name])
		if err != nil {
			return nil, err
		}
		infos = append(infos, route.Describe(name, g)...)
	}
	return infos, nil
}

// Pattern returns the compiled routing pattern.
func (e *Engine) Pattern() *regexp.Regexp {
	return e.pattern
}
