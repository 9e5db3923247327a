// Package config loads the application configuration from YAML with environment overrides.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/aretw0/leynos/pkg/database"
	"github.com/aretw0/leynos/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LEYNOS_"

// Store backends.
const (
	BackendMemory    = "memory"
	BackendRedis     = "redis"
	BackendMemcached = "memcached"
	BackendFile      = "file"
)

// Config is the full application configuration.
type Config struct {
	Log       LogConfig                    `mapstructure:"log"`
	HTTP      HTTPConfig                   `mapstructure:"http"`
	Routing   RoutingConfig                `mapstructure:"routing"`
	Options   OptionsConfig                `mapstructure:"options"`
	Store     StoreConfig                  `mapstructure:"store"`
	Session   SessionConfig                `mapstructure:"session"`
	Databases map[string]database.Settings `mapstructure:"databases"`
	Templates TemplatesConfig              `mapstructure:"templates"`

	DocumentRoot string `mapstructure:"document_root"`
	Timezone     string `mapstructure:"timezone"`
}

// LogConfig selects the log level and format (text or json).
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// HTTPConfig configures the HTTP surface.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	SessionCookie   string        `mapstructure:"session_cookie"`
	SecureCookie    bool          `mapstructure:"secure_cookie"`
}

// RoutingConfig configures path resolution and the route definition files.
type RoutingConfig struct {
	Pattern         string   `mapstructure:"pattern"`
	RootRoute       string   `mapstructure:"root_route"`
	MaxRewriteDepth int      `mapstructure:"max_rewrite_depth"`
	Groups          []string `mapstructure:"groups"`
}

// OptionsConfig holds the global option defaults.
type OptionsConfig struct {
	ConnectDatabase      bool   `mapstructure:"connect_database"`
	SessionRequired      bool   `mapstructure:"session_required"`
	EnableTemplateEngine bool   `mapstructure:"enable_template_engine"`
	RoutingCache         bool   `mapstructure:"routing_cache"`
	LoginRoute           string `mapstructure:"login_route"`
}

// StoreConfig selects the memory store backend behind the local, global and session stores.
type StoreConfig struct {
	Backend   string        `mapstructure:"backend"`
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	Servers   []string      `mapstructure:"servers"`
	Dir       string        `mapstructure:"dir"`
	Prefix    string        `mapstructure:"prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
	Namespace string        `mapstructure:"namespace"`
}

// SessionConfig configures session persistence.
type SessionConfig struct {
	Prefix           string        `mapstructure:"prefix"`
	LockTTL          time.Duration `mapstructure:"lock_ttl"`
	DistributedLocks bool          `mapstructure:"distributed_locks"`

	// EncryptionKey is a base64 AES key (16, 24 or 32 bytes). Empty disables encryption.
	EncryptionKey string   `mapstructure:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys"`
}

// TemplatesConfig locates the HTML templates.
type TemplatesConfig struct {
	Dir   string `mapstructure:"dir"`
	Error string `mapstructure:"error"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	opts := domain.DefaultOptions()
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    10 << 20,
			SessionCookie:   "leynos_session",
		},
		Routing: RoutingConfig{
			MaxRewriteDepth: 8,
		},
		Options: OptionsConfig{
			ConnectDatabase:      opts.ConnectDatabase,
			SessionRequired:      opts.SessionRequired,
			EnableTemplateEngine: opts.EnableTemplateEngine,
			RoutingCache:         opts.RoutingCache,
		},
		Store: StoreConfig{
			Backend:   BackendMemory,
			Namespace: "leynos",
		},
		Session: SessionConfig{
			Prefix:  "session:",
			LockTTL: 30 * time.Second,
		},
		Templates: TemplatesConfig{Error: "error"},
		Timezone:  "UTC",
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. An empty path loads the defaults only. Relative group and template
// paths are resolved against the file's directory.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := Decode(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		cfg.resolvePaths(filepath.Dir(path))
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode decodes YAML into cfg. Keys absent from the document keep their current value.
func Decode(raw []byte, cfg *Config) error {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(doc)
}

func (c *Config) resolvePaths(dir string) {
	for i, g := range c.Routing.Groups {
		if !filepath.IsAbs(g) {
			c.Routing.Groups[i] = filepath.Join(dir, g)
		}
	}
	if c.Templates.Dir != "" && !filepath.IsAbs(c.Templates.Dir) {
		c.Templates.Dir = filepath.Join(dir, c.Templates.Dir)
	}
	if c.Store.Dir != "" && !filepath.IsAbs(c.Store.Dir) {
		c.Store.Dir = filepath.Join(dir, c.Store.Dir)
	}
}

// applyEnv applies LEYNOS_* overrides.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"LOG_LEVEL":      &c.Log.Level,
		"LOG_FORMAT":     &c.Log.Format,
		"HTTP_ADDR":      &c.HTTP.Addr,
		"METRICS_ADDR":   &c.HTTP.MetricsAddr,
		"STORE_BACKEND":  &c.Store.Backend,
		"STORE_ADDR":     &c.Store.Addr,
		"STORE_PASSWORD": &c.Store.Password,
		"STORE_DIR":      &c.Store.Dir,
		"SESSION_KEY":    &c.Session.EncryptionKey,
		"TIMEZONE":       &c.Timezone,
	}
	for name, dst := range str {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	if v, ok := lookup(EnvPrefix + "STORE_SERVERS"); ok {
		c.Store.Servers = strings.Split(v, ",")
	}
	if v, ok := lookup(EnvPrefix + "STORE_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sSTORE_DB: %w", EnvPrefix, err)
		}
		c.Store.DB = n
	}
	return nil
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.Routing.Pattern != "" {
		if _, err := regexp.Compile(c.Routing.Pattern); err != nil {
			return fmt.Errorf("routing.pattern: %w", err)
		}
	}
	if c.Routing.MaxRewriteDepth < 0 {
		return fmt.Errorf("routing.max_rewrite_depth must not be negative")
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Store.Addr == "" {
			return fmt.Errorf("store.addr is required for the redis backend")
		}
	case BackendMemcached:
		if len(c.Store.Servers) == 0 {
			return fmt.Errorf("store.servers is required for the memcached backend")
		}
	case BackendFile:
		if c.Store.Dir == "" {
			return fmt.Errorf("store.dir is required for the file backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if c.Session.DistributedLocks && c.Store.Backend != BackendRedis {
		return fmt.Errorf("session.distributed_locks needs the redis backend")
	}
	if c.Session.EncryptionKey != "" {
		if _, _, err := c.SessionKeys(); err != nil {
			return err
		}
	}

	for alias, db := range c.Databases {
		if db.Driver == "" {
			return fmt.Errorf("databases.%s: driver is required", alias)
		}
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// DomainOptions returns the global option defaults.
func (c *Config) DomainOptions() domain.Options {
	return domain.Options{
		ConnectDatabase:      c.Options.ConnectDatabase,
		SessionRequired:      c.Options.SessionRequired,
		EnableTemplateEngine: c.Options.EnableTemplateEngine,
		RoutingCache:         c.Options.RoutingCache,
		LoginRoute:           c.Options.LoginRoute,
	}
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

// SessionKeys decodes the session encryption keys.
func (c *Config) SessionKeys() (active []byte, fallback [][]byte, err error) {
	active, err = decodeKey(c.Session.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("session.encryption_key: %w", err)
	}
	for i, k := range c.Session.FallbackKeys {
		fk, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("session.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, fk)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	}
	return nil, fmt.Errorf("key must be 16, 24 or 32 bytes, got %d", len(key))
}
