package cli

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/aretw0/leynos/pkg/adapters/file"
	"github.com/aretw0/leynos/pkg/adapters/memcached"
	"github.com/aretw0/leynos/pkg/adapters/memory"
	"github.com/aretw0/leynos/pkg/adapters/redis"
	"github.com/aretw0/leynos/pkg/config"
	"github.com/aretw0/leynos/pkg/ports"
)

// StoreFactory opens a memory store backend. The closer may be nil.
type StoreFactory func(cfg config.StoreConfig) (ports.MemoryStore, io.Closer, error)

var (
	backendsMu sync.RWMutex
	backends   = map[string]StoreFactory{
		config.BackendMemory:    openMemory,
		config.BackendRedis:     openRedis,
		config.BackendMemcached: openMemcached,
		config.BackendFile:      openFile,
	}
)

// RegisterStoreBackend makes a store backend available under name, replacing any previous one.
func RegisterStoreBackend(name string, f StoreFactory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = f
}

// StoreBackends lists the registered backend names.
func StoreBackends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// OpenStore opens the backend cfg names.
func OpenStore(cfg config.StoreConfig) (ports.MemoryStore, io.Closer, error) {
	backendsMu.RLock()
	f, ok := backends[cfg.Backend]
	backendsMu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	return f(cfg)
}

func openMemory(config.StoreConfig) (ports.MemoryStore, io.Closer, error) {
	return memory.NewStore(), nil, nil
}

func openFile(cfg config.StoreConfig) (ports.MemoryStore, io.Closer, error) {
	return file.New(cfg.Dir), nil, nil
}

func openRedis(cfg config.StoreConfig) (ports.MemoryStore, io.Closer, error) {
	var opts []redis.Option
	if cfg.Prefix != "" {
		opts = append(opts, redis.WithPrefix(cfg.Prefix))
	}
	if cfg.TTL > 0 {
		opts = append(opts, redis.WithTTL(cfg.TTL))
	}
	s := redis.New(cfg.Addr, cfg.Password, cfg.DB, opts...)
	return s, s, nil
}

func openMemcached(cfg config.StoreConfig) (ports.MemoryStore, io.Closer, error) {
	var opts []memcached.Option
	if cfg.Prefix != "" {
		opts = append(opts, memcached.WithPrefix(cfg.Prefix))
	}
	if cfg.TTL > 0 {
		opts = append(opts, memcached.WithTTL(cfg.TTL))
	}
	return memcached.New(cfg.Servers, opts...), nil, nil
}
