package memcached

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/leynos/pkg/persistence/codec"
	"github.com/bradfitz/gomemcache/memcache"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "leynos:"

// maxKeyLen is the memcached protocol limit on key length.
const maxKeyLen = 250

// Client is the subset of *memcache.Client the store needs.
type Client interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Delete(key string) error
}

// Store implements ports.MemoryStore using Memcached. Values are stored with
// their Go types through the codec package.
type Store struct {
	client Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration applied on every write.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New connects to the given servers.
func New(servers []string, opts ...Option) *Store {
	return NewFromClient(memcache.New(servers...), opts...)
}

// NewFromClient wraps an existing client.
func NewFromClient(client Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// key applies the prefix. Keys the protocol would reject (too long, or with
// spaces or control characters) are replaced by a SHA-256 digest.
func (s *Store) key(k string) string {
	full := s.prefix + k
	if len(full) <= maxKeyLen && validKey(full) {
		return full
	}
	sum := sha256.Sum256([]byte(k))
	return s.prefix + "sha256:" + hex.EncodeToString(sum[:])
}

func validKey(k string) bool {
	for i := 0; i < len(k); i++ {
		if k[i] <= ' ' || k[i] == 0x7f {
			return false
		}
	}
	return true
}

// Get retrieves a value. The memcache protocol has no context support; ctx is only checked up front.
func (s *Store) Get(ctx context.Context, key string) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	item, err := s.client.Get(s.key(key))
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get from memcached: %w", err)
	}

	v, err := codec.Unmarshal(item.Value)
	if err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal value %q: %w", key, err)
	}
	return v, true, nil
}

// Set writes a value.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value %q: %w", key, err)
	}

	item := &memcache.Item{
		Key:        s.key(key),
		Value:      data,
		Expiration: int32(s.ttl / time.Second),
	}
	if err := s.client.Set(item); err != nil {
		return fmt.Errorf("failed to save to memcached: %w", err)
	}
	return nil
}

// Delete removes a key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.client.Delete(s.key(key)); err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return fmt.Errorf("failed to delete from memcached: %w", err)
	}
	return nil
}
