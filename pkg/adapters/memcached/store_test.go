package memcached_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/leynos/pkg/adapters/memcached"
	"github.com/aretw0/leynos/pkg/ports"
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient mimics the memcache client semantics, including ErrCacheMiss.
type fakeClient struct {
	mu    sync.Mutex
	items map[string]*memcache.Item
	fail  error
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: make(map[string]*memcache.Item)}
}

func (f *fakeClient) Get(key string) (*memcache.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	item, ok := f.items[key]
	if !ok {
		return nil, memcache.ErrCacheMiss
	}
	return item, nil
}

func (f *fakeClient) Set(item *memcache.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.items[item.Key] = item
	return nil
}

func (f *fakeClient) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[key]; !ok {
		return memcache.ErrCacheMiss
	}
	delete(f.items, key)
	return nil
}

func TestMemcachedStore_Contract(t *testing.T) {
	ports.RunMemoryStoreContract(t, memcached.NewFromClient(newFakeClient()))
}

func TestMemcachedStore_PrefixAndTTL(t *testing.T) {
	client := newFakeClient()
	store := memcached.NewFromClient(client, memcached.WithPrefix("app:"), memcached.WithTTL(90*time.Second))

	require.NoError(t, store.Set(context.Background(), "k", "v"))

	item, ok := client.items["app:k"]
	require.True(t, ok)
	assert.Equal(t, int32(90), item.Expiration)
	assert.JSONEq(t, `{"t":"string","v":"v"}`, string(item.Value))
}

func TestMemcachedStore_HashesInvalidKeys(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	store := memcached.NewFromClient(client)

	long := strings.Repeat("k", 300)
	tests := []string{long, "with space", "tab\tkey"}
	for _, key := range tests {
		require.NoError(t, store.Set(ctx, key, key))
		v, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, key, v)
	}

	for k := range client.items {
		assert.LessOrEqual(t, len(k), 250)
		assert.True(t, strings.HasPrefix(k, memcached.DefaultPrefix+"sha256:"), k)
	}
	require.NoError(t, store.Delete(ctx, long))
	assert.Len(t, client.items, 2)
}

func TestMemcachedStore_BackendFailure(t *testing.T) {
	client := newFakeClient()
	client.fail = errors.New("connection refused")
	store := memcached.NewFromClient(client)

	_, _, err := store.Get(context.Background(), "k")
	assert.ErrorContains(t, err, "connection refused")
	assert.Error(t, store.Set(context.Background(), "k", 1))
}

func TestMemcachedStore_CanceledContext(t *testing.T) {
	store := memcached.NewFromClient(newFakeClient())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}
