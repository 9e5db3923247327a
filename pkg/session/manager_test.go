package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/leynos/pkg/adapters/memory"
	"github.com/aretw0/leynos/pkg/adapters/redis"
	"github.com/aretw0/leynos/pkg/session"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
	mu       sync.Mutex
	inflight int
	overlap  bool
}

func (s *SlowStore) Set(ctx context.Context, key string, value any) error {
	s.mu.Lock()
	s.inflight++
	if s.inflight > 1 {
		s.overlap = true
	}
	s.mu.Unlock()

	time.Sleep(5 * time.Millisecond) // Simulate IO

	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
	return s.Store.Set(ctx, key, value)
}

func TestManager_NewSession(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	for _, id := range []string{"", "not-a-uuid", uuid.NewString()} {
		sess, err := manager.Load(ctx, id)
		require.NoError(t, err)
		assert.True(t, sess.IsNew())
		assert.NotEqual(t, id, sess.ID(), "unknown ids are never adopted")
		_, err = uuid.Parse(sess.ID())
		assert.NoError(t, err)
	}
}

func TestManager_SaveAndLoad(t *testing.T) {
	store := memory.NewStore()
	manager := session.NewManager(store)
	ctx := context.Background()

	sess, err := manager.Load(ctx, "")
	require.NoError(t, err)
	require.NoError(t, sess.Set(ctx, "user", "ada"))
	assert.True(t, sess.Dirty())

	require.NoError(t, manager.Save(ctx, sess))
	assert.False(t, sess.Dirty())
	assert.Equal(t, []string{session.DefaultPrefix + sess.ID()}, store.Keys(""))

	loaded, err := manager.Load(ctx, sess.ID())
	require.NoError(t, err)
	assert.False(t, loaded.IsNew())
	v, ok, _ := loaded.Get(ctx, "user")
	assert.True(t, ok)
	assert.Equal(t, "ada", v)

	require.NoError(t, manager.Delete(ctx, sess.ID()))
	assert.Empty(t, store.Keys(""))
}

func TestManager_CleanSessionIsNotWritten(t *testing.T) {
	store := memory.NewStore()
	manager := session.NewManager(store)
	ctx := context.Background()

	sess, err := manager.Load(ctx, "")
	require.NoError(t, err)
	require.NoError(t, manager.Save(ctx, sess))
	assert.Empty(t, store.Keys(""))
}

func TestManager_CorruptSession(t *testing.T) {
	store := memory.NewStore()
	id := uuid.NewString()
	require.NoError(t, store.Set(context.Background(), session.DefaultPrefix+id, "garbage"))

	_, err := session.NewManager(store).Load(context.Background(), id)
	assert.Error(t, err)
}

func TestManager_Locking(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &SlowStore{Store: memory.NewStore()}
	manager := session.NewManager(store)
	ctx := context.Background()

	sess, err := manager.Load(ctx, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(val int) {
			defer wg.Done()
			_ = sess.Set(ctx, "n", val)
			assert.NoError(t, manager.WithLock(ctx, sess.ID(), func(ctx context.Context) error {
				return store.Set(ctx, session.DefaultPrefix+sess.ID(), sess.Data())
			}))
		}(i)
	}
	wg.Wait()

	assert.False(t, store.overlap, "writes for one session must be serialized")
}

func TestManager_DistributedLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	store := redis.NewFromClient(client)
	manager := session.NewManager(store,
		session.WithLocker(redis.NewLocker(client, "test:")),
		session.WithLockTTL(time.Second),
	)
	ctx := context.Background()

	sess, err := manager.Load(ctx, "")
	require.NoError(t, err)
	require.NoError(t, sess.Set(ctx, "cart", []any{"apple"}))
	require.NoError(t, manager.Save(ctx, sess))

	assert.False(t, mr.Exists("test:lock:"+sess.ID()), "lock released after save")
	assert.True(t, mr.Exists(redis.DefaultPrefix+session.DefaultPrefix+sess.ID()))

	loaded, err := manager.Load(ctx, sess.ID())
	require.NoError(t, err)
	v, _, _ := loaded.Get(ctx, "cart")
	assert.Equal(t, []any{"apple"}, v)
}
