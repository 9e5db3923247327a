package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunMemoryStoreContract runs a suite of tests to verify that a MemoryStore implementation
// adheres to the defined interface contract.
func RunMemoryStoreContract(t *testing.T, store MemoryStore) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405") + ":"

	t.Run("Set and Get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, prefix+"str", "bar"))
		require.NoError(t, store.Set(ctx, prefix+"map", map[string]any{"a": "b"}))

		v, ok, err := store.Get(ctx, prefix+"str")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "bar", v)

		v, ok, err = store.Get(ctx, prefix+"map")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, map[string]any{"a": "b"}, v)
	})

	t.Run("Types Survive", func(t *testing.T) {
		values := map[string]any{
			"int":     42,
			"int64":   int64(1) << 60,
			"float":   1.5,
			"strings": []string{"a", "b"},
			"map": map[string]any{
				"count": 3,
				"tags":  []string{"x"},
				"inner": map[string]any{"ok": true},
			},
		}
		for name, want := range values {
			require.NoError(t, store.Set(ctx, prefix+"typed:"+name, want))

			got, ok, err := store.Get(ctx, prefix+"typed:"+name)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, want, got, "value %q must read back with its Go type", name)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, prefix+"k", "one"))
		require.NoError(t, store.Set(ctx, prefix+"k", "two"))

		v, _, err := store.Get(ctx, prefix+"k")
		require.NoError(t, err)
		assert.Equal(t, "two", v)
	})

	t.Run("Get Missing", func(t *testing.T) {
		v, ok, err := store.Get(ctx, prefix+"missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("Nil Value", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, prefix+"nil", nil))

		v, ok, err := store.Get(ctx, prefix+"nil")
		require.NoError(t, err)
		assert.True(t, ok, "a stored nil is still present")
		assert.Nil(t, v)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, prefix+"del", true))
		require.NoError(t, store.Delete(ctx, prefix+"del"))

		_, ok, err := store.Get(ctx, prefix+"del")
		require.NoError(t, err)
		assert.False(t, ok, "Get after Delete should report absence")

		assert.NoError(t, store.Delete(ctx, prefix+"never-set"))
	})
}
