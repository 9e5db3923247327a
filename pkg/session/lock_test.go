package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/leynos/pkg/adapters/memory"
	"github.com/stretchr/testify/assert"
)

func TestManager_LocksAreReleased(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := fmt.Sprintf("session-%d", i%5)
			for j := 0; j < 100; j++ {
				_ = mgr.WithLock(ctx, sid, func(context.Context) error { return nil })
			}
		}(i)
	}
	wg.Wait()

	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	assert.Empty(t, mgr.locks, "every lock entry is dropped once its last holder leaves")
}
