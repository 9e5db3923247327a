package middleware_test

import (
	"github.com/aretw0/leynos/pkg/adapters/memory"
)

// NewMockStore returns a plain in-memory store to sit under the middleware.
func NewMockStore() *memory.Store {
	return memory.NewStore()
}
