package middleware

import (
	"context"

	"github.com/aretw0/leynos/pkg/ports"
)

type namespaceMiddleware struct {
	next   ports.MemoryStore
	prefix string
}

// Namespace prefixes every key with ns. An empty ns returns the store unchanged.
// Each request builds its own wrapper, so the shared backend is never re-scoped.
func Namespace(ns string) Middleware {
	return func(next ports.MemoryStore) ports.MemoryStore {
		if ns == "" {
			return next
		}
		return &namespaceMiddleware{next: next, prefix: ns + ":"}
	}
}

func (m *namespaceMiddleware) Get(ctx context.Context, key string) (any, bool, error) {
	return m.next.Get(ctx, m.prefix+key)
}

func (m *namespaceMiddleware) Set(ctx context.Context, key string, value any) error {
	return m.next.Set(ctx, m.prefix+key, value)
}

func (m *namespaceMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, m.prefix+key)
}
