package ports

import "context"

// MemoryStore is a key/value store consumed by the dispatch engine.
// Values read back with the Go type they were written with.
type MemoryStore interface {
	// Get retrieves a value. The boolean is false when the key is absent.
	Get(ctx context.Context, key string) (any, bool, error)

	// Set writes a value, replacing any previous one.
	Set(ctx context.Context, key string, value any) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
