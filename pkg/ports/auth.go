package ports

import (
	"context"

	"github.com/aretw0/leynos/pkg/domain"
)

// Authenticator resolves the caller's identity from their session data.
type Authenticator interface {
	Identify(ctx context.Context, session MemoryStore) (domain.Identity, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, session MemoryStore) (domain.Identity, error)

func (f AuthenticatorFunc) Identify(ctx context.Context, session MemoryStore) (domain.Identity, error) {
	return f(ctx, session)
}
