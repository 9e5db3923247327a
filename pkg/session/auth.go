package session

import (
	"context"
	"fmt"

	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/ports"
)

// Authenticator identifies callers from their session: a non-empty
// domain.KeyUser marks the caller as authenticated and domain.KeyGrants lists
// the permission tokens granted to them.
type Authenticator struct{}

var _ ports.Authenticator = Authenticator{}

// Identify implements ports.Authenticator.
func (Authenticator) Identify(ctx context.Context, sess ports.MemoryStore) (domain.Identity, error) {
	v, ok, err := sess.Get(ctx, domain.KeyUser)
	if err != nil {
		return domain.Identity{}, err
	}
	user, _ := v.(string)
	if !ok || user == "" {
		return domain.Anonymous(), nil
	}

	id := domain.Identity{
		Authenticated: true,
		Permissions:   domain.NewPermissionSet(),
		Namespace:     "user:" + user,
	}

	grants, ok, err := sess.Get(ctx, domain.KeyGrants)
	if err != nil || !ok {
		return id, err
	}
	switch g := grants.(type) {
	case []string:
		for _, t := range g {
			id.Permissions.Enable(t)
		}
	case []any:
		for _, t := range g {
			s, ok := t.(string)
			if !ok {
				return domain.Identity{}, fmt.Errorf("grant %v is not a string", t)
			}
			id.Permissions.Enable(s)
		}
	case string:
		id.Permissions.Enable(g)
	default:
		return domain.Identity{}, fmt.Errorf("unexpected grants type %T", grants)
	}
	return id, nil
}
