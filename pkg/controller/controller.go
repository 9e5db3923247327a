package controller

import (
	"context"
	"fmt"

	"github.com/aretw0/leynos/pkg/domain"
)

// Controller is a unit of business logic run by a slice.
// Returning an error aborts the request; the engine does not retry.
type Controller interface {
	Main(ctx context.Context, x *Exchange) (int, error)
}

// Func adapts a function to Controller.
type Func func(ctx context.Context, x *Exchange) (int, error)

func (f Func) Main(ctx context.Context, x *Exchange) (int, error) {
	return f(ctx, x)
}

// Factory builds a fresh controller for one invocation.
type Factory func() Controller

// Of returns a factory that always hands out c. Only stateless controllers should be shared this way.
func Of(c Controller) Factory {
	return func() Controller { return c }
}

// Fail builds the error a controller returns to abort with a user-visible failure message.
func Fail(format string, args ...any) error {
	return &domain.ControllerFailureError{Message: fmt.Sprintf(format, args...)}
}

// Name returns a printable name for a controller instance.
func Name(c Controller) string {
	if n, ok := c.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", c)
}
