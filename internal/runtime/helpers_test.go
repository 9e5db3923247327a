package runtime_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/aretw0/leynos/internal/runtime"
	"github.com/aretw0/leynos/pkg/adapters/memory"
	"github.com/aretw0/leynos/pkg/controller"
	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/route"
	"github.com/stretchr/testify/require"
)

// returns builds a factory for a controller that sets outputs and returns code.
func returns(code int, outputs map[string]any) controller.Factory {
	return controller.Of(controller.Func(func(_ context.Context, x *controller.Exchange) (int, error) {
		x.SetAll(outputs)
		return code, nil
	}))
}

// capture builds a factory that records the inputs it was given.
func capture(into *map[string]any, code int) controller.Factory {
	return controller.Of(controller.Func(func(_ context.Context, x *controller.Exchange) (int, error) {
		*into = x.Inputs()
		return code, nil
	}))
}

func newStores() runtime.Stores {
	s := runtime.Stores{}
	for _, kind := range domain.StoreKinds {
		s[kind] = memory.NewStore()
	}
	return s
}

func newEngine(t *testing.T, groups map[string]route.GroupFactory, opts ...runtime.EngineOption) *runtime.Engine {
	t.Helper()
	eng, err := runtime.NewEngine(groups, opts...)
	require.NoError(t, err)
	return eng
}

// execute runs a single route outside of any group.
func execute(t *testing.T, eng *runtime.Engine, r *route.Route, stores runtime.Stores) *runtime.Outcome {
	t.Helper()
	out, err := eng.Execute(context.Background(), runtime.Execution{
		Route:  r,
		Method: http.MethodGet,
		Stores: stores,
	})
	require.NoError(t, err)
	return out
}
