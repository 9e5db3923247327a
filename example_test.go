package leynos_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/leynos"
	"github.com/aretw0/leynos/pkg/controller"
	"github.com/aretw0/leynos/pkg/domain"
	"github.com/aretw0/leynos/pkg/route"
)

// ExampleNew builds a kernel from Go values and dispatches one JSON request
// without any HTTP server.
func ExampleNew() {
	greet := controller.Of(controller.Func(func(_ context.Context, x *controller.Exchange) (int, error) {
		x.Set("greeting", "Hello, "+x.String("name")+"!")
		return domain.ExitSuccess, nil
	}))

	site := func() *route.Group {
		return route.NewGroup().Add(
			route.New("greet", route.NewSlice(greet).StoreInput(domain.StoreRequest, route.Key("name"))),
		)
	}

	opts := domain.DefaultOptions()
	opts.SessionRequired = false

	k, err := leynos.New(map[string]route.GroupFactory{"site": site}, leynos.WithOptions(opts))
	if err != nil {
		log.Fatal(err)
	}

	rec := leynos.NewRecorder()
	k.Dispatch(context.Background(), &domain.Request{
		Path:   "/site/greet/json",
		Method: "GET",
		Params: map[string]any{"name": "gopher"},
	}, rec)

	fmt.Println(rec.Code, rec.Type)
	fmt.Println(rec.String())
	// Output:
	// 200 application/json
	// {"greeting":"Hello, gopher!"}
}

// ExampleKernel_Resolve maps a path through a route alias.
func ExampleKernel_Resolve() {
	noop := controller.Of(controller.Func(func(context.Context, *controller.Exchange) (int, error) {
		return domain.ExitSuccess, nil
	}))
	shop := func() *route.Group {
		return route.NewGroup().Add(route.New("cart", route.NewSlice(noop)).Alias("basket"))
	}

	k, err := leynos.New(map[string]route.GroupFactory{"shop": shop})
	if err != nil {
		log.Fatal(err)
	}

	res, err := k.Resolve(context.Background(), "/shop/basket/csv", "GET")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.GroupName, res.RouteName, res.Route.Name(), res.Mode)
	// Output:
	// shop basket cart csv
}
