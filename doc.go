/*
Package leynos is a request dispatch engine for slice-based MVC applications.

A request path is resolved through a routing pattern to a group and a route. The route's
chain of slices then runs in order. Each slice wraps an optional controller with input and
output mappings and an exit-state table. An exit state either renders a template, redirects
the client, or rewrites the request internally to another route. The accumulated data is
finally handed to a renderer chosen by the format token of the path (html, json, csv...).

# Concepts

  - Group: a named set of routes, looked up by the first path segment.
  - Route: a method-scoped endpoint made of slices, with static inputs, a permission token
    and option overrides.
  - Slice: one controller invocation plus its bindings to the accumulator and the memory
    stores (request, session, local, global, volatile).
  - Exit state: maps a controller's exit code to render, redirect or rewrite.

# Usage

	groups := map[string]route.GroupFactory{
		"items": func() *route.Group {
			g := route.NewGroup()
			g.Add(route.New("list",
				route.NewSlice(controller.Of(listItems)).
					Exit(domain.Render(domain.ExitSuccess, "items/list")),
			))
			return g
		},
	}

	k, err := leynos.New(groups, leynos.WithTemplates(templates))
	if err != nil {
		log.Fatal(err)
	}

	rec := leynos.NewRecorder()
	res := k.Dispatch(ctx, &domain.Request{Path: "/items/list/json", Method: "GET"}, rec)

The HTTP adapter in pkg/adapters/http wraps the same Dispatch call behind a chi router.
*/
package leynos
