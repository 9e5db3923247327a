/*
Package route holds the declarative dispatch model: Groups of Routes, each an ordered
chain of Slices.

Groups and routes are built once by a group factory and treated as read-only afterwards,
apart from option overrides which the group's own setup code may still adjust.

	g := route.NewGroup().
		Override(domain.OptionSessionRequired, false).
		Add(route.New("show",
			route.NewSlice(loadItem).
				StoreInput(domain.StoreRequest, route.Key("id")).
				Exit(domain.Render(domain.ExitSuccess, "item")),
		).Alias("view"))
*/
package route
