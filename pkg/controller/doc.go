/*
Package controller defines the unit of business logic a slice runs.

A Controller receives an Exchange holding its resolved inputs and the request's
collaborators, writes outputs and messages back to it, and returns an exit code.
Controllers are built fresh for every invocation by a Factory.

	hello := controller.Func(func(ctx context.Context, x *controller.Exchange) (int, error) {
		x.Set("greeting", "hello "+x.String("name"))
		return domain.ExitSuccess, nil
	})
*/
package controller
