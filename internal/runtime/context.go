package runtime

import "context"

type requestIDKey struct{}

// WithRequestID tags ctx with the request id reported in lifecycle events.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
