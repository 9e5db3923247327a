package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMalformedRequest is returned when a path does not match the routing pattern.
	ErrMalformedRequest = errors.New("malformed request")

	// ErrUndefinedGroup is returned when the routing map has no group of the requested name.
	ErrUndefinedGroup = errors.New("undefined group")

	// ErrUndefinedRoute is returned when a group has neither the route nor a default route for the method.
	ErrUndefinedRoute = errors.New("undefined route")

	// ErrLoginRouteMissing is returned when a session is required but no login route is configured.
	ErrLoginRouteMissing = errors.New("session required but no login route configured")

	// ErrRewriteLoop is returned when internal rewrites exceed the configured depth.
	ErrRewriteLoop = errors.New("rewrite depth exceeded")

	// ErrRewriteTarget is returned when a rewrite exit names a path that does not
	// resolve. It is a route configuration fault, not a client error.
	ErrRewriteTarget = errors.New("rewrite target does not resolve")

	// ErrSessionNotFound is returned when a session ID cannot be found in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrDatabaseDisabled is returned when a controller asks for a connection
	// on a route that does not connect to databases.
	ErrDatabaseDisabled = errors.New("database connections disabled for this route")
)

// RoutingError reports a request that could not be resolved to a route.
type RoutingError struct {
	Path string
	Err  error
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("routing %q: %v", e.Path, e.Err)
}

func (e *RoutingError) Unwrap() error { return e.Err }

// UnauthorizedError reports a caller lacking the route's permission token.
type UnauthorizedError struct {
	Token string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized action: missing permission %q", e.Token)
}

// ControllerFailureError reports a chain that ended in failure with nothing to show.
type ControllerFailureError struct {
	Message string
}

func (e *ControllerFailureError) Error() string {
	return e.Message
}

// StatusOf maps an error to the HTTP status it surfaces as.
func StatusOf(err error) int {
	var routing *RoutingError
	var unauthorized *UnauthorizedError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &routing):
		return http.StatusNotFound
	case errors.As(err, &unauthorized):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text safe to show the caller for an error.
func PublicMessage(err error) string {
	var routing *RoutingError
	var unauthorized *UnauthorizedError
	var failure *ControllerFailureError
	switch {
	case errors.As(err, &routing):
		return "Not found."
	case errors.As(err, &unauthorized):
		return "You are not authorized to perform this action."
	case errors.As(err, &failure):
		return failure.Message
	default:
		return "Internal server error."
	}
}
