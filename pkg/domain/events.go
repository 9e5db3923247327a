package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRouteResolved EventType = "route_resolved"
	EventSliceEnter    EventType = "slice_enter"
	EventSliceLeave    EventType = "slice_leave"
	EventRewrite       EventType = "rewrite"
	EventResponse      EventType = "response"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RequestID string    `json:"request_id"`
}

// RouteEvent is emitted once a request path resolves to a route.
type RouteEvent struct {
	EventBase
	Group  string       `json:"group"`
	Route  string       `json:"route"`
	Method string       `json:"method"`
	Mode   ResponseMode `json:"mode"`
}

// SliceEvent represents entry into or exit from one slice of a chain.
type SliceEvent struct {
	EventBase
	Route      string        `json:"route"`
	Index      int           `json:"index"`
	Controller string        `json:"controller,omitempty"`
	ExitCode   int           `json:"exit_code"`
	Mapped     bool          `json:"mapped"`
	Duration   time.Duration `json:"duration,omitempty"`
}

// RewriteEvent is emitted when an exit state hands the chain to another route.
type RewriteEvent struct {
	EventBase
	From  string `json:"from"`
	To    string `json:"to"`
	Depth int    `json:"depth"`
}

// ResponseEvent is emitted after a request has been answered.
type ResponseEvent struct {
	EventBase
	Group    string        `json:"group"`
	Route    string        `json:"route"`
	Mode     ResponseMode  `json:"mode"`
	Status   int           `json:"status"`
	Duration time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for dispatch observability.
type LifecycleHooks struct {
	OnRouteResolved func(context.Context, *RouteEvent)
	OnSliceEnter    func(context.Context, *SliceEvent)
	OnSliceLeave    func(context.Context, *SliceEvent)
	OnRewrite       func(context.Context, *RewriteEvent)
	OnResponse      func(context.Context, *ResponseEvent)
}

// Merge returns hooks that call h first and then other for every event.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRouteResolved: chain(h.OnRouteResolved, other.OnRouteResolved),
		OnSliceEnter:    chain(h.OnSliceEnter, other.OnSliceEnter),
		OnSliceLeave:    chain(h.OnSliceLeave, other.OnSliceLeave),
		OnRewrite:       chain(h.OnRewrite, other.OnRewrite),
		OnResponse:      chain(h.OnResponse, other.OnResponse),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
