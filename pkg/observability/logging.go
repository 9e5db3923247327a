package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/leynos/pkg/domain"
)

// LoggingHooks returns lifecycle hooks writing one debug line per event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRouteResolved: func(ctx context.Context, e *domain.RouteEvent) {
			logger.DebugContext(ctx, "route_resolved",
				"request_id", e.RequestID,
				"group", e.Group,
				"route", e.Route,
				"mode", e.Mode,
			)
		},
		OnSliceEnter: func(ctx context.Context, e *domain.SliceEvent) {
			logger.DebugContext(ctx, "slice_enter",
				"request_id", e.RequestID,
				"route", e.Route,
				"slice", e.Index,
				"controller", e.Controller,
			)
		},
		OnSliceLeave: func(ctx context.Context, e *domain.SliceEvent) {
			logger.DebugContext(ctx, "slice_leave",
				"request_id", e.RequestID,
				"route", e.Route,
				"slice", e.Index,
				"exit_code", e.ExitCode,
				"mapped", e.Mapped,
				"duration", e.Duration,
			)
		},
		OnRewrite: func(ctx context.Context, e *domain.RewriteEvent) {
			logger.DebugContext(ctx, "rewrite",
				"request_id", e.RequestID,
				"from", e.From,
				"to", e.To,
				"depth", e.Depth,
			)
		},
		OnResponse: func(ctx context.Context, e *domain.ResponseEvent) {
			logger.InfoContext(ctx, "response",
				"request_id", e.RequestID,
				"group", e.Group,
				"route", e.Route,
				"status", e.Status,
				"duration", e.Duration,
			)
		},
	}
}
