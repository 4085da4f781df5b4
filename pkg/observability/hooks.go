package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/pitstop/pkg/domain"
)

// LogHooks returns lifecycle hooks that write one structured line per event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter", "run_id", e.RunID, "node_id", e.NodeID, "role", e.Role)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "node_leave", "run_id", e.RunID, "node_id", e.NodeID, "duration", e.Duration, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "node_leave", "run_id", e.RunID, "node_id", e.NodeID, "duration", e.Duration)
		},
		OnRoute: func(ctx context.Context, e *domain.RouteEvent) {
			logger.InfoContext(ctx, "route", "run_id", e.RunID, "from", e.From, "outcome", e.Outcome, "to", e.To)
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			if e.Failure != nil {
				logger.ErrorContext(ctx, "run_end", "run_id", e.RunID, "status", e.Status,
					"node", e.Failure.Node, "kind", e.Failure.Kind, "err", e.Failure.Err)
				return
			}
			logger.InfoContext(ctx, "run_end", "run_id", e.RunID, "status", e.Status)
		},
	}
}

// Combine fans each event out to every hook set, in order. Nil callbacks are skipped.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnNodeEnter = chain(out.OnNodeEnter, h.OnNodeEnter)
		out.OnNodeLeave = chain(out.OnNodeLeave, h.OnNodeLeave)
		out.OnRoute = chain(out.OnRoute, h.OnRoute)
		out.OnRunEnd = chain(out.OnRunEnd, h.OnRunEnd)
	}
	return out
}

func chain[E any](first, next func(context.Context, E)) func(context.Context, E) {
	switch {
	case next == nil:
		return first
	case first == nil:
		return next
	}
	return func(ctx context.Context, e E) {
		first(ctx, e)
		next(ctx, e)
	}
}
