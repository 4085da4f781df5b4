package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/graph"
	"github.com/aretw0/pitstop/pkg/guard"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aretw0/pitstop/runtime"

// Engine is the core state machine runner. It holds no per-run state and can
// execute several runs concurrently, each with its own State.
type Engine struct {
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	tracer   trace.Tracer
	maxSteps int
	now      func() time.Time
}

// EngineOption defines a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithLogger configures the logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks configures the lifecycle hooks for the engine.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithTracer overrides the tracer used for run and node spans.
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// WithMaxSteps caps the number of nodes a run may execute.
// Zero or less means the number of nodes in the graph.
func WithMaxSteps(n int) EngineOption {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	return e
}

// Execute runs g from its entry node until a terminal node returns.
// On success the returned state has Status completed and the failure is nil.
// Otherwise the run stops at the first failing node and the partial state is
// returned along with a Failure describing where and why.
func (e *Engine) Execute(ctx context.Context, g *graph.Graph, st *domain.State) (*domain.State, *domain.Failure) {
	if st == nil {
		st = domain.NewState("")
	}
	if st.History == nil {
		st.History = []string{}
	}
	st.Status = domain.StatusActive

	ctx, span := e.tracer.Start(ctx, "workflow.run",
		trace.WithAttributes(
			attribute.String("run.id", st.RunID),
			attribute.String("graph.entry", g.Entry()),
		),
	)
	defer span.End()
	ctx = guard.WithRunID(ctx, st.RunID)

	limit := e.maxSteps
	if limit <= 0 {
		limit = g.Len()
	}

	e.logger.Info("run started", "run_id", st.RunID, "entry", g.Entry())

	current := g.Entry()
	for steps := 0; ; steps++ {
		if steps >= limit {
			return e.fail(ctx, span, st, current, fmt.Errorf("%w: %d nodes executed, next was '%s'", domain.ErrStepLimit, steps, current))
		}
		if err := ctx.Err(); err != nil {
			return e.fail(ctx, span, st, current, err)
		}

		node, ok := g.Node(current)
		if !ok {
			return e.fail(ctx, span, st, current, fmt.Errorf("node '%s' not found in graph", current))
		}

		if err := e.runNode(ctx, current, node, st); err != nil {
			return e.fail(ctx, span, st, current, err)
		}

		next, outcome, terminal, err := g.Next(current, st)
		if err != nil {
			return e.fail(ctx, span, st, current, err)
		}
		if terminal {
			break
		}

		e.logger.Debug("transition", "run_id", st.RunID, "from", current, "outcome", outcome, "to", next)
		if e.hooks.OnRoute != nil {
			e.hooks.OnRoute(ctx, &domain.RouteEvent{
				EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventRoute, RunID: st.RunID},
				From:      current,
				Outcome:   outcome,
				To:        next,
			})
		}
		current = next
	}

	st.Status = domain.StatusCompleted
	span.SetStatus(codes.Ok, "")
	e.logger.Info("run completed", "run_id", st.RunID, "history", st.History)
	e.emitRunEnd(ctx, st, nil)
	return st, nil
}

func (e *Engine) runNode(ctx context.Context, name string, node graph.Node, st *domain.State) error {
	st.CurrentNode = name
	st.History = append(st.History, name)

	nodeCtx, span := e.tracer.Start(ctx, "workflow.node",
		trace.WithAttributes(
			attribute.String("node.name", name),
			attribute.String("node.role", string(node.Role())),
		),
	)
	defer span.End()
	nodeCtx = guard.WithNode(nodeCtx, name)

	if e.hooks.OnNodeEnter != nil {
		e.hooks.OnNodeEnter(nodeCtx, &domain.NodeEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventNodeEnter, RunID: st.RunID},
			NodeID:    name,
			Role:      node.Role(),
		})
	}

	start := e.now()
	err := node.Run(nodeCtx, st)
	elapsed := e.now().Sub(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if e.hooks.OnNodeLeave != nil {
		e.hooks.OnNodeLeave(nodeCtx, &domain.NodeEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventNodeLeave, RunID: st.RunID},
			NodeID:    name,
			Role:      node.Role(),
			Duration:  elapsed,
			Err:       err,
		})
	}
	return err
}

func (e *Engine) fail(ctx context.Context, span trace.Span, st *domain.State, node string, err error) (*domain.State, *domain.Failure) {
	failure := domain.NewFailure(st.RunID, node, err)
	st.Status = domain.StatusFailed
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("failure.kind", string(failure.Kind)))
	e.logger.Error("run failed", "run_id", st.RunID, "node", node, "kind", failure.Kind, "err", err)
	e.emitRunEnd(ctx, st, failure)
	return st, failure
}

func (e *Engine) emitRunEnd(ctx context.Context, st *domain.State, failure *domain.Failure) {
	if e.hooks.OnRunEnd == nil {
		return
	}
	e.hooks.OnRunEnd(ctx, &domain.RunEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventRunEnd, RunID: st.RunID},
		Status:    st.Status,
		Failure:   failure,
	})
}
