package pitstop

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/pitstop/internal/agents"
	"github.com/aretw0/pitstop/internal/runtime"
	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/graph"
	"github.com/aretw0/pitstop/pkg/guard"
	"github.com/aretw0/pitstop/pkg/observability"
	"github.com/aretw0/pitstop/pkg/policy"
	"github.com/aretw0/pitstop/pkg/ports"
	"github.com/aretw0/pitstop/pkg/session"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Engine is the high-level entry point for the pitstop library.
// It wires the policy, the guard, the standard workflow graph and the runtime.
// An Engine is safe for concurrent runs; each run owns its State.
type Engine struct {
	collaborators ports.Collaborators
	policy        *policy.Policy
	guard         *guard.Guard
	graph         *graph.Graph
	runtime       *runtime.Engine

	archive     ports.RunArchive
	locker      ports.DistributedLocker
	sessionTTL  time.Duration
	sessions    *session.Manager
	sinks       []guard.AuditSink
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	tracer      trace.Tracer
	maxSteps    int
	threshold   float64
	newRunID    func() string
	runtimeOpts []runtime.EngineOption
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithPolicy replaces the default tool access policy.
func WithPolicy(p *policy.Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithAuditSink adds a destination for invocation records. Sinks are called
// in registration order and must be safe for concurrent use.
func WithAuditSink(sink guard.AuditSink) Option {
	return func(e *Engine) {
		e.sinks = append(e.sinks, sink)
	}
}

// WithArchive saves the final state of every run. Archive errors are logged
// and never change the outcome of the run.
func WithArchive(archive ports.RunArchive) Option {
	return func(e *Engine) {
		e.archive = archive
	}
}

// WithLocker shares vehicle sessions with other replicas through locker.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithSessionTTL sets how long a vehicle session survives in the shared
// locker when its holder dies. It should exceed the longest run.
func WithSessionTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.sessionTTL = ttl
	}
}

// WithLogger sets a custom structured logger for the engine and its agents.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Hooks given by repeated
// calls are all invoked, in registration order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = observability.Combine(e.hooks, hooks)
	}
}

// WithTracer overrides the OpenTelemetry tracer of the runtime.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// WithMaxSteps caps the number of nodes a run may execute.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// WithThreshold overrides the brake fluid pressure below which telemetry is flagged.
func WithThreshold(psi float64) Option {
	return func(e *Engine) {
		e.threshold = psi
	}
}

// WithRunIDs sets the generator of run identifiers (default: random UUIDs).
func WithRunIDs(next func() string) Option {
	return func(e *Engine) {
		e.newRunID = next
	}
}

// New initializes a new Engine around the given collaborators.
func New(c ports.Collaborators, opts ...Option) (*Engine, error) {
	eng := &Engine{
		collaborators: c,
		newRunID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if eng.policy == nil {
		eng.policy = policy.Default()
	}

	sink := guard.LogSink(eng.logger)
	if len(eng.sinks) > 0 {
		sink = guard.MultiSink(append([]guard.AuditSink{sink}, eng.sinks...)...)
	}
	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	if eng.sessionTTL > 0 {
		sessionOpts = append(sessionOpts, session.WithTTL(eng.sessionTTL))
	}
	eng.sessions = session.NewManager(sessionOpts...)

	eng.guard = guard.New(eng.policy, guard.WithSink(sink), guard.WithLogger(eng.logger))

	g, err := eng.buildGraph(c)
	if err != nil {
		return nil, err
	}
	eng.graph = g

	eng.runtimeOpts = []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithMaxSteps(eng.maxSteps),
	}
	if eng.tracer != nil {
		eng.runtimeOpts = append(eng.runtimeOpts, runtime.WithTracer(eng.tracer))
	}
	eng.runtime = runtime.NewEngine(eng.runtimeOpts...)

	return eng, nil
}

func (e *Engine) buildGraph(c ports.Collaborators) (*graph.Graph, error) {
	tools, err := agents.NewToolbox(e.guard, c)
	if err != nil {
		return nil, fmt.Errorf("invalid collaborators: %w", err)
	}
	g, err := agents.Workflow(tools, agents.WithLogger(e.logger), agents.WithThreshold(e.threshold))
	if err != nil {
		return nil, fmt.Errorf("failed to build workflow: %w", err)
	}
	return g, nil
}

// Run executes the workflow from an empty state with a fresh run ID.
func (e *Engine) Run(ctx context.Context) (*domain.State, *domain.Failure) {
	return e.RunWithState(ctx, domain.NewState(e.newRunID()))
}

// RunWithState executes the workflow on a caller-provided state. A missing
// run ID is generated. The first flagged vehicle is resolved up front so the
// run holds its session like RunVehicle does.
func (e *Engine) RunWithState(ctx context.Context, st *domain.State) (*domain.State, *domain.Failure) {
	if st == nil {
		st = domain.NewState("")
	}
	if st.RunID == "" {
		st.RunID = e.newRunID()
	}
	rec, err := e.collaborators.Telemetry.FetchFlagged(ctx, e.thresholdPSI())
	if err == nil {
		return e.runPinned(ctx, st, pinned{TelemetrySource: e.collaborators.Telemetry, rec: &rec})
	}
	// Nothing to lock: data_analysis reports the same error through the guard.
	final, failure := e.runtime.Execute(ctx, e.graph, st)
	e.archiveRun(ctx, final)
	return final, failure
}

func (e *Engine) archiveRun(ctx context.Context, st *domain.State) {
	if e.archive == nil || st == nil {
		return
	}
	if err := e.archive.Save(context.WithoutCancel(ctx), st); err != nil {
		e.logger.Error("failed to archive run", "run_id", st.RunID, "error", err)
	}
}

// Graph returns the workflow graph.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Policy returns the tool access policy in force.
func (e *Engine) Policy() *policy.Policy {
	return e.policy
}
