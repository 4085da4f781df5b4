package guard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/pitstop/pkg/domain"
)

// Permitter is the read-only view of a policy the guard needs.
type Permitter interface {
	Permits(role domain.Role, capability domain.Capability) bool
}

// Call identifies one capability attempt.
type Call struct {
	Role       domain.Role
	Capability domain.Capability
}

// Func performs the actual external effect behind a capability.
type Func[T any] func(ctx context.Context) (T, error)

// Result is the typed outcome of Attempt.
type Result[T any] struct {
	Value  T
	Denied *domain.PolicyViolation
}

// Allowed reports whether the call passed the policy check.
func (r Result[T]) Allowed() bool { return r.Denied == nil }

// Guard checks calls against a policy and audits them.
type Guard struct {
	policy Permitter
	sink   AuditSink
	now    func() time.Time
	logger *slog.Logger
}

// Option defines a functional option for configuring the Guard.
type Option func(*Guard)

// WithSink sets where audit records go. Multiple sinks can be combined with MultiSink.
func WithSink(sink AuditSink) Option {
	return func(g *Guard) {
		g.sink = sink
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

// WithLogger sets the logger used for internal debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// New creates a Guard enforcing p. A nil policy denies everything.
func New(p Permitter, opts ...Option) *Guard {
	g := &Guard{
		policy: p,
		sink:   Discard,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) permits(call Call) bool {
	if g.policy == nil {
		return false
	}
	return g.policy.Permits(call.Role, call.Capability)
}

// Attempt runs fn if call is permitted. A denial is reported through
// Result.Denied with a nil error; fn is not executed in that case. The
// returned error only carries failures of fn, wrapped as
// *domain.CapabilityFailure.
func Attempt[T any](ctx context.Context, g *Guard, call Call, fn Func[T]) (Result[T], error) {
	start := g.now()
	rec := domain.InvocationRecord{
		RunID:      RunIDFrom(ctx),
		Node:       NodeFrom(ctx),
		Role:       call.Role,
		Capability: call.Capability,
		Timestamp:  start,
	}

	if !g.permits(call) {
		rec.Outcome = domain.InvocationDenied
		g.sink.Record(ctx, rec)
		return Result[T]{Denied: &domain.PolicyViolation{Role: call.Role, Capability: call.Capability}}, nil
	}

	g.logger.DebugContext(ctx, "capability call", "role", call.Role, "capability", call.Capability)
	value, err := fn(ctx)

	rec.Outcome = domain.InvocationAllowed
	rec.Duration = g.now().Sub(start)
	if err != nil {
		rec.Err = err.Error()
	}
	g.sink.Record(ctx, rec)

	if err != nil {
		var zero T
		return Result[T]{Value: zero}, wrapFailure(call.Capability, err)
	}
	return Result[T]{Value: value}, nil
}

// Invoke runs fn if call is permitted and fails with *domain.PolicyViolation
// otherwise. The result of fn is returned unchanged.
func Invoke[T any](ctx context.Context, g *Guard, call Call, fn Func[T]) (T, error) {
	res, err := Attempt(ctx, g, call, fn)
	if err != nil {
		return res.Value, err
	}
	if res.Denied != nil {
		return res.Value, res.Denied
	}
	return res.Value, nil
}

// Do is Invoke for capabilities that produce no value.
func Do(ctx context.Context, g *Guard, call Call, fn func(ctx context.Context) error) error {
	_, err := Invoke(ctx, g, call, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func wrapFailure(c domain.Capability, err error) error {
	if errors.Is(err, domain.ErrCapabilityFailure) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &domain.CapabilityFailure{Capability: c, Err: err}
}
