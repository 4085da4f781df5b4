package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/pitstop/internal/runtime"
	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/graph"
	"github.com/aretw0/pitstop/pkg/guard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var (
	left  = domain.Outcome("left")
	right = domain.Outcome("right")
)

func step(role domain.Role, fn func(ctx context.Context, st *domain.State) error) graph.Node {
	if fn == nil {
		fn = func(context.Context, *domain.State) error { return nil }
	}
	return graph.NewNode(role, nil, fn)
}

// branching builds a -> (left: b | right: c), with the router reading DRPS.
func branching(t *testing.T, a graph.Node) *graph.Graph {
	t.Helper()
	r := graph.NewRouter("threshold", []domain.Outcome{left, right}, func(st *domain.State) (domain.Outcome, error) {
		if st.DRPS != nil && *st.DRPS > 80 {
			return left, nil
		}
		return right, nil
	})
	b := graph.New().Entry("a")
	b.Add("a", a).Branch(r, map[domain.Outcome]string{left: "b", right: "c"})
	b.Add("b", step(domain.RoleScheduling, nil)).Terminal()
	b.Add("c", step(domain.RoleCustomerEngagement, nil)).Terminal()
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func setDRPS(v int) graph.Node {
	return step(domain.RoleDiagnosis, func(_ context.Context, st *domain.State) error {
		st.DRPS = &v
		return nil
	})
}

func TestExecute_FollowsRouter(t *testing.T) {
	engine := runtime.NewEngine()

	st, failure := engine.Execute(context.Background(), branching(t, setDRPS(81)), domain.NewState("run-1"))
	require.Nil(t, failure)
	assert.Equal(t, []string{"a", "b"}, st.History)
	assert.Equal(t, domain.StatusCompleted, st.Status)
	assert.Equal(t, "b", st.CurrentNode)

	st, failure = engine.Execute(context.Background(), branching(t, setDRPS(80)), domain.NewState("run-2"))
	require.Nil(t, failure)
	assert.Equal(t, []string{"a", "c"}, st.History)
}

func TestExecute_HaltsOnNodeError(t *testing.T) {
	var ranAfter bool
	b := graph.New().Entry("a")
	b.Add("a", step(domain.RoleDiagnosis, func(_ context.Context, st *domain.State) error {
		return st.Require("a", domain.FieldVehicleID, domain.FieldAnomaly)
	})).Go("b")
	b.Add("b", step(domain.RoleScheduling, func(context.Context, *domain.State) error {
		ranAfter = true
		return nil
	}))
	g, err := b.Build()
	require.NoError(t, err)

	st, failure := runtime.NewEngine().Execute(context.Background(), g, domain.NewState("run-1"))
	require.NotNil(t, failure)
	assert.False(t, ranAfter, "no node runs after a failure")
	assert.Equal(t, "a", failure.Node)
	assert.Equal(t, "run-1", failure.RunID)
	assert.Equal(t, domain.KindUnmetPrecondition, failure.Kind)
	assert.False(t, failure.Configuration())
	assert.Equal(t, domain.StatusFailed, st.Status)
	assert.Equal(t, []string{"a"}, st.History)

	var unmet *domain.UnmetPrecondition
	require.True(t, errors.As(failure, &unmet))
	assert.Equal(t, []domain.Field{domain.FieldVehicleID, domain.FieldAnomaly}, unmet.Fields)
}

func TestExecute_RoutingFaultAtRuntime(t *testing.T) {
	r := graph.NewRouter("rogue", []domain.Outcome{left, right}, func(*domain.State) (domain.Outcome, error) {
		return "sideways", nil
	})
	b := graph.New().Entry("a")
	b.Add("a", step(domain.RoleDiagnosis, nil)).Branch(r, map[domain.Outcome]string{left: "b", right: "b"})
	b.Add("b", step(domain.RoleScheduling, nil))
	g, err := b.Build()
	require.NoError(t, err)

	_, failure := runtime.NewEngine().Execute(context.Background(), g, domain.NewState("run-1"))
	require.NotNil(t, failure)
	assert.Equal(t, domain.KindRoutingFault, failure.Kind)
	assert.True(t, failure.Configuration())
	assert.Contains(t, failure.Error(), "sideways")
}

func TestExecute_StepLimit(t *testing.T) {
	b := graph.New().Entry("a")
	b.Add("a", step(domain.RoleDataAnalysis, nil)).Go("b")
	b.Add("b", step(domain.RoleDiagnosis, nil)).Go("c")
	b.Add("c", step(domain.RoleFeedback, nil))
	g, err := b.Build()
	require.NoError(t, err)

	st, failure := runtime.NewEngine(runtime.WithMaxSteps(2)).Execute(context.Background(), g, domain.NewState("run-1"))
	require.NotNil(t, failure)
	assert.Equal(t, domain.KindStepLimit, failure.Kind)
	assert.ErrorIs(t, failure, domain.ErrStepLimit)
	assert.Equal(t, "c", failure.Node)
	assert.Equal(t, []string{"a", "b"}, st.History)

	// The default limit is the size of the graph.
	st, failure = runtime.NewEngine().Execute(context.Background(), g, domain.NewState("run-2"))
	require.Nil(t, failure)
	assert.Len(t, st.History, 3)
}

func TestExecute_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := graph.New().Entry("a")
	b.Add("a", step(domain.RoleDataAnalysis, func(context.Context, *domain.State) error {
		cancel()
		return nil
	})).Go("b")
	b.Add("b", step(domain.RoleDiagnosis, nil))
	g, err := b.Build()
	require.NoError(t, err)

	st, failure := runtime.NewEngine().Execute(ctx, g, domain.NewState("run-1"))
	require.NotNil(t, failure)
	assert.Equal(t, domain.KindCanceled, failure.Kind)
	assert.Equal(t, "b", failure.Node)
	assert.Equal(t, []string{"a"}, st.History)
}

func TestExecute_StampsRunAndNodeOnContext(t *testing.T) {
	type seen struct{ run, node string }
	var got []seen

	observe := func(ctx context.Context, _ *domain.State) error {
		got = append(got, seen{guard.RunIDFrom(ctx), guard.NodeFrom(ctx)})
		return nil
	}
	b := graph.New().Entry("a")
	b.Add("a", step(domain.RoleDataAnalysis, observe)).Go("b")
	b.Add("b", step(domain.RoleDiagnosis, observe))
	g, err := b.Build()
	require.NoError(t, err)

	_, failure := runtime.NewEngine().Execute(context.Background(), g, domain.NewState("run-7"))
	require.Nil(t, failure)
	assert.Equal(t, []seen{{"run-7", "a"}, {"run-7", "b"}}, got)
}

func TestExecute_LifecycleHooks(t *testing.T) {
	var entered, exited []string
	var routes []domain.RouteEvent
	var end *domain.RunEvent

	hooks := domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			entered = append(entered, e.NodeID)
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			exited = append(exited, e.NodeID)
		},
		OnRoute: func(_ context.Context, e *domain.RouteEvent) {
			routes = append(routes, *e)
		},
		OnRunEnd: func(_ context.Context, e *domain.RunEvent) {
			end = e
		},
	}

	engine := runtime.NewEngine(runtime.WithLifecycleHooks(hooks))
	_, failure := engine.Execute(context.Background(), branching(t, setDRPS(90)), domain.NewState("run-1"))
	require.Nil(t, failure)

	assert.Equal(t, []string{"a", "b"}, entered)
	assert.Equal(t, []string{"a", "b"}, exited)
	require.Len(t, routes, 1)
	assert.Equal(t, "a", routes[0].From)
	assert.Equal(t, left, routes[0].Outcome)
	assert.Equal(t, "b", routes[0].To)
	require.NotNil(t, end)
	assert.Equal(t, domain.StatusCompleted, end.Status)
	assert.Nil(t, end.Failure)
}

func TestExecute_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	boom := errors.New("boom")
	b := graph.New().Entry("a")
	b.Add("a", step(domain.RoleDataAnalysis, nil)).Go("b")
	b.Add("b", step(domain.RoleDiagnosis, func(context.Context, *domain.State) error { return boom }))
	g, err := b.Build()
	require.NoError(t, err)

	engine := runtime.NewEngine(runtime.WithTracer(provider.Tracer("test")))
	_, failure := engine.Execute(context.Background(), g, domain.NewState("run-1"))
	require.NotNil(t, failure)
	assert.Equal(t, domain.KindInternal, failure.Kind)

	spans := recorder.Ended()
	names := make([]string, len(spans))
	for i, s := range spans {
		names[i] = s.Name()
	}
	assert.Equal(t, []string{"workflow.node", "workflow.node", "workflow.run"}, names)
	assert.NotEmpty(t, spans[1].Events(), "failing node records the error")
}
