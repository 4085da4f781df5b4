package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/guard"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of a pitstop process.
type Metrics struct {
	nodeVisits   *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	nodeErrors   *prometheus.CounterVec
	routes       *prometheus.CounterVec
	runs         *prometheus.CounterVec
	invocations  *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		nodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pitstop_node_visits_total",
				Help: "Total number of node visits",
			},
			[]string{"node", "role"},
		),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pitstop_node_duration_seconds",
				Help:    "Node execution time in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"node"},
		),
		nodeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pitstop_node_errors_total",
				Help: "Total number of node executions that returned an error",
			},
			[]string{"node"},
		),
		routes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pitstop_route_decisions_total",
				Help: "Total number of transitions taken by source node and outcome",
			},
			[]string{"from", "outcome", "to"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pitstop_runs_total",
				Help: "Total number of finished runs by status and failure kind",
			},
			[]string{"status", "kind"},
		),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pitstop_capability_invocations_total",
				Help: "Total number of capability attempts by role, capability and guard outcome",
			},
			[]string{"role", "capability", "outcome"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.nodeVisits,
		m.nodeDuration,
		m.nodeErrors,
		m.routes,
		m.runs,
		m.invocations,
	)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns engine lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeVisits.WithLabelValues(e.NodeID, string(e.Role)).Inc()
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeDuration.WithLabelValues(e.NodeID).Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.nodeErrors.WithLabelValues(e.NodeID).Inc()
			}
		},
		OnRoute: func(_ context.Context, e *domain.RouteEvent) {
			m.routes.WithLabelValues(e.From, string(e.Outcome), e.To).Inc()
		},
		OnRunEnd: func(_ context.Context, e *domain.RunEvent) {
			var kind domain.ErrorKind
			if e.Failure != nil {
				kind = e.Failure.Kind
			}
			m.runs.WithLabelValues(string(e.Status), string(kind)).Inc()
		},
	}
}

// Sink returns a guard audit sink that counts invocation records.
func (m *Metrics) Sink() guard.AuditSink {
	return guard.SinkFunc(func(_ context.Context, rec domain.InvocationRecord) {
		m.invocations.WithLabelValues(string(rec.Role), string(rec.Capability), string(rec.Outcome)).Inc()
	})
}
