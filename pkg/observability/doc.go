/*
Package observability turns engine and guard events into logs and Prometheus
metrics.

Metrics exposes lifecycle hooks for the engine and an audit sink for the
guard. Both can be combined with other hooks and sinks:

	m := observability.NewMetrics()
	hooks := observability.Combine(observability.LogHooks(logger), m.Hooks())
	sink := guard.MultiSink(guard.LogSink(logger), m.Sink())
*/
package observability
