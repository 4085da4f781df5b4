// Package http exposes a pitstop engine over a JSON API.
//
// Routes:
//
//	GET  /health          liveness check
//	GET  /info            application and version
//	GET  /graph           workflow graph
//	GET  /policy          tool access policy
//	POST /runs            start a run, optionally for {"vehicle_id": "..."}
//	GET  /runs            archived run IDs
//	GET  /runs/{run_id}   archived final state
//	GET  /events          server-sent lifecycle events, filtered by ?run_id=
//	GET  /metrics         prometheus metrics, when a handler is configured
package http
