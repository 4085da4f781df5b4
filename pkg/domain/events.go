package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter EventType = "node_enter"
	EventNodeLeave EventType = "node_leave"
	EventRoute     EventType = "route"
	EventRunEnd    EventType = "run_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// NodeEvent represents entry into or exit from a node.
type NodeEvent struct {
	EventBase
	NodeID   string        `json:"node_id"`
	Role     Role          `json:"role"`
	Duration time.Duration `json:"duration,omitempty"` // Set on leave
	Err      error         `json:"-"`                  // Set on leave when the node failed
}

// RouteEvent represents a routing decision taken after a node.
type RouteEvent struct {
	EventBase
	From    string  `json:"from"`
	Outcome Outcome `json:"outcome,omitempty"` // Empty for unconditional edges
	To      string  `json:"to"`
}

// RunEvent is emitted once per run when the engine stops.
type RunEvent struct {
	EventBase
	Status  ExecutionStatus `json:"status"`
	Failure *Failure        `json:"failure,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNodeLeave func(context.Context, *NodeEvent)
	OnRoute     func(context.Context, *RouteEvent)
	OnRunEnd    func(context.Context, *RunEvent)
}

// InvocationOutcome is the guard's decision for one capability attempt.
type InvocationOutcome string

const (
	InvocationAllowed InvocationOutcome = "allowed"
	InvocationDenied  InvocationOutcome = "denied"
)

// InvocationRecord is the audit artifact produced for every capability
// attempt. An allowed call that failed downstream keeps Outcome allowed and
// carries the failure text in Err.
type InvocationRecord struct {
	RunID      string            `json:"run_id,omitempty"`
	Node       string            `json:"node,omitempty"`
	Role       Role              `json:"role"`
	Capability Capability        `json:"capability"`
	Outcome    InvocationOutcome `json:"outcome"`
	Timestamp  time.Time         `json:"timestamp"`
	Duration   time.Duration     `json:"duration,omitempty"`
	Err        string            `json:"error,omitempty"`
}
