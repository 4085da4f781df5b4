package graph

import (
	"context"

	"github.com/aretw0/pitstop/pkg/domain"
)

// Node is a role-bound unit of work. Run reads and writes the shared state
// and performs capability calls through the guard only.
type Node interface {
	// Role is the identity the node acts as for policy checks.
	Role() domain.Role
	// Capabilities lists, in order, the capabilities the node expects to use.
	// It is informational; enforcement is the policy's job.
	Capabilities() []domain.Capability
	Run(ctx context.Context, st *domain.State) error
}

type funcNode struct {
	role domain.Role
	caps []domain.Capability
	fn   func(ctx context.Context, st *domain.State) error
}

// NewNode adapts a function to Node.
func NewNode(role domain.Role, caps []domain.Capability, fn func(ctx context.Context, st *domain.State) error) Node {
	return &funcNode{role: role, caps: caps, fn: fn}
}

func (n *funcNode) Role() domain.Role { return n.role }
func (n *funcNode) Capabilities() []domain.Capability { return n.caps }
func (n *funcNode) Run(ctx context.Context, st *domain.State) error {
	return n.fn(ctx, st)
}

// Router selects the next node by label from the current state. It must be
// pure: no capability calls and no state writes.
type Router interface {
	Name() string
	// Outcomes lists every label Route can return.
	Outcomes() []domain.Outcome
	Route(st *domain.State) (domain.Outcome, error)
}

type funcRouter struct {
	name     string
	outcomes []domain.Outcome
	fn       func(st *domain.State) (domain.Outcome, error)
}

// NewRouter adapts a function to Router.
func NewRouter(name string, outcomes []domain.Outcome, fn func(st *domain.State) (domain.Outcome, error)) Router {
	return &funcRouter{name: name, outcomes: outcomes, fn: fn}
}

func (r *funcRouter) Name() string { return r.name }
func (r *funcRouter) Outcomes() []domain.Outcome { return r.outcomes }
func (r *funcRouter) Route(st *domain.State) (domain.Outcome, error) { return r.fn(st) }
