package graph

import (
	"fmt"

	"github.com/aretw0/pitstop/pkg/domain"
)

type edge struct {
	next   string
	router Router
	routes map[domain.Outcome]string
}

// Edge is a read-only view of one transition, used for introspection.
type Edge struct {
	From    string         `json:"from"`
	To      string         `json:"to"`
	Outcome domain.Outcome `json:"outcome,omitempty"` // Empty for unconditional edges
	Router  string         `json:"router,omitempty"`  // Empty for unconditional edges
}

// Graph is a validated workflow graph.
type Graph struct {
	entry string
	nodes map[string]Node
	edges map[string]edge
	order []string
}

// Entry returns the name of the entry node.
func (g *Graph) Entry() string {
	return g.entry
}

// Node looks up a node by name.
func (g *Graph) Node(name string) (Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Names returns node names in registration order.
func (g *Graph) Names() []string {
	return append([]string(nil), g.order...)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// Terminal reports whether name has no outgoing edge.
func (g *Graph) Terminal(name string) bool {
	_, ok := g.edges[name]
	return !ok
}

// Edges lists every transition, grouped by source in registration order.
// Conditional edges follow the declaration order of the router's outcomes.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, from := range g.order {
		e, ok := g.edges[from]
		if !ok {
			continue
		}
		if e.router == nil {
			out = append(out, Edge{From: from, To: e.next})
			continue
		}
		for _, o := range e.router.Outcomes() {
			if to, ok := e.routes[o]; ok {
				out = append(out, Edge{From: from, To: to, Outcome: o, Router: e.router.Name()})
			}
		}
	}
	return out
}

// View is the serializable shape of a graph.
type View struct {
	Entry string   `json:"entry"`
	Nodes []string `json:"nodes"`
	Edges []Edge   `json:"edges"`
}

// View describes the graph for inspection endpoints.
func (g *Graph) View() View {
	return View{Entry: g.Entry(), Nodes: g.Names(), Edges: g.Edges()}
}

// Next resolves the successor of name for the current state. For a terminal
// node it returns terminal=true. A router outcome without successor yields a
// *domain.RoutingFault naming the outcome.
func (g *Graph) Next(name string, st *domain.State) (next string, outcome domain.Outcome, terminal bool, err error) {
	e, ok := g.edges[name]
	if !ok {
		if _, known := g.nodes[name]; !known {
			return "", "", false, fmt.Errorf("unknown node '%s'", name)
		}
		return "", "", true, nil
	}
	if e.router == nil {
		return e.next, "", false, nil
	}

	outcome, err = e.router.Route(st)
	if err != nil {
		return "", "", false, fmt.Errorf("router %s at node '%s': %w", e.router.Name(), name, err)
	}
	next, ok = e.routes[outcome]
	if !ok || next == "" {
		return "", outcome, false, &domain.RoutingFault{Node: name, Outcome: outcome}
	}
	return next, outcome, false, nil
}
