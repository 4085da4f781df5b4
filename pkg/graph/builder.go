package graph

import (
	"fmt"

	"github.com/aretw0/pitstop/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	entry    string
	nodes    map[string]*NodeBuilder
	order    []string
	problems []error
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Entry declares the node every run starts from.
func (b *Builder) Entry(name string) *Builder {
	b.entry = name
	return b
}

// Add registers a node under name.
// If the name is already taken, the first registration is kept and Build fails.
func (b *Builder) Add(name string, node Node) *NodeBuilder {
	if nb, ok := b.nodes[name]; ok {
		b.problems = append(b.problems, fmt.Errorf("node '%s' registered twice", name))
		return nb
	}
	nb := &NodeBuilder{name: name, node: node, builder: b}
	b.nodes[name] = nb
	b.order = append(b.order, name)
	return nb
}

// Build validates the wiring and compiles it into an immutable Graph.
func (b *Builder) Build() (*Graph, error) {
	g := &Graph{
		entry: b.entry,
		nodes: make(map[string]Node, len(b.nodes)),
		edges: make(map[string]edge, len(b.nodes)),
		order: append([]string(nil), b.order...),
	}
	for _, name := range b.order {
		nb := b.nodes[name]
		g.nodes[name] = nb.node
		if nb.edge != nil {
			e := *nb.edge
			if e.routes != nil {
				routes := make(map[domain.Outcome]string, len(e.routes))
				for k, v := range e.routes {
					routes[k] = v
				}
				e.routes = routes
			}
			g.edges[name] = e
		}
	}

	problems := append([]error(nil), b.problems...)
	problems = append(problems, validate(g)...)
	for _, name := range b.order {
		problems = append(problems, b.nodes[name].problems...)
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return g, nil
}

// NodeBuilder provides a fluent API for configuring the edges of a node.
type NodeBuilder struct {
	name     string
	node     Node
	edge     *edge
	builder  *Builder
	problems []error
}

// Go adds an unconditional transition to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	if n.edge != nil {
		n.problems = append(n.problems, fmt.Errorf("node '%s' already has an outgoing edge", n.name))
		return n
	}
	n.edge = &edge{next: target}
	return n
}

// Branch routes through router after the node completes. Every outcome the
// router declares must be mapped to a successor.
func (n *NodeBuilder) Branch(router Router, routes map[domain.Outcome]string) *NodeBuilder {
	if n.edge != nil {
		n.problems = append(n.problems, fmt.Errorf("node '%s' already has an outgoing edge", n.name))
		return n
	}
	if router == nil {
		n.problems = append(n.problems, fmt.Errorf("node '%s' branches on a nil router", n.name))
		return n
	}
	n.edge = &edge{router: router, routes: routes}
	return n
}

// Terminal marks the node as a terminal node (end of the flow).
func (n *NodeBuilder) Terminal() *NodeBuilder {
	n.edge = nil
	return n
}

// Name returns the registered node name.
func (n *NodeBuilder) Name() string {
	return n.name
}
