package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/pitstop/pkg/domain"
)

// ValidationError aggregates every wiring problem found by Build.
type ValidationError struct {
	Problems []error
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid graph: " + e.Problems[0].Error()
	}
	lines := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		lines[i] = fmt.Sprintf("  %d. %s", i+1, p.Error())
	}
	return fmt.Sprintf("invalid graph: %d problems:\n%s", len(e.Problems), strings.Join(lines, "\n"))
}

// Unwrap exposes the individual problems to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error {
	return e.Problems
}

// validate checks entry, successors, router exhaustiveness, reachability and cycles.
func validate(g *Graph) []error {
	var problems []error

	if g.entry == "" {
		problems = append(problems, errors.New("no entry node declared"))
	} else if _, ok := g.nodes[g.entry]; !ok {
		problems = append(problems, fmt.Errorf("entry node '%s' not found", g.entry))
	}

	for _, name := range g.order {
		if g.nodes[name] == nil {
			problems = append(problems, fmt.Errorf("node '%s' has no implementation", name))
		}
		e, ok := g.edges[name]
		if !ok {
			continue
		}
		if e.router == nil {
			if _, ok := g.nodes[e.next]; !ok {
				problems = append(problems, fmt.Errorf("node '%s' links to missing node '%s'", name, e.next))
			}
			continue
		}

		declared := make(map[domain.Outcome]bool, len(e.router.Outcomes()))
		for _, o := range e.router.Outcomes() {
			declared[o] = true
			to, ok := e.routes[o]
			if !ok || to == "" {
				problems = append(problems, &domain.RoutingFault{Node: name, Outcome: o})
				continue
			}
			if _, ok := g.nodes[to]; !ok {
				problems = append(problems, fmt.Errorf("node '%s' routes %q to missing node '%s'", name, o, to))
			}
		}
		for o := range e.routes {
			if !declared[o] {
				problems = append(problems, &domain.RoutingFault{Node: name, Outcome: o, Reason: "router never produces this outcome"})
			}
		}
	}

	if len(problems) > 0 {
		return problems
	}

	// Crawl from the entry to find unreachable nodes.
	visited := map[string]bool{}
	queue := []string{g.entry}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, next := range g.successors(current) {
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}
	for _, name := range g.order {
		if !visited[name] {
			problems = append(problems, fmt.Errorf("node '%s' is unreachable from '%s'", name, g.entry))
		}
	}

	if cycle := g.findCycle(); cycle != nil {
		problems = append(problems, fmt.Errorf("cycle detected: %s", strings.Join(cycle, " -> ")))
	}
	return problems
}

func (g *Graph) successors(name string) []string {
	e, ok := g.edges[name]
	if !ok {
		return nil
	}
	if e.router == nil {
		return []string{e.next}
	}
	var out []string
	for _, o := range e.router.Outcomes() {
		out = append(out, e.routes[o])
	}
	return out
}

// findCycle returns the first cycle reachable from the entry, or nil.
func (g *Graph) findCycle() []string {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(g.order))
	var path []string
	var cycle []string

	var visit func(string) bool
	visit = func(n string) bool {
		color[n] = grey
		path = append(path, n)
		for _, next := range g.successors(n) {
			switch color[next] {
			case grey:
				for i, p := range path {
					if p == next {
						cycle = append(append([]string(nil), path[i:]...), next)
						break
					}
				}
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		color[n] = black
		return false
	}

	if visit(g.entry) {
		return cycle
	}
	return nil
}
