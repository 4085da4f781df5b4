/*
Package graph provides the workflow graph: role-bound nodes, the edges
between them and a fluent builder that validates the wiring.

	b := graph.New().Entry("intake")
	b.Add("intake", intake).Go("decide_branch")
	b.Add("decide_branch", triage).Branch(router, map[domain.Outcome]string{
		"urgent":  "escalate",
		"routine": "archive",
	})
	b.Add("escalate", escalate).Terminal()
	b.Add("archive", archive).Terminal()
	g, err := b.Build()

Build rejects graphs that could strand a run: a missing entry, dangling
successors, router outcomes without a successor, unreachable nodes and cycles.
A graph returned by Build is immutable and can be shared by concurrent runs.
*/
package graph
