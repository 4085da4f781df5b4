package graph_test

import (
	"context"
	"strings"
	"testing"

	presentation "github.com/aretw0/pitstop/internal/presentation/graph"
	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(ctx context.Context, st *domain.State) error { return nil }

func buildGraph(t *testing.T) *graph.Graph {
	t.Helper()
	router := graph.NewRouter("decide", []domain.Outcome{"yes", "no"}, func(st *domain.State) (domain.Outcome, error) {
		return "yes", nil
	})

	b := graph.New().Entry("start")
	b.Add("start", graph.NewNode(domain.RoleDataAnalysis, nil, noop)).Go("check-in")
	b.Add("check-in", graph.NewNode("", nil, noop)).Branch(router, map[domain.Outcome]string{"yes": "book", "no": "decline"})
	b.Add("book", graph.NewNode(domain.RoleScheduling, nil, noop)).Terminal()
	b.Add("decline", graph.NewNode("", nil, noop)).Terminal()
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func TestGenerateMermaid(t *testing.T) {
	out := presentation.GenerateMermaid(buildGraph(t), nil)

	for _, want := range []string{
		"graph TD\n",
		`start(("start <br/> DataAnalysisAgent"))`,
		`check_in["check-in"]`,
		`book(["book <br/> SchedulingAgent"])`,
		`decline(["decline"])`,
		"start --> check_in",
		`check_in -- "yes" --> book`,
		`check_in -- "no" --> decline`,
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	st := domain.NewState("run-1")
	st.History = []string{"start", "check-in", "check-in"}
	st.CurrentNode = "check-in"
	st.Status = domain.StatusFailed

	out := presentation.GenerateMermaid(buildGraph(t), presentation.OverlayFromState(st))

	assert.Equal(t, 1, strings.Count(out, "class check_in visited;"), "visited nodes are deduplicated")
	assert.Contains(t, out, "class start visited;")
	assert.Contains(t, out, "class check_in failed;")
	assert.NotContains(t, out, "class book")
}
