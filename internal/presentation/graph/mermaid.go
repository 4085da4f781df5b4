package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/graph"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
	Failed       bool
}

// OverlayFromState builds the overlay of a finished or halted run.
func OverlayFromState(st *domain.State) *GraphOverlay {
	if st == nil {
		return nil
	}
	return &GraphOverlay{
		VisitedNodes: st.History,
		CurrentNode:  st.CurrentNode,
		Failed:       st.Status == domain.StatusFailed,
	}
}

// GenerateMermaid produces a Mermaid flowchart of g.
// It applies semantic styling:
// - Entry: ((Circle))
// - Terminal: ([Stadium])
// - Default: [Rectangle], labelled with the node role
// Conditional edges carry their outcome label.
func GenerateMermaid(g *graph.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, name := range g.Names() {
		safeID := sanitizeMermaidID(name)

		opener, closer := "[", "]"
		switch {
		case name == g.Entry():
			opener, closer = "((", "))"
		case g.Terminal(name):
			opener, closer = "([", "])"
		}

		label := name
		if n, ok := g.Node(name); ok && n != nil && n.Role() != "" {
			label = fmt.Sprintf("%s <br/> %s", name, n.Role())
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))
	}

	for _, e := range g.Edges() {
		arrow := "-->"
		if e.Outcome != "" {
			safeOutcome := strings.ReplaceAll(string(e.Outcome), "\"", "'")
			arrow = fmt.Sprintf("-- \"%s\" -->", safeOutcome)
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeMermaidID(e.From), arrow, sanitizeMermaidID(e.To)))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.CurrentNode != "" {
			class := "current"
			if overlay.Failed {
				class = "failed"
			}
			sb.WriteString(fmt.Sprintf("    class %s %s;\n", sanitizeMermaidID(overlay.CurrentNode), class))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
