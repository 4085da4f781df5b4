package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/pitstop/pkg/domain"
)

// Report renders the outcome of one run as markdown.
func Report(st *domain.State, failure *domain.Failure, audit []domain.InvocationRecord) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Run %s\n\n", st.RunID)
	fmt.Fprintf(&sb, "**Status:** %s  \n", st.Status)
	fmt.Fprintf(&sb, "**Path:** %s\n\n", strings.Join(st.History, " → "))

	if failure != nil {
		sb.WriteString("## Failure\n\n")
		fmt.Fprintf(&sb, "- Node: `%s`\n- Kind: `%s`\n- Error: %v\n\n", failure.Node, failure.Kind, failure.Err)
	}

	if st.VehicleID != "" {
		sb.WriteString("## Vehicle\n\n")
		sb.WriteString("| Field | Value |\n|---|---|\n")
		row(&sb, "Vehicle", st.VehicleID)
		row(&sb, "Customer", strings.TrimSpace(st.CustomerName+" ("+st.CustomerID+")"))
		row(&sb, "Anomaly", st.AnomalyDetails)
		if st.Diagnosis != nil {
			row(&sb, "Diagnosis", string(*st.Diagnosis))
		}
		if st.DRPS != nil {
			row(&sb, "DRPS", fmt.Sprintf("%d", *st.DRPS))
		}
		row(&sb, "Response", string(st.CustomerResponse))
		row(&sb, "Booking", strings.TrimSpace(st.BookingStatus+" "+st.AppointmentSlot))
		row(&sb, "Booking ID", st.BookingID)
		if st.HealthScore != nil {
			row(&sb, "Health score", fmt.Sprintf("%d", *st.HealthScore))
		}
		sb.WriteString("\n")
	}

	if st.OutreachMessage != "" {
		fmt.Fprintf(&sb, "## Outreach\n\n> %s\n\n", strings.ReplaceAll(strings.TrimSpace(st.OutreachMessage), "\n", "\n> "))
	}
	if st.FinalInsight != "" {
		fmt.Fprintf(&sb, "## Insight\n\n%s\n\n", st.FinalInsight)
	}
	if st.ErrorMessage != "" {
		fmt.Fprintf(&sb, "## Security\n\n%s\n\n", st.ErrorMessage)
	}

	if len(audit) > 0 {
		sb.WriteString("## Audit\n\n| Node | Role | Capability | Outcome |\n|---|---|---|---|\n")
		for _, r := range audit {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", r.Node, r.Role, r.Capability, r.Outcome)
		}
	}

	return sb.String()
}

func row(sb *strings.Builder, name, value string) {
	if value == "" || value == "()" {
		return
	}
	fmt.Fprintf(sb, "| %s | %s |\n", name, value)
}

// RunsTable renders archived runs as a markdown table, one row per state.
func RunsTable(states []*domain.State) string {
	var sb strings.Builder
	sb.WriteString("| Run | Status | Vehicle | DRPS | Last node |\n|---|---|---|---|---|\n")
	for _, st := range states {
		drps, last := "-", "-"
		if st.DRPS != nil {
			drps = fmt.Sprintf("%d", *st.DRPS)
		}
		if n := len(st.History); n > 0 {
			last = st.History[n-1]
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n", st.RunID, st.Status, st.VehicleID, drps, last)
	}
	return sb.String()
}
