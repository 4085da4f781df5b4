package tui_test

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/aretw0/pitstop/internal/presentation/tui"
	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_Completed(t *testing.T) {
	st := domain.NewState("run-1")
	st.Status = domain.StatusCompleted
	st.History = []string{"data_analysis", "diagnosis"}
	st.VehicleID = "veh_007"
	st.CustomerID = "cust_107"
	st.CustomerName = "Neha"
	cat := domain.CategoryBrakes
	st.Diagnosis = &cat
	drps := 95
	st.DRPS = &drps
	st.OutreachMessage = "Hi Neha,\nplease come in."
	st.ErrorMessage = "unauthorized access attempt by SchedulingAgent on tool get_payment_history"

	out := tui.Report(st, nil, []domain.InvocationRecord{
		{Node: "scheduling", Role: domain.RoleScheduling, Capability: domain.CapGetPaymentHistory, Outcome: domain.InvocationDenied},
	})

	assert.Contains(t, out, "# Run run-1")
	assert.Contains(t, out, "data_analysis → diagnosis")
	assert.Contains(t, out, "| Customer | Neha (cust_107) |")
	assert.Contains(t, out, "| DRPS | 95 |")
	assert.Contains(t, out, "> Hi Neha,\n> please come in.")
	assert.Contains(t, out, "## Security")
	assert.Contains(t, out, "| scheduling | SchedulingAgent | get_payment_history | denied |")
	assert.NotContains(t, out, "## Failure")
}

func TestReport_Failure(t *testing.T) {
	st := domain.NewState("run-2")
	st.Status = domain.StatusFailed

	out := tui.Report(st, domain.NewFailure("run-2", "scheduling", errors.New("no slots")), nil)

	assert.Contains(t, out, "## Failure")
	assert.Contains(t, out, "- Node: `scheduling`")
	assert.NotContains(t, out, "## Vehicle")
}

func TestNewRenderer_PlainOutsideTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	render := tui.NewRenderer(f)
	out, err := render("# Title")
	require.NoError(t, err)
	assert.Equal(t, "# Title", out)
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_|")
}

func TestRunsTable(t *testing.T) {
	done := domain.NewState("run-1")
	done.Status = domain.StatusCompleted
	done.VehicleID = "veh_007"
	drps := 95
	done.DRPS = &drps
	done.History = []string{"data_analysis", "feedback_and_insight"}

	failed := domain.NewState("run-2")
	failed.Status = domain.StatusFailed

	out := tui.RunsTable([]*domain.State{done, failed})
	assert.Contains(t, out, "| run-1 | completed | veh_007 | 95 | feedback_and_insight |")
	assert.Contains(t, out, "| run-2 | failed |  | - | - |")
}
