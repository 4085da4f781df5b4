package agents

import (
	"context"
	"fmt"

	"github.com/aretw0/pitstop/pkg/domain"
)

type feedback struct{ agent }

func (n *feedback) Capabilities() []domain.Capability {
	return []domain.Capability{domain.CapReadCSV, domain.CapWriteCSV}
}

// Run links the failure to a root cause, counts its recurrence across the
// fleet and credits the vehicle's health score.
func (n *feedback) Run(ctx context.Context, st *domain.State) error {
	if err := st.Require(n.name, domain.FieldVehicleID, domain.FieldDiagnosis, domain.FieldBookingStatus); err != nil {
		return err
	}
	code := st.Diagnosis.DTCCode()

	count, err := n.tools.RecurrenceCount(ctx, n.role, code)
	if err != nil {
		return err
	}
	rca, found, err := n.tools.RootCause(ctx, n.role, code)
	if err != nil {
		return err
	}
	rcaID := FallbackRCA
	if found {
		rcaID = rca.RCAID
	}

	score, err := n.tools.AddHealthScore(ctx, n.role, st.VehicleID, HealthScoreBonus)
	if err != nil {
		return err
	}

	st.FinalInsight = Insight(rcaID, count+1)
	st.HealthScore = &score
	n.logger.InfoContext(ctx, "insight recorded", "rca_id", rcaID, "dtc", code, "instance", count+1, "health_score", score)
	return nil
}

// Insight formats the manufacturing insight for the nth occurrence of a defect.
func Insight(rcaID string, n int) string {
	return fmt.Sprintf("Failure linked to %s. This is instance #%d of this defect recorded across the fleet. Recommend escalating for quality review.", rcaID, n)
}
