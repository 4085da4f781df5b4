package agents

import (
	"context"
	"fmt"

	"github.com/aretw0/pitstop/pkg/domain"
)

type dataAnalysis struct{ agent }

func (n *dataAnalysis) Capabilities() []domain.Capability {
	return []domain.Capability{domain.CapReadCSV}
}

// Run finds the first flagged telemetry record and identifies its owner.
func (n *dataAnalysis) Run(ctx context.Context, st *domain.State) error {
	rec, err := n.tools.FetchFlagged(ctx, n.role, n.threshold)
	if err != nil {
		return err
	}
	profile, err := n.tools.LookupProfile(ctx, n.role, rec.VehicleID)
	if err != nil {
		return err
	}

	st.VehicleID = rec.VehicleID
	st.CustomerID = profile.CustomerID
	st.CustomerName = profile.CustomerName
	st.Anomaly = &rec
	st.AnomalyDetails = fmt.Sprintf("Low pressure (%.2f psi) & thickness (%.2fmm)", rec.BrakeFluidPressurePSI, rec.BrakePadThicknessMM)

	n.logger.InfoContext(ctx, "anomaly detected", "vehicle_id", st.VehicleID, "details", st.AnomalyDetails)
	return nil
}

type diagnosis struct{ agent }

func (n *diagnosis) Capabilities() []domain.Capability {
	return []domain.Capability{domain.CapLLMInvoke, domain.CapReadCSV}
}

func (n *diagnosis) Run(ctx context.Context, st *domain.State) error {
	if err := st.Require(n.name, domain.FieldVehicleID, domain.FieldAnomaly); err != nil {
		return err
	}
	d, err := Diagnose(ctx, n.tools, n.logger, n.role, st.VehicleID, *st.Anomaly)
	if err != nil {
		return err
	}

	st.Diagnosis = &d.Category
	st.DRPS = &d.DRPS
	st.ScoreBreakdown = &d.Breakdown

	n.logger.InfoContext(ctx, "diagnosis", "category", d.Category, "drps", d.DRPS)
	return nil
}
