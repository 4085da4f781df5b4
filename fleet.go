package pitstop

import (
	"context"
	"fmt"

	"github.com/aretw0/pitstop/internal/agents"
	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// FleetResult is the outcome of the run started for one flagged vehicle.
type FleetResult struct {
	VehicleID string
	State     *domain.State
	Failure   *domain.Failure
}

func (e *Engine) thresholdPSI() float64 {
	if e.threshold <= 0 {
		return agents.AnomalyThresholdPSI
	}
	return e.threshold
}

// RunFleet starts one run per flagged vehicle, at most concurrency at a
// time (zero or less means unbounded). Results keep the order in which the
// vehicles were first flagged. A failed run does not stop the others; the
// error only reports a failure to list the flagged vehicles.
func (e *Engine) RunFleet(ctx context.Context, concurrency int) ([]FleetResult, error) {
	flagged, err := e.collaborators.Telemetry.FlaggedVehicles(ctx, e.thresholdPSI())
	if err != nil {
		return nil, fmt.Errorf("failed to list flagged vehicles: %w", err)
	}

	results := make([]FleetResult, len(flagged))
	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, rec := range flagged {
		g.Go(func() error {
			st, failure := e.runPinned(ctx, domain.NewState(e.newRunID()), pinned{TelemetrySource: e.collaborators.Telemetry, rec: &rec})
			results[i] = FleetResult{VehicleID: rec.VehicleID, State: st, Failure: failure}
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

// RunVehicle runs the workflow for one vehicle: data_analysis only considers
// that vehicle's telemetry and fails when none of it is flagged.
func (e *Engine) RunVehicle(ctx context.Context, vehicleID string) (*domain.State, *domain.Failure) {
	src := pinned{TelemetrySource: e.collaborators.Telemetry, vehicleID: vehicleID}
	return e.runPinned(ctx, domain.NewState(e.newRunID()), src)
}

// runPinned holds the vehicle session for the whole run so that concurrent
// runs never book or credit the same vehicle twice.
func (e *Engine) runPinned(ctx context.Context, st *domain.State, src pinned) (*domain.State, *domain.Failure) {
	c := e.collaborators
	c.Telemetry = src
	g, err := e.buildGraph(c)
	if err != nil {
		st.Status = domain.StatusFailed
		return st, domain.NewFailure(st.RunID, "", err)
	}

	var (
		final   *domain.State
		failure *domain.Failure
	)
	err = e.sessions.WithLock(ctx, src.key(), func(ctx context.Context) error {
		final, failure = e.runtime.Execute(ctx, g, st)
		return nil
	})
	if err != nil {
		st.Status = domain.StatusFailed
		final, failure = st, domain.NewFailure(st.RunID, "", err)
	}
	e.archiveRun(ctx, final)
	return final, failure
}

// pinned narrows a telemetry source to a single vehicle, either to a known
// flagged record or to whatever the source flags for vehicleID.
type pinned struct {
	ports.TelemetrySource
	rec       *domain.TelemetryRecord
	vehicleID string
}

func (p pinned) key() string {
	if p.rec != nil {
		return p.rec.VehicleID
	}
	return p.vehicleID
}

func (p pinned) FetchFlagged(ctx context.Context, thresholdPSI float64) (domain.TelemetryRecord, error) {
	if p.rec != nil {
		if p.rec.BrakeFluidPressurePSI >= thresholdPSI {
			return domain.TelemetryRecord{}, ports.ErrNoFlaggedRecord
		}
		return *p.rec, nil
	}

	flagged, err := p.TelemetrySource.FlaggedVehicles(ctx, thresholdPSI)
	if err != nil {
		return domain.TelemetryRecord{}, err
	}
	for _, rec := range flagged {
		if rec.VehicleID == p.vehicleID {
			return rec, nil
		}
	}
	return domain.TelemetryRecord{}, fmt.Errorf("vehicle %s: %w", p.vehicleID, ports.ErrNoFlaggedRecord)
}
