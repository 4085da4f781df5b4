package ports

import (
	"context"
	"errors"

	"github.com/aretw0/pitstop/pkg/domain"
)

// ErrNotFound is returned by collaborators when a looked-up record does not exist.
var ErrNotFound = errors.New("not found")

// ErrNoFlaggedRecord is returned when no telemetry record crosses the threshold.
var ErrNoFlaggedRecord = errors.New("no flagged telemetry record")

// TelemetrySource reads vehicle telemetry and the profiles of their owners.
type TelemetrySource interface {
	// FetchFlagged returns the first record, in source order, whose brake
	// fluid pressure is strictly below thresholdPSI.
	// Returns ErrNoFlaggedRecord if none qualifies.
	FetchFlagged(ctx context.Context, thresholdPSI float64) (domain.TelemetryRecord, error)

	// FlaggedVehicles returns the first flagged record of every vehicle, in
	// source order of first appearance.
	FlaggedVehicles(ctx context.Context, thresholdPSI float64) ([]domain.TelemetryRecord, error)

	// LookupProfile returns the customer profile of a vehicle.
	// Returns ErrNotFound if the vehicle is unknown.
	LookupProfile(ctx context.Context, vehicleID string) (domain.CustomerProfile, error)
}

// Classifier proposes a root-cause category. The answer is raw text: callers
// must validate it against the closed category set.
type Classifier interface {
	Classify(ctx context.Context, vehicleID string, record domain.TelemetryRecord, valid []domain.Category) (string, error)
}

// Composer writes an outreach message for a customer.
type Composer interface {
	Compose(ctx context.Context, req domain.OutreachRequest) (string, error)
}

// SchedulingBackend is the service-center booking system.
// Transport errors, non-2xx answers and malformed payloads are errors,
// never an empty result.
type SchedulingBackend interface {
	ListSlots(ctx context.Context) ([]string, error)
	Book(ctx context.Context, vehicleID, slot string) (domain.Booking, error)
}

// ProfileStore is the durable fleet profile store.
type ProfileStore interface {
	// RecurrenceCount returns how many past services recorded the trouble code.
	RecurrenceCount(ctx context.Context, dtcCode string) (int, error)

	// RootCause returns the root-cause analysis linked to a trouble code.
	// Returns ErrNotFound if no analysis exists.
	RootCause(ctx context.Context, dtcCode string) (domain.RCARecord, error)

	// AddHealthScore adds delta to a vehicle's health score and returns the new value.
	// Returns ErrNotFound if the vehicle is unknown.
	AddHealthScore(ctx context.Context, vehicleID string, delta int) (int, error)
}

// SeedableProfileStore is a ProfileStore that can be loaded from reference data.
type SeedableProfileStore interface {
	ProfileStore
	Seed(ctx context.Context, data domain.FleetData) error
}

// PaymentLedger exposes customer payment history. No standard role is allowed
// to read it; backends may still implement it.
type PaymentLedger interface {
	PaymentHistory(ctx context.Context, customerID string) (string, error)
}

// Collaborators bundles the external systems a workflow run depends on.
type Collaborators struct {
	Telemetry  TelemetrySource
	Classifier Classifier
	Composer   Composer
	Scheduler  SchedulingBackend
	Profiles   ProfileStore
}

// Validate reports the first missing collaborator.
func (c Collaborators) Validate() error {
	switch {
	case c.Telemetry == nil:
		return errors.New("telemetry source is required")
	case c.Classifier == nil:
		return errors.New("classifier is required")
	case c.Composer == nil:
		return errors.New("composer is required")
	case c.Scheduler == nil:
		return errors.New("scheduling backend is required")
	case c.Profiles == nil:
		return errors.New("profile store is required")
	}
	return nil
}

// RunArchive keeps the final state of finished runs.
type RunArchive interface {
	Save(ctx context.Context, st *domain.State) error
	// Load returns ErrNotFound for an unknown run.
	Load(ctx context.Context, runID string) (*domain.State, error)
	// List returns run IDs, oldest first.
	List(ctx context.Context) ([]string, error)
}
