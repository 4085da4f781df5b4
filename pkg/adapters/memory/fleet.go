package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/ports"
)

// Fleet implements ports.TelemetrySource and ports.SeedableProfileStore in memory.
// Safe for concurrent use.
type Fleet struct {
	mu          sync.RWMutex
	telemetry   []domain.TelemetryRecord
	profiles    map[string]domain.CustomerProfile
	recurrence  map[string]int
	rca         map[string]domain.RCARecord
	maintenance []domain.MaintenanceLog
}

// NewFleet creates a fleet seeded with data.
func NewFleet(data domain.FleetData) *Fleet {
	f := &Fleet{}
	f.load(data)
	return f
}

// Seed replaces the fleet's content with data.
func (f *Fleet) Seed(ctx context.Context, data domain.FleetData) error {
	f.load(data)
	return nil
}

func (f *Fleet) load(data domain.FleetData) {
	profiles := make(map[string]domain.CustomerProfile, len(data.Profiles))
	for _, p := range data.Profiles {
		profiles[p.VehicleID] = p
	}
	recurrence := make(map[string]int)
	for _, m := range data.Maintenance {
		if m.DTCCodeAtService != "" {
			recurrence[m.DTCCodeAtService]++
		}
	}
	rca := make(map[string]domain.RCARecord, len(data.RCA))
	for _, r := range data.RCA {
		if _, dup := rca[r.DTCCode]; r.DTCCode != "" && !dup {
			rca[r.DTCCode] = r
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.telemetry = append([]domain.TelemetryRecord(nil), data.Telemetry...)
	f.maintenance = append([]domain.MaintenanceLog(nil), data.Maintenance...)
	f.profiles = profiles
	f.recurrence = recurrence
	f.rca = rca
}

// FetchFlagged returns the first record in load order below thresholdPSI.
func (f *Fleet) FetchFlagged(ctx context.Context, thresholdPSI float64) (domain.TelemetryRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, rec := range f.telemetry {
		if rec.BrakeFluidPressurePSI < thresholdPSI {
			return rec, nil
		}
	}
	return domain.TelemetryRecord{}, ports.ErrNoFlaggedRecord
}

// FlaggedVehicles returns the first flagged record of each vehicle.
func (f *Fleet) FlaggedVehicles(ctx context.Context, thresholdPSI float64) ([]domain.TelemetryRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	seen := map[string]bool{}
	var out []domain.TelemetryRecord
	for _, rec := range f.telemetry {
		if rec.BrakeFluidPressurePSI < thresholdPSI && !seen[rec.VehicleID] {
			seen[rec.VehicleID] = true
			out = append(out, rec)
		}
	}
	return out, nil
}

// LookupProfile returns the profile of a vehicle.
func (f *Fleet) LookupProfile(ctx context.Context, vehicleID string) (domain.CustomerProfile, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p, ok := f.profiles[vehicleID]
	if !ok {
		return domain.CustomerProfile{}, fmt.Errorf("profile for vehicle %s: %w", vehicleID, ports.ErrNotFound)
	}
	return p, nil
}

// RecurrenceCount returns how many maintenance logs carry the trouble code.
func (f *Fleet) RecurrenceCount(ctx context.Context, dtcCode string) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.recurrence[dtcCode], nil
}

// RootCause returns the first analysis linked to the trouble code.
func (f *Fleet) RootCause(ctx context.Context, dtcCode string) (domain.RCARecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	r, ok := f.rca[dtcCode]
	if !ok {
		return domain.RCARecord{}, fmt.Errorf("root cause for %s: %w", dtcCode, ports.ErrNotFound)
	}
	return r, nil
}

// AddHealthScore adds delta to the vehicle's health score.
func (f *Fleet) AddHealthScore(ctx context.Context, vehicleID string, delta int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[vehicleID]
	if !ok {
		return 0, fmt.Errorf("profile for vehicle %s: %w", vehicleID, ports.ErrNotFound)
	}
	p.HealthScore += delta
	f.profiles[vehicleID] = p
	return p.HealthScore, nil
}

// Profile returns the current profile of a vehicle.
func (f *Fleet) Profile(vehicleID string) (domain.CustomerProfile, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p, ok := f.profiles[vehicleID]
	return p, ok
}
