package csvdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/ports"
)

// File names of the datasets inside a data directory.
const (
	TelemetryFile   = "vehicle_telematics.csv"
	ProfilesFile    = "customer_profiles.csv"
	MaintenanceFile = "maintenance_logs.csv"
	RCAFile         = "rca_records.csv"
	SeverityFile    = "safety_impact_scores.csv"
)

// ReadTelemetry decodes vehicle telematics rows.
func ReadTelemetry(r io.Reader) ([]domain.TelemetryRecord, error) {
	return decodeRows[domain.TelemetryRecord](r)
}

// ReadProfiles decodes customer profile rows.
func ReadProfiles(r io.Reader) ([]domain.CustomerProfile, error) {
	return decodeRows[domain.CustomerProfile](r)
}

// ReadMaintenance decodes maintenance log rows.
func ReadMaintenance(r io.Reader) ([]domain.MaintenanceLog, error) {
	return decodeRows[domain.MaintenanceLog](r)
}

// ReadRCA decodes root-cause analysis rows.
func ReadRCA(r io.Reader) ([]domain.RCARecord, error) {
	return decodeRows[domain.RCARecord](r)
}

// Load reads every dataset of dir. Telemetry and profiles are required;
// a missing maintenance or RCA file yields an empty set.
func Load(dir string) (domain.FleetData, error) {
	var data domain.FleetData
	var err error
	if data.Telemetry, err = readFile(dir, TelemetryFile, ReadTelemetry, true); err != nil {
		return data, err
	}
	if data.Profiles, err = readFile(dir, ProfilesFile, ReadProfiles, true); err != nil {
		return data, err
	}
	if data.Maintenance, err = readFile(dir, MaintenanceFile, ReadMaintenance, false); err != nil {
		return data, err
	}
	if data.RCA, err = readFile(dir, RCAFile, ReadRCA, false); err != nil {
		return data, err
	}
	return data, nil
}

func readFile[T any](dir, name string, read func(io.Reader) ([]T, error), required bool) ([]T, error) {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	items, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return items, nil
}

// Source implements ports.TelemetrySource over a data directory.
// The directory is read once, on first use.
type Source struct {
	dir string

	once     sync.Once
	err      error
	records  []domain.TelemetryRecord
	profiles map[string]domain.CustomerProfile
}

// NewSource creates a telemetry source reading dir.
func NewSource(dir string) *Source {
	return &Source{dir: dir}
}

func (s *Source) load() error {
	s.once.Do(func() {
		s.records, s.err = readFile(s.dir, TelemetryFile, ReadTelemetry, true)
		if s.err != nil {
			return
		}
		var profiles []domain.CustomerProfile
		profiles, s.err = readFile(s.dir, ProfilesFile, ReadProfiles, true)
		s.profiles = make(map[string]domain.CustomerProfile, len(profiles))
		for _, p := range profiles {
			s.profiles[p.VehicleID] = p
		}
	})
	return s.err
}

// FetchFlagged returns the first row, in file order, below thresholdPSI.
func (s *Source) FetchFlagged(ctx context.Context, thresholdPSI float64) (domain.TelemetryRecord, error) {
	if err := s.load(); err != nil {
		return domain.TelemetryRecord{}, err
	}
	for _, rec := range s.records {
		if rec.BrakeFluidPressurePSI < thresholdPSI {
			return rec, nil
		}
	}
	return domain.TelemetryRecord{}, ports.ErrNoFlaggedRecord
}

// FlaggedVehicles returns the first flagged row of each vehicle.
func (s *Source) FlaggedVehicles(ctx context.Context, thresholdPSI float64) ([]domain.TelemetryRecord, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []domain.TelemetryRecord
	for _, rec := range s.records {
		if rec.BrakeFluidPressurePSI < thresholdPSI && !seen[rec.VehicleID] {
			seen[rec.VehicleID] = true
			out = append(out, rec)
		}
	}
	return out, nil
}

// LookupProfile returns the profile row of a vehicle.
func (s *Source) LookupProfile(ctx context.Context, vehicleID string) (domain.CustomerProfile, error) {
	if err := s.load(); err != nil {
		return domain.CustomerProfile{}, err
	}
	p, ok := s.profiles[vehicleID]
	if !ok {
		return domain.CustomerProfile{}, fmt.Errorf("profile for vehicle %s: %w", vehicleID, ports.ErrNotFound)
	}
	return p, nil
}
