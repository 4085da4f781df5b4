package csvdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/pitstop/pkg/adapters/memory"
	"github.com/aretw0/pitstop/pkg/domain"
)

// ProfileStore implements ports.SeedableProfileStore over a data directory.
// Reads are served from memory; every health score change rewrites the
// profiles file so it survives a restart.
type ProfileStore struct {
	dir   string
	fleet *memory.Fleet

	mu    sync.Mutex // serializes file rewrites
	order []string   // vehicle IDs in file order
}

// NewProfileStore creates a profile store for dir, loaded with data.
func NewProfileStore(dir string, data domain.FleetData) *ProfileStore {
	s := &ProfileStore{dir: dir, fleet: memory.NewFleet(data)}
	s.order = vehicleOrder(data.Profiles)
	return s
}

func vehicleOrder(profiles []domain.CustomerProfile) []string {
	order := make([]string, len(profiles))
	for i, p := range profiles {
		order[i] = p.VehicleID
	}
	return order
}

// RecurrenceCount implements ports.ProfileStore.
func (s *ProfileStore) RecurrenceCount(ctx context.Context, dtcCode string) (int, error) {
	return s.fleet.RecurrenceCount(ctx, dtcCode)
}

// RootCause implements ports.ProfileStore.
func (s *ProfileStore) RootCause(ctx context.Context, dtcCode string) (domain.RCARecord, error) {
	return s.fleet.RootCause(ctx, dtcCode)
}

// AddHealthScore adds delta to the vehicle's score and rewrites the profiles
// file. The in-memory score is kept when the file cannot be written.
func (s *ProfileStore) AddHealthScore(ctx context.Context, vehicleID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	score, err := s.fleet.AddHealthScore(ctx, vehicleID, delta)
	if err != nil {
		return 0, err
	}
	if err := s.flush(); err != nil {
		return score, fmt.Errorf("persist health score of %s: %w", vehicleID, err)
	}
	return score, nil
}

// Seed replaces the profiles and rewrites the profiles file.
func (s *ProfileStore) Seed(ctx context.Context, data domain.FleetData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fleet.Seed(ctx, data); err != nil {
		return err
	}
	s.order = vehicleOrder(data.Profiles)
	return s.flush()
}

// Profile returns the current profile of a vehicle.
func (s *ProfileStore) Profile(vehicleID string) (domain.CustomerProfile, bool) {
	return s.fleet.Profile(vehicleID)
}

// flush writes a temporary file and renames it over the profiles file, so
// readers never see a partial file. The caller holds s.mu.
func (s *ProfileStore) flush() error {
	profiles := make([]domain.CustomerProfile, 0, len(s.order))
	for _, id := range s.order {
		if p, ok := s.fleet.Profile(id); ok {
			profiles = append(profiles, p)
		}
	}

	tmp, err := os.CreateTemp(s.dir, ProfilesFile+".*")
	if err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := writeRows(tmp, profileHeader, profileRows(profiles)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, ProfilesFile))
}
