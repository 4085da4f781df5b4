package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.SeedableProfileStore using Redis.
//
// Layout, relative to the key prefix:
//
//	profile:<vehicle_id>  hash of the customer profile
//	dtc:recurrence        hash of trouble code -> service count
//	rca:<dtc_code>        JSON root-cause analysis
type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// DefaultPrefix namespaces every key written by the Store.
const DefaultPrefix = "pitstop:"

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// profileHash is the hash representation of a customer profile.
type profileHash struct {
	CustomerID   string `redis:"customer_id"`
	CustomerName string `redis:"customer_name"`
	DrivingStyle string `redis:"driving_style"`
	AvgDailyKM   int    `redis:"avg_daily_km"`
	HealthScore  int    `redis:"health_score"`
}

func (s *Store) profileKey(vehicleID string) string { return s.prefix + "profile:" + vehicleID }
func (s *Store) recurrenceKey() string { return s.prefix + "dtc:recurrence" }
func (s *Store) rcaKey(dtcCode string) string { return s.prefix + "rca:" + dtcCode }

// Seed loads profiles, recurrence counts and root-cause analyses.
// Existing profiles and analyses are overwritten and recurrence counts are
// recomputed. The first analysis listed for a trouble code wins.
func (s *Store) Seed(ctx context.Context, data domain.FleetData) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.recurrenceKey())

	for _, p := range data.Profiles {
		pipe.HSet(ctx, s.profileKey(p.VehicleID), profileHash{
			CustomerID:   p.CustomerID,
			CustomerName: p.CustomerName,
			DrivingStyle: string(p.DrivingStyle),
			AvgDailyKM:   p.AvgDailyKM,
			HealthScore:  p.HealthScore,
		})
	}
	for _, m := range data.Maintenance {
		if m.DTCCodeAtService != "" {
			pipe.HIncrBy(ctx, s.recurrenceKey(), m.DTCCodeAtService, 1)
		}
	}
	linked := map[string]bool{}
	for _, r := range data.RCA {
		if r.DTCCode == "" || linked[r.DTCCode] {
			continue
		}
		linked[r.DTCCode] = true
		raw, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal rca %s: %w", r.RCAID, err)
		}
		pipe.Set(ctx, s.rcaKey(r.DTCCode), raw, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to seed redis: %w", err)
	}
	return nil
}

// RecurrenceCount returns how many services recorded the trouble code.
func (s *Store) RecurrenceCount(ctx context.Context, dtcCode string) (int, error) {
	n, err := s.client.HGet(ctx, s.recurrenceKey(), dtcCode).Int()
	if errors.Is(err, backend.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read recurrence: %w", err)
	}
	return n, nil
}

// RootCause returns the analysis linked to the trouble code.
func (s *Store) RootCause(ctx context.Context, dtcCode string) (domain.RCARecord, error) {
	val, err := s.client.Get(ctx, s.rcaKey(dtcCode)).Bytes()
	if errors.Is(err, backend.Nil) {
		return domain.RCARecord{}, fmt.Errorf("root cause for %s: %w", dtcCode, ports.ErrNotFound)
	}
	if err != nil {
		return domain.RCARecord{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var rca domain.RCARecord
	if err := json.Unmarshal(val, &rca); err != nil {
		return domain.RCARecord{}, fmt.Errorf("failed to unmarshal rca: %w", err)
	}
	return rca, nil
}

// addIfExists increments a hash field only when the hash exists, so unknown
// vehicles are reported instead of created.
var addIfExists = backend.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
return redis.call('HINCRBY', KEYS[1], ARGV[1], ARGV[2])
`)

// AddHealthScore atomically adds delta to the vehicle's health score.
func (s *Store) AddHealthScore(ctx context.Context, vehicleID string, delta int) (int, error) {
	n, err := addIfExists.Run(ctx, s.client, []string{s.profileKey(vehicleID)}, "health_score", delta).Int()
	if errors.Is(err, backend.Nil) {
		return 0, fmt.Errorf("profile for vehicle %s: %w", vehicleID, ports.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update health score: %w", err)
	}
	return n, nil
}

// Profile reads a stored customer profile.
func (s *Store) Profile(ctx context.Context, vehicleID string) (domain.CustomerProfile, error) {
	res := s.client.HGetAll(ctx, s.profileKey(vehicleID))
	if err := res.Err(); err != nil {
		return domain.CustomerProfile{}, fmt.Errorf("failed to get from redis: %w", err)
	}
	if len(res.Val()) == 0 {
		return domain.CustomerProfile{}, fmt.Errorf("profile for vehicle %s: %w", vehicleID, ports.ErrNotFound)
	}

	var h profileHash
	if err := res.Scan(&h); err != nil {
		return domain.CustomerProfile{}, fmt.Errorf("failed to decode profile: %w", err)
	}
	return domain.CustomerProfile{
		VehicleID:    vehicleID,
		CustomerID:   h.CustomerID,
		CustomerName: h.CustomerName,
		DrivingStyle: domain.DrivingStyle(h.DrivingStyle),
		AvgDailyKM:   h.AvgDailyKM,
		HealthScore:  h.HealthScore,
	}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
