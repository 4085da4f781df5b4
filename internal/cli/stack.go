package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/pitstop"
	"github.com/aretw0/pitstop/internal/config"
	"github.com/aretw0/pitstop/pkg/adapters/csvdata"
	"github.com/aretw0/pitstop/pkg/adapters/heuristic"
	"github.com/aretw0/pitstop/pkg/adapters/memory"
	"github.com/aretw0/pitstop/pkg/adapters/process"
	"github.com/aretw0/pitstop/pkg/adapters/redis"
	"github.com/aretw0/pitstop/pkg/adapters/scheduler"
	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/observability"
	"github.com/aretw0/pitstop/pkg/persistence"
	"github.com/aretw0/pitstop/pkg/persistence/middleware"
	"github.com/aretw0/pitstop/pkg/ports"
)

// DemoSeed is the generator seed of the offline fleet.
const DemoSeed = 42

// Stack is the set of collaborators selected by the configuration.
type Stack struct {
	Collaborators ports.Collaborators
	// Data is the reference fleet the stack was loaded from.
	Data domain.FleetData
	// Locker shares vehicle sessions across replicas when redis is configured.
	Locker ports.DistributedLocker
	// Archive keeps finished runs when archive.enabled is set.
	Archive ports.RunArchive
	// Source tells where telemetry comes from: a data directory or "generated".
	Source string

	closers []func() error
}

// BuildStack selects collaborators from cfg:
//   - telemetry from the CSV files in data_dir, or a generated fleet when unset;
//   - profiles in redis when redis.addr is set, written back to the CSV
//     profiles of data_dir otherwise, in memory without either;
//   - scheduling over HTTP when scheduler.url is set, in memory otherwise;
//   - external classifier and composer commands when plugins are set;
//   - the run archive next to the profiles when archive.enabled is set.
func BuildStack(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stack, error) {
	s := &Stack{}

	var (
		profiles ports.ProfileStore
		store    *redis.Store
	)
	if cfg.DataDir != "" {
		data, err := csvdata.Load(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		s.Data = data
		s.Source = cfg.DataDir
		s.Collaborators.Telemetry = csvdata.NewSource(cfg.DataDir)
		profiles = csvdata.NewProfileStore(cfg.DataDir, data)
	} else {
		s.Data = csvdata.Generate(csvdata.GenerateOptions{Seed: DemoSeed})
		s.Source = "generated"
		fleet := memory.NewFleet(s.Data)
		s.Collaborators.Telemetry = fleet
		profiles = fleet
	}

	if cfg.Redis.Addr != "" {
		store = redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redis.WithPrefix(cfg.Redis.Prefix))
		s.closers = append(s.closers, store.Close)
		if err := store.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		s.Collaborators.Profiles = store
		s.Locker = store.Locker()
		logger.Info("profile store", "backend", "redis", "addr", cfg.Redis.Addr)
	} else {
		s.Collaborators.Profiles = profiles
	}

	if cfg.Scheduler.URL != "" {
		s.Collaborators.Scheduler = scheduler.NewClient(cfg.Scheduler.URL, scheduler.WithTimeout(cfg.Scheduler.Timeout))
		logger.Info("scheduling backend", "backend", "http", "url", cfg.Scheduler.URL)
	} else {
		s.Collaborators.Scheduler = memory.NewScheduler()
	}

	s.Collaborators.Classifier = heuristic.NewClassifier(cfg.AnomalyThreshold)
	if c := cfg.Plugins.Classifier; c.Enabled() {
		s.Collaborators.Classifier = process.NewClassifier(c)
		logger.Info("classifier", "backend", "process", "command", c.Command)
	}
	s.Collaborators.Composer = heuristic.MustComposer("")
	if c := cfg.Plugins.Composer; c.Enabled() {
		s.Collaborators.Composer = process.NewComposer(c)
		logger.Info("composer", "backend", "process", "command", c.Command)
	}

	if cfg.Archive.Enabled {
		archive, err := buildArchive(cfg, store)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.Archive = archive
	}
	return s, nil
}

// buildArchive stacks masking then encryption over the run store. Documents
// are masked before they are sealed.
func buildArchive(cfg *config.Config, store *redis.Store) (*persistence.Archive, error) {
	var base persistence.Store = persistence.NewMemoryStore()
	if store != nil {
		base = store.Runs()
	}

	var mws []middleware.Middleware
	if len(cfg.Archive.Mask) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.Archive.Mask)
		if err != nil {
			return nil, fmt.Errorf("archive.mask: %w", err)
		}
		mws = append(mws, pii)
	}
	active, fallback, err := cfg.ArchiveKeys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	return persistence.NewArchive(middleware.Chain(base, mws...)), nil
}

// Seed loads the reference data into the profile store.
func (s *Stack) Seed(ctx context.Context) error {
	store, ok := s.Collaborators.Profiles.(ports.SeedableProfileStore)
	if !ok {
		return errors.New("profile store cannot be seeded")
	}
	return store.Seed(ctx, s.Data)
}

// Close releases the connections opened by BuildStack.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	s.closers = nil
	return errors.Join(errs...)
}

// NewEngine creates the workflow engine for a stack, reporting to logger
// and, when given, to metrics.
func NewEngine(s *Stack, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, opts ...pitstop.Option) (*pitstop.Engine, error) {
	p, err := cfg.LoadPolicy()
	if err != nil {
		return nil, err
	}

	hooks := observability.LogHooks(logger)
	engineOpts := []pitstop.Option{
		pitstop.WithPolicy(p),
		pitstop.WithLogger(logger),
		pitstop.WithThreshold(cfg.AnomalyThreshold),
		pitstop.WithSessionTTL(cfg.SessionTTL()),
	}
	if metrics != nil {
		hooks = observability.Combine(hooks, metrics.Hooks())
		engineOpts = append(engineOpts, pitstop.WithAuditSink(metrics.Sink()))
	}
	engineOpts = append(engineOpts, pitstop.WithLifecycleHooks(hooks))
	if s.Locker != nil {
		engineOpts = append(engineOpts, pitstop.WithLocker(s.Locker))
	}
	if s.Archive != nil {
		engineOpts = append(engineOpts, pitstop.WithArchive(s.Archive))
	}

	eng, err := pitstop.New(s.Collaborators, append(engineOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return eng, nil
}
