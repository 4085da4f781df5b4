package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/pitstop/pkg/persistence"
	"github.com/aretw0/pitstop/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// RunStore implements persistence.Store using Redis.
//
// Layout, relative to the key prefix:
//
//	run:<run_id>  archived run document
//	runs          sorted set of run IDs scored by arrival
//	runs:seq      arrival counter
type RunStore struct {
	client *backend.Client
	prefix string
}

var _ persistence.Store = (*RunStore)(nil)

// Runs returns a run archive store sharing the client and prefix of s.
func (s *Store) Runs() *RunStore {
	return &RunStore{client: s.client, prefix: s.prefix}
}

func (r *RunStore) runKey(runID string) string { return r.prefix + "run:" + runID }
func (r *RunStore) indexKey() string           { return r.prefix + "runs" }
func (r *RunStore) seqKey() string             { return r.prefix + "runs:seq" }

// putRun stores the document and indexes a run the first time it is seen.
var putRun = backend.NewScript(`
redis.call('SET', KEYS[1], ARGV[1])
if redis.call('ZSCORE', KEYS[2], ARGV[2]) == false then
	redis.call('ZADD', KEYS[2], redis.call('INCR', KEYS[3]), ARGV[2])
end
return 1
`)

// Put stores doc under runID.
func (r *RunStore) Put(ctx context.Context, runID string, doc []byte) error {
	keys := []string{r.runKey(runID), r.indexKey(), r.seqKey()}
	if err := putRun.Run(ctx, r.client, keys, doc, runID).Err(); err != nil {
		return fmt.Errorf("failed to archive run %s: %w", runID, err)
	}
	return nil
}

// Get reads the document of runID.
func (r *RunStore) Get(ctx context.Context, runID string) ([]byte, error) {
	doc, err := r.client.Get(ctx, r.runKey(runID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, fmt.Errorf("run %s: %w", runID, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return doc, nil
}

// List returns archived run IDs, oldest first.
func (r *RunStore) List(ctx context.Context) ([]string, error) {
	ids, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return ids, nil
}
