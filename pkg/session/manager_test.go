package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/pitstop/pkg/ports"
	"github.com/aretw0/pitstop/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SerializesSameKey(t *testing.T) {
	mgr := session.NewManager()
	ctx := context.Background()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mgr.WithLock(ctx, "veh_007", func(context.Context) error {
				n := inside.Add(1)
				for {
					m := maxInside.Load()
					if n <= m || maxInside.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside.Load())
}

func TestManager_DistinctKeysRunConcurrently(t *testing.T) {
	mgr := session.NewManager()
	ctx := context.Background()

	entered := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = mgr.WithLock(ctx, "veh_007", func(context.Context) error {
			close(entered)
			<-done
			return nil
		})
	}()
	<-entered

	err := mgr.WithLock(ctx, "veh_009", func(context.Context) error { return nil })
	close(done)
	assert.NoError(t, err)
}

func TestManager_LockLifecycle(t *testing.T) {
	mgr := session.NewManager()
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		_ = mgr.WithLock(ctx, fmt.Sprintf("veh_%d", i), func(context.Context) error { return nil })
	}
	assert.Zero(t, mgr.Active(), "locks leaked after release")
}

type fakeLocker struct {
	mu       sync.Mutex
	locked   []string
	released []string
	err      error
}

func (l *fakeLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	l.locked = append(l.locked, key)
	l.mu.Unlock()
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released = append(l.released, key)
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &fakeLocker{}
	mgr := session.NewManager(session.WithLocker(locker), session.WithTTL(time.Second))

	want := errors.New("boom")
	err := mgr.WithLock(context.Background(), "veh_007", func(context.Context) error { return want })
	assert.ErrorIs(t, err, want)
	assert.Equal(t, []string{"veh_007"}, locker.locked)
	assert.Equal(t, []string{"veh_007"}, locker.released, "released even when fn fails")

	locker.err = errors.New("redis down")
	called := false
	err = mgr.WithLock(context.Background(), "veh_009", func(context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.Zero(t, mgr.Active())
}
