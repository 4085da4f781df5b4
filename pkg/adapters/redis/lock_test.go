package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/pitstop/pkg/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_LockAndRelease(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewFromClient(client).Locker()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "veh_007", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("pitstop:lock:veh_007"))

	busy, cancel := context.WithTimeout(ctx, 120*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(busy, "veh_007", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "held lock blocks")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("pitstop:lock:veh_007"))

	unlock, err = locker.Lock(ctx, "veh_007", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}

func TestLocker_StaleUnlockKeepsNewHolder(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewFromClient(client).Locker()
	ctx := context.Background()

	stale, err := locker.Lock(ctx, "veh_007", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	fresh, err := locker.Lock(ctx, "veh_007", time.Minute)
	require.NoError(t, err)

	require.NoError(t, stale(ctx))
	assert.True(t, mr.Exists("pitstop:lock:veh_007"), "expired holder must not free the new lock")
	require.NoError(t, fresh(ctx))
}
