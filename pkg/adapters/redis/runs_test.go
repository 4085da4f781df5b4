package redis_test

import (
	"context"
	"testing"

	"github.com/aretw0/pitstop/pkg/adapters/redis"
	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/persistence"
	"github.com/aretw0/pitstop/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStore_Archive(t *testing.T) {
	mr, client := newClient(t)
	archive := persistence.NewArchive(redis.NewFromClient(client, redis.WithPrefix("fleet:")).Runs())
	ctx := context.Background()

	for _, id := range []string{"run-b", "run-a", "run-c"} {
		st := domain.NewState(id)
		st.Status = domain.StatusCompleted
		require.NoError(t, archive.Save(ctx, st))
	}
	again := domain.NewState("run-b")
	again.Status = domain.StatusFailed
	require.NoError(t, archive.Save(ctx, again))

	ids, err := archive.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"run-b", "run-a", "run-c"}, ids, "arrival order, not lexical")

	got, err := archive.Load(ctx, "run-b")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status, "latest document wins")

	assert.True(t, mr.Exists("fleet:run:run-a"))
	seq, err := mr.Get("fleet:runs:seq")
	require.NoError(t, err)
	assert.Equal(t, "3", seq)

	_, err = archive.Load(ctx, "run-z")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}
