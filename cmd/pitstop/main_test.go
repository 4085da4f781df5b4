package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/pitstop/pkg/adapters/redis"
	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVersion(t *testing.T) {
	assert.Regexp(t, `^pitstop version \d+\.\d+\.\d+\n$`, execute(t, "version"))
}

func TestPolicy(t *testing.T) {
	out := execute(t, "policy")
	assert.Contains(t, out, "roles:")
	assert.Contains(t, out, "SchedulingAgent:")
	assert.NotContains(t, out, "get_payment_history")
}

func TestValidate(t *testing.T) {
	out := execute(t, "validate", "--log-level", "error")
	assert.Contains(t, out, "Graph is valid!")
	assert.Contains(t, out, "6 nodes, 5 edges")
}

func TestGraph(t *testing.T) {
	out := execute(t, "graph", "--log-level", "error", "--run")
	assert.Contains(t, out, `customer_engagement -- "continue_to_scheduling" --> scheduling`)
	assert.Contains(t, out, "class feedback_and_insight current;")
}

func TestGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fleet")
	out := execute(t, "generate", dir, "--vehicles", "3", "--samples", "40", "--faulty", "2")

	assert.Contains(t, out, "Wrote 120 telemetry samples for 3 vehicles")
	_, err := os.Stat(filepath.Join(dir, "vehicle_telematics.csv"))
	assert.NoError(t, err)
}

func TestRuns(t *testing.T) {
	mr := miniredis.RunT(t)
	store := redis.New(mr.Addr(), "", 0)
	defer store.Close()

	archive := persistence.NewArchive(store.Runs())
	st := domain.NewState("run-archived")
	st.Status = domain.StatusCompleted
	st.VehicleID = "veh_007"
	require.NoError(t, archive.Save(context.Background(), st))

	out := execute(t, "runs", "--redis", mr.Addr(), "--json", "--log-level", "error")
	assert.Contains(t, out, `"run_id": "run-archived"`)

	out = execute(t, "runs", "run-archived", "--redis", mr.Addr(), "--json", "--log-level", "error")
	assert.Contains(t, out, `"vehicle_id": "veh_007"`)
}
