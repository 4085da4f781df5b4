package csvdata_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/pitstop/pkg/adapters/csvdata"
	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const telemetryCSV = `vehicle_id,timestamp,odometer_km,brake_fluid_pressure_psi,brake_pad_thickness_mm,dtc_code
veh_001,2025-10-12 14:33:21.123456,46000,551.2,11.95,
veh_007,2025-10-12 14:33:21.123456,52000,301.87,1.97,C0204
veh_007,2025-10-12 14:32:21.123456,52002,306.1,2.18,C0204
`

func TestReadTelemetry(t *testing.T) {
	recs, err := csvdata.ReadTelemetry(strings.NewReader(telemetryCSV))
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "veh_001", recs[0].VehicleID)
	assert.Empty(t, recs[0].DTCCode, "empty cell leaves the zero value")
	assert.Equal(t, 46000.0, recs[0].OdometerKM)
	assert.Equal(t, 301.87, recs[1].BrakeFluidPressurePSI)
	assert.Equal(t, "C0204", recs[1].DTCCode)
	assert.Equal(t, time.Date(2025, 10, 12, 14, 33, 21, 123456000, time.UTC), recs[1].Timestamp)
}

func TestReadTelemetry_BadCell(t *testing.T) {
	_, err := csvdata.ReadTelemetry(strings.NewReader("vehicle_id,brake_fluid_pressure_psi\nveh_001,lots\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadProfiles(t *testing.T) {
	in := "vehicle_id,customer_id,customer_name,driving_style,avg_daily_km,health_score\nveh_007,cust_107,Neha,Highway,88,812\n"
	profiles, err := csvdata.ReadProfiles(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []domain.CustomerProfile{{
		VehicleID: "veh_007", CustomerID: "cust_107", CustomerName: "Neha",
		DrivingStyle: domain.DrivingHighway, AvgDailyKM: 88, HealthScore: 812,
	}}, profiles)
}

func TestWriteLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 10, 12, 9, 0, 0, 0, time.UTC)
	data := csvdata.Generate(csvdata.GenerateOptions{Vehicles: 3, Samples: 40, Faulty: 2, Seed: 42, Now: now})
	require.NoError(t, csvdata.Write(dir, data))

	loaded, err := csvdata.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, data.Profiles, loaded.Profiles)
	assert.Equal(t, data.Maintenance, loaded.Maintenance)
	assert.Equal(t, data.RCA, loaded.RCA)
	require.Len(t, loaded.Telemetry, len(data.Telemetry))
	for i := range data.Telemetry {
		assert.Equal(t, data.Telemetry[i].BrakeFluidPressurePSI, loaded.Telemetry[i].BrakeFluidPressurePSI)
		assert.True(t, data.Telemetry[i].Timestamp.Equal(loaded.Telemetry[i].Timestamp))
	}
}

func TestLoad_OptionalFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, csvdata.TelemetryFile), []byte(telemetryCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, csvdata.ProfilesFile), []byte("vehicle_id,customer_id\nveh_007,cust_107\n"), 0o644))

	data, err := csvdata.Load(dir)
	require.NoError(t, err)
	assert.Len(t, data.Telemetry, 3)
	assert.Empty(t, data.Maintenance)
	assert.Empty(t, data.RCA)

	_, err = csvdata.Load(t.TempDir())
	assert.Error(t, err, "telemetry is required")
}

func TestSource(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 10, 12, 9, 0, 0, 0, time.UTC)
	require.NoError(t, csvdata.Write(dir, csvdata.Generate(csvdata.GenerateOptions{Seed: 7, Now: now})))

	src := csvdata.NewSource(dir)
	ctx := context.Background()

	rec, err := src.FetchFlagged(ctx, 450)
	require.NoError(t, err)
	assert.Equal(t, "veh_007", rec.VehicleID)
	assert.InDelta(t, 300, rec.BrakeFluidPressurePSI, 2, "the newest sample is the worst")
	assert.Equal(t, "C0204", rec.DTCCode)
	assert.True(t, rec.Timestamp.Equal(now))

	flagged, err := src.FlaggedVehicles(ctx, 450)
	require.NoError(t, err)
	assert.Len(t, flagged, 1)

	profile, err := src.LookupProfile(ctx, "veh_007")
	require.NoError(t, err)
	assert.Equal(t, "Neha", profile.CustomerName)
	assert.Equal(t, "cust_107", profile.CustomerID)

	_, err = src.LookupProfile(ctx, "veh_404")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	_, err = src.FetchFlagged(ctx, 100)
	assert.ErrorIs(t, err, ports.ErrNoFlaggedRecord)
}

func TestGenerate_Deterministic(t *testing.T) {
	now := time.Date(2025, 10, 12, 9, 0, 0, 0, time.UTC)
	a := csvdata.Generate(csvdata.GenerateOptions{Seed: 1, Now: now})
	b := csvdata.Generate(csvdata.GenerateOptions{Seed: 1, Now: now})
	assert.Equal(t, a, b)
	assert.Len(t, a.Telemetry, 1000)
	assert.Len(t, a.Profiles, 10)

	for _, p := range a.Profiles {
		assert.GreaterOrEqual(t, p.HealthScore, 750)
		assert.LessOrEqual(t, p.HealthScore, 950)
	}
}

func TestWrite_SafetyImpactScores(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, csvdata.Write(dir, ports.ContractFleet()))

	raw, err := os.ReadFile(filepath.Join(dir, csvdata.SeverityFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, len(domain.Categories())+1)
	assert.Equal(t, "component,safety_impact_score", lines[0])
	assert.Equal(t, "Brakes,10", lines[1])
	assert.Equal(t, "AC System,3", lines[7])
	assert.Equal(t, "Infotainment,1", lines[8])
}

func TestProfileStore_WritesBack(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	data := ports.ContractFleet()
	require.NoError(t, csvdata.Write(dir, data))

	store := csvdata.NewProfileStore(dir, data)
	score, err := store.AddHealthScore(ctx, "veh_007", 50)
	require.NoError(t, err)
	assert.Equal(t, 850, score)

	_, err = store.AddHealthScore(ctx, "veh_404", 50)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	loaded, err := csvdata.Load(dir)
	require.NoError(t, err)
	require.Len(t, loaded.Profiles, len(data.Profiles))
	for i, p := range loaded.Profiles {
		want := data.Profiles[i]
		if want.VehicleID == "veh_007" {
			want.HealthScore = 850
		}
		assert.Equal(t, want, p)
	}

	info, err := os.Stat(filepath.Join(dir, csvdata.ProfilesFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 5, "no temporary file is left behind")
}

func TestProfileStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	data := ports.ContractFleet()
	require.NoError(t, csvdata.Write(dir, data))
	store := csvdata.NewProfileStore(dir, data)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.AddHealthScore(ctx, "veh_009", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	loaded, err := csvdata.Load(dir)
	require.NoError(t, err)
	for _, p := range loaded.Profiles {
		if p.VehicleID == "veh_009" {
			assert.Equal(t, 908, p.HealthScore)
		}
	}
	p, ok := store.Profile("veh_009")
	require.True(t, ok)
	assert.Equal(t, 908, p.HealthScore)
}

func TestProfileStore_Contract(t *testing.T) {
	ports.RunProfileStoreContract(t, csvdata.NewProfileStore(t.TempDir(), domain.FleetData{}))
}
