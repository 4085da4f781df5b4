package ports

import (
	"context"
	"testing"

	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ContractFleet is the reference data loaded by RunProfileStoreContract.
func ContractFleet() domain.FleetData {
	return domain.FleetData{
		Profiles: []domain.CustomerProfile{
			{VehicleID: "veh_007", CustomerID: "cust_107", CustomerName: "Neha", DrivingStyle: domain.DrivingHighway, HealthScore: 800},
			{VehicleID: "veh_009", CustomerID: "cust_109", CustomerName: "Meera", DrivingStyle: domain.DrivingCity, HealthScore: 900},
		},
		Maintenance: []domain.MaintenanceLog{
			{RecordID: 1, VehicleID: "veh_003", Description: "Annual Service"},
			{RecordID: 2, VehicleID: "veh_007", Description: "Tire rotation"},
			{RecordID: 3, VehicleID: "veh_009", Description: "Replaced brake master cylinder", DTCCodeAtService: "C0204"},
		},
		RCA: []domain.RCARecord{
			{RCAID: "RCA-112", PartNumber: "BCM-45-A2", PartName: "Brake Master Cylinder", DTCCode: "C0204"},
		},
	}
}

// RunProfileStoreContract runs a suite of tests to verify that a ProfileStore
// implementation adheres to the defined interface contract.
func RunProfileStoreContract(t *testing.T, store SeedableProfileStore) {
	ctx := context.Background()
	require.NoError(t, store.Seed(ctx, ContractFleet()), "Seed should not return error")

	t.Run("Recurrence Count", func(t *testing.T) {
		n, err := store.RecurrenceCount(ctx, "C0204")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = store.RecurrenceCount(ctx, "P0300")
		require.NoError(t, err)
		assert.Equal(t, 0, n, "unknown code has no recurrence")
	})

	t.Run("Root Cause", func(t *testing.T) {
		rca, err := store.RootCause(ctx, "C0204")
		require.NoError(t, err)
		assert.Equal(t, "RCA-112", rca.RCAID)

		_, err = store.RootCause(ctx, "P0300")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Add Health Score", func(t *testing.T) {
		score, err := store.AddHealthScore(ctx, "veh_007", 50)
		require.NoError(t, err)
		assert.Equal(t, 850, score)

		score, err = store.AddHealthScore(ctx, "veh_007", 50)
		require.NoError(t, err)
		assert.Equal(t, 900, score, "increments accumulate")
	})

	t.Run("Add Health Score Unknown Vehicle", func(t *testing.T) {
		_, err := store.AddHealthScore(ctx, "veh_999", 50)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
