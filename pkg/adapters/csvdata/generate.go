package csvdata

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/aretw0/pitstop/pkg/domain"
)

// GenerateOptions controls the synthetic fleet.
type GenerateOptions struct {
	Vehicles int       // Number of vehicles, default 10
	Samples  int       // Telemetry samples per vehicle, default 100
	Faulty   int       // 1-based index of the vehicle with failing brakes, default 7
	Seed     uint64    // Random seed; the same seed yields the same fleet
	Now      time.Time // Timestamp of the newest sample, default time.Now()
}

var styles = []domain.DrivingStyle{domain.DrivingCity, domain.DrivingHighway, domain.DrivingMixed}

var customerNames = []string{"Priya", "Rohan", "Anjali", "Vikram", "Sonia", "Amit", "Neha", "Karan", "Meera", "Arjun"}

// Generate builds a synthetic fleet: healthy telemetry for every vehicle
// except one whose brake pressure and pads degrade over its 30 latest samples.
func Generate(opts GenerateOptions) domain.FleetData {
	if opts.Vehicles <= 0 {
		opts.Vehicles = 10
	}
	if opts.Samples <= 0 {
		opts.Samples = 100
	}
	if opts.Faulty <= 0 {
		opts.Faulty = 7
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	round2 := func(v float64) float64 { return math.Round(v*100) / 100 }

	var data domain.FleetData
	for i := 1; i <= opts.Vehicles; i++ {
		vehicleID := fmt.Sprintf("veh_%03d", i)
		for j := 0; j < opts.Samples; j++ {
			pressure, thickness := 550.0, 12.0
			if i == opts.Faulty && j < 30 {
				pressure = 450 - float64(30-j)*5
				thickness = 8.0 - float64(30-j)*0.2
			}
			rec := domain.TelemetryRecord{
				VehicleID:             vehicleID,
				Timestamp:             opts.Now.Add(-time.Duration(j) * time.Minute),
				OdometerKM:            float64(45000 + i*1000 + j*2),
				BrakeFluidPressurePSI: round2(pressure + rng.Float64()*4 - 2),
				BrakePadThicknessMM:   round2(thickness - rng.Float64()*0.1),
			}
			if pressure < 400 {
				rec.DTCCode = domain.CategoryBrakes.DTCCode()
			}
			data.Telemetry = append(data.Telemetry, rec)
		}

		data.Profiles = append(data.Profiles, domain.CustomerProfile{
			VehicleID:    vehicleID,
			CustomerID:   fmt.Sprintf("cust_%d", 100+i),
			CustomerName: customerNames[(i-1)%len(customerNames)],
			DrivingStyle: styles[rng.IntN(len(styles))],
			AvgDailyKM:   30 + rng.IntN(121),
			HealthScore:  750 + rng.IntN(201),
		})
	}

	data.Maintenance = []domain.MaintenanceLog{
		{RecordID: 1, VehicleID: "veh_003", ServiceDate: "2025-05-10", Description: "Annual Service"},
		{RecordID: 2, VehicleID: "veh_007", ServiceDate: "2025-01-20", Description: "Tire rotation"},
		{RecordID: 3, VehicleID: "veh_009", ServiceDate: "2025-07-30", Description: "Replaced brake master cylinder", DTCCodeAtService: "C0204"},
	}
	data.RCA = []domain.RCARecord{{
		RCAID:                "RCA-112",
		PartNumber:           "BCM-45-A2",
		PartName:             "Brake Master Cylinder",
		FailureMode:          "Internal Seal Degradation",
		RootCause:            "Material impurity from supplier batch #XYZ",
		CorrectiveActionPlan: "Recall batch #XYZ",
		DTCCode:              "C0204",
	}}
	return data
}
