package pitstop_test

import (
	"context"
	"fmt"

	"github.com/aretw0/pitstop"
	"github.com/aretw0/pitstop/internal/agents"
	"github.com/aretw0/pitstop/pkg/adapters/heuristic"
	"github.com/aretw0/pitstop/pkg/adapters/memory"
	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/aretw0/pitstop/pkg/ports"
)

func Example() {
	fleet := memory.NewFleet(domain.FleetData{
		Telemetry: []domain.TelemetryRecord{
			{VehicleID: "veh_007", BrakeFluidPressurePSI: 304.5, BrakePadThicknessMM: 2.2},
		},
		Profiles: []domain.CustomerProfile{
			{VehicleID: "veh_007", CustomerID: "cust_107", CustomerName: "Neha", DrivingStyle: domain.DrivingHighway, HealthScore: 800},
		},
	})

	eng, err := pitstop.New(ports.Collaborators{
		Telemetry:  fleet,
		Classifier: heuristic.NewClassifier(agents.AnomalyThresholdPSI),
		Composer:   heuristic.MustComposer(""),
		Scheduler:  memory.NewScheduler(),
		Profiles:   fleet,
	})
	if err != nil {
		panic(err)
	}

	st, failure := eng.Run(context.Background())
	if failure != nil {
		panic(failure)
	}

	fmt.Println(*st.Diagnosis, *st.DRPS)
	fmt.Println(st.BookingStatus, st.AppointmentSlot)
	fmt.Println(st.FinalInsight)
	// Output:
	// Brakes 95
	// confirmed 11:00 AM
	// Failure linked to RCA-112. This is instance #1 of this defect recorded across the fleet. Recommend escalating for quality review.
}
