package process_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/aretw0/pitstop/pkg/adapters/process"
	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helper re-executes the test binary as a fake plugin running mode.
func helper(mode string) process.ProcessConfig {
	return process.ProcessConfig{
		Command:     os.Args[0],
		Args:        []string{"-test.run=TestHelperProcess"},
		Environment: map[string]string{"PITSTOP_HELPER_PROCESS": mode},
		Timeout:     5 * time.Second,
	}
}

func TestHelperProcess(t *testing.T) {
	mode := os.Getenv("PITSTOP_HELPER_PROCESS")
	if mode == "" {
		return
	}
	defer os.Exit(0)

	switch mode {
	case "classify":
		var req process.ClassifyRequest
		if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
			os.Exit(2)
		}
		if req.Record.BrakeFluidPressurePSI < 450 && os.Getenv("PITSTOP_ARG_VEHICLE_ID") == req.VehicleID {
			fmt.Println("  Brakes  ")
			return
		}
		fmt.Println("Tires")
	case "compose":
		var req process.ComposeRequest
		_ = json.NewDecoder(os.Stdin).Decode(&req)
		fmt.Printf("Hi %s, DRPS %d (%s)\n", req.CustomerName, req.DRPS, os.Getenv("PITSTOP_ARG_URGENCY"))
	case "silent":
		_, _ = io.Copy(io.Discard, os.Stdin)
	case "fail":
		fmt.Fprintln(os.Stderr, "model unavailable")
		os.Exit(3)
	case "hang":
		time.Sleep(time.Minute)
	}
}

func TestClassifier(t *testing.T) {
	c := process.NewClassifier(helper("classify"))

	got, err := c.Classify(context.Background(), "veh_007",
		domain.TelemetryRecord{VehicleID: "veh_007", BrakeFluidPressurePSI: 304.5}, domain.Categories())
	require.NoError(t, err)
	assert.Equal(t, "Brakes", got, "stdout is trimmed")
}

func TestComposer(t *testing.T) {
	c := process.NewComposer(helper("compose"))

	msg, err := c.Compose(context.Background(), domain.OutreachRequest{CustomerName: "Neha", DRPS: 95, Urgency: domain.UrgencyHigh})
	require.NoError(t, err)
	assert.Equal(t, "Hi Neha, DRPS 95 (urgent)", msg)

	_, err = process.NewComposer(helper("silent")).Compose(context.Background(), domain.OutreachRequest{})
	assert.ErrorContains(t, err, "empty message")
}

func TestRun_Failures(t *testing.T) {
	ctx := context.Background()
	rec := domain.TelemetryRecord{VehicleID: "veh_007"}

	_, err := process.NewClassifier(helper("fail")).Classify(ctx, "veh_007", rec, nil)
	assert.ErrorContains(t, err, "model unavailable")

	cfg := helper("hang")
	cfg.Timeout = 200 * time.Millisecond
	start := time.Now()
	_, err = process.NewClassifier(cfg).Classify(ctx, "veh_007", rec, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)

	_, err = process.NewClassifier(process.ProcessConfig{}).Classify(ctx, "veh_007", rec, nil)
	assert.ErrorContains(t, err, "command is required")
}
