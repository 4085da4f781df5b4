package main

import (
	"os"

	"github.com/aretw0/pitstop/internal/cli"
	"github.com/aretw0/pitstop/pkg/adapters/csvdata"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate [dir]",
	Short: "Write a synthetic fleet as CSV files",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "data"
		if len(args) > 0 {
			dir = args[0]
		}
		vehicles, _ := cmd.Flags().GetInt("vehicles")
		samples, _ := cmd.Flags().GetInt("samples")
		faulty, _ := cmd.Flags().GetInt("faulty")
		seed, _ := cmd.Flags().GetUint64("seed")

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		data := csvdata.Generate(csvdata.GenerateOptions{
			Vehicles: vehicles,
			Samples:  samples,
			Faulty:   faulty,
			Seed:     seed,
		})
		if err := csvdata.Write(dir, data); err != nil {
			return err
		}
		cli.PrintSystemMessage(cmd.OutOrStdout(), "Wrote %d telemetry samples for %d vehicles to %s", len(data.Telemetry), len(data.Profiles), dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().Int("vehicles", 10, "Number of vehicles")
	generateCmd.Flags().Int("samples", 100, "Telemetry samples per vehicle")
	generateCmd.Flags().Int("faulty", 7, "1-based index of the vehicle with failing brakes")
	generateCmd.Flags().Uint64("seed", cli.DemoSeed, "Random seed")
}
