package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/pitstop/internal/cli"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the fleet reference data into redis",
	Long: `Writes customer profiles, trouble-code recurrence and root-cause analyses
into the redis profile store, from --data-dir or from the generated demo fleet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		if cfg.Redis.Addr == "" {
			return errors.New("--redis (or PITSTOP_REDIS_ADDR) is required")
		}

		ctx := context.Background()
		stack, err := cli.BuildStack(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer stack.Close()

		if err := stack.Seed(ctx); err != nil {
			return fmt.Errorf("failed to seed: %w", err)
		}
		cli.PrintSystemMessage(cmd.OutOrStdout(), "Seeded %d profiles, %d maintenance logs and %d analyses from %s",
			len(stack.Data.Profiles), len(stack.Data.Maintenance), len(stack.Data.RCA), stack.Source)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("data-dir", "", "Directory with the fleet CSV files (default: generated demo fleet)")
	seedCmd.Flags().String("redis", "", "Redis address of the profile store")
	seedCmd.Flags().String("redis-prefix", "pitstop:", "Key prefix in redis")
}
