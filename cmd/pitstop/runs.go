package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/pitstop/internal/cli"
	"github.com/aretw0/pitstop/internal/presentation/tui"
	"github.com/aretw0/pitstop/pkg/domain"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List archived runs or show one of them",
	Long: `Reads the run archive kept in redis. Without arguments every archived run is
listed, oldest first. With a run ID the archived state is printed. Encrypted
archives need the same PITSTOP_ARCHIVE_KEY they were written with.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		if cfg.Redis.Addr == "" {
			return errors.New("--redis (or PITSTOP_REDIS_ADDR) is required")
		}
		cfg.Archive.Enabled = true

		ctx := context.Background()
		stack, err := cli.BuildStack(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer stack.Close()

		asJSON, _ := cmd.Flags().GetBool("json")
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			st, err := stack.Archive.Load(ctx, args[0])
			if err != nil {
				return err
			}
			report := cli.NewRunReport(st, nil, nil)
			if asJSON {
				return cli.PrintJSON(out, report)
			}
			return cli.PrintMarkdown(os.Stdout, report)
		}

		ids, err := stack.Archive.List(ctx)
		if err != nil {
			return err
		}
		states := make([]*domain.State, 0, len(ids))
		for _, id := range ids {
			st, err := stack.Archive.Load(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load run %s: %w", id, err)
			}
			states = append(states, st)
		}
		if asJSON {
			reports := make([]cli.RunReport, len(states))
			for i, st := range states {
				reports[i] = cli.NewRunReport(st, nil, nil)
			}
			return cli.PrintJSON(out, reports...)
		}
		if len(states) == 0 {
			cli.PrintSystemMessage(out, "No archived runs")
			return nil
		}
		text, err := tui.NewRenderer(os.Stdout)(tui.RunsTable(states))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, text)
		return err
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().String("redis", "", "Redis address of the run archive")
	runsCmd.Flags().String("redis-prefix", "pitstop:", "Key prefix in redis")
	runsCmd.Flags().Bool("json", false, "Print archived states as JSON")
}
