package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/pitstop/internal/cli"
	"github.com/aretw0/pitstop/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pitstop",
	Short: "Pitstop runs the role-gated predictive maintenance workflow",
	Long: `Pitstop detects failing vehicles from telemetry, diagnoses the fault, reaches
out to the owner and books a service slot. Every agent acts under a role and
every external effect is checked against the tool access policy.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a pitstop.yaml config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
}

// setup loads the configuration for cmd and creates the logger.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger, err := cli.CreateLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// addDataFlags registers the flags selecting the collaborators.
func addDataFlags(cmd *cobra.Command) {
	cmd.Flags().String("data-dir", "", "Directory with the fleet CSV files (default: generated demo fleet)")
	cmd.Flags().Float64("threshold", 450, "Brake fluid pressure (psi) below which telemetry is flagged")
	cmd.Flags().String("redis", "", "Redis address of the profile store (default: in memory)")
	cmd.Flags().String("redis-prefix", "pitstop:", "Key prefix in redis")
	cmd.Flags().String("scheduler-url", "", "Base URL of the scheduling backend (default: in memory)")
	cmd.Flags().Duration("scheduler-timeout", 0, "Timeout of scheduling backend requests")
	cmd.Flags().String("policy", "", "Path to a tool access policy YAML file")
	cmd.Flags().String("classifier-cmd", "", "External command classifying flagged telemetry (default: heuristic)")
	cmd.Flags().String("composer-cmd", "", "External command writing outreach messages (default: template)")
	cmd.Flags().Bool("archive", false, "Archive the final state of every run (in redis when --redis is set)")
}
