package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/pitstop"
	"github.com/aretw0/pitstop/internal/cli"
	"github.com/aretw0/pitstop/internal/presentation/tui"
	"github.com/aretw0/pitstop/internal/telemetry"
	"github.com/aretw0/pitstop/pkg/guard"
	"github.com/aretw0/pitstop/pkg/observability"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the maintenance workflow",
	Long: `Runs the workflow once on the first flagged vehicle, or once per flagged
vehicle with --fleet. Without --data-dir a deterministic demo fleet is generated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		fleet, _ := cmd.Flags().GetInt("fleet")
		jsonMode, _ := cmd.Flags().GetBool("json")
		quiet, _ := cmd.Flags().GetBool("quiet")
		seed, _ := cmd.Flags().GetBool("seed")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		shutdown, err := telemetry.SetupProvider(ctx, telemetry.Config{
			ServiceName: "pitstop",
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
			Version:     pitstop.Version(),
		})
		if err != nil {
			return err
		}
		defer flush(shutdown, logger)

		stack, err := cli.BuildStack(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer stack.Close()
		if seed {
			if err := stack.Seed(ctx); err != nil {
				return fmt.Errorf("failed to seed profile store: %w", err)
			}
		}

		metrics := observability.NewMetrics()
		if cfg.Metrics.Addr != "" {
			stop := serveMetrics(cfg.Metrics.Addr, metrics, logger)
			defer stop()
		}

		recorder := guard.NewRecorder()
		eng, err := cli.NewEngine(stack, cfg, logger, metrics, pitstop.WithAuditSink(recorder))
		if err != nil {
			return err
		}

		if !jsonMode && !quiet && tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(os.Stdout)
			cli.PrintSystemMessage(os.Stdout, "Telemetry source: %s", stack.Source)
		}

		var reports []cli.RunReport
		if fleet > 0 {
			results, err := eng.RunFleet(ctx, fleet)
			if err != nil {
				return err
			}
			for _, r := range results {
				reports = append(reports, cli.NewRunReport(r.State, r.Failure, recorder.ForRun(r.State.RunID)))
			}
		} else {
			st, failure := eng.Run(ctx)
			reports = append(reports, cli.NewRunReport(st, failure, recorder.ForRun(st.RunID)))
		}

		if jsonMode {
			err = cli.PrintJSON(os.Stdout, reports...)
		} else {
			err = cli.PrintMarkdown(os.Stdout, reports...)
		}
		if err != nil {
			return err
		}

		if sig := ctx.Signal(); sig != nil {
			return fmt.Errorf("interrupted by %v", sig)
		}
		for _, r := range reports {
			if r.Failure != nil {
				return errors.New("one or more runs failed")
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	addDataFlags(runCmd)
	runCmd.Flags().Int("fleet", 0, "Run once per flagged vehicle with this many runs in parallel")
	runCmd.Flags().Bool("seed", false, "Load the fleet data into the profile store before running")
	runCmd.Flags().Bool("json", false, "Print the final state as JSON")
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
	runCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address while running")
	runCmd.Flags().String("otlp-endpoint", "", "OTLP/gRPC endpoint for traces")
	runCmd.Flags().Bool("otlp-insecure", false, "Disable TLS towards the OTLP endpoint")

	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}

func serveMetrics(addr string, metrics *observability.Metrics, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info("metrics server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "err", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func flush(shutdown func(context.Context) error, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Warn("failed to flush traces", "err", err)
	}
}
