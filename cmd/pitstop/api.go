package main

import (
	"context"
	"net/http"
	"time"

	"github.com/aretw0/pitstop"
	"github.com/aretw0/pitstop/internal/cli"
	"github.com/aretw0/pitstop/internal/telemetry"
	api "github.com/aretw0/pitstop/pkg/adapters/http"
	"github.com/aretw0/pitstop/pkg/observability"
	"github.com/spf13/cobra"
)

var apiCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pitstop HTTP API",
	Long: `Serves the workflow over HTTP: start runs, inspect the graph and the policy,
read archived runs and follow lifecycle events as server-sent events.
Prometheus metrics are on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		ctx := context.Background()

		shutdown, err := telemetry.SetupProvider(ctx, telemetry.Config{
			ServiceName: "pitstop-api",
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

		metrics := observability.NewMetrics()
		streams := api.NewStreamManager(logger)
		eng, err := cli.NewEngine(stack, cfg, logger, metrics, pitstop.WithLifecycleHooks(streams.Hooks()))
		if err != nil {
			return err
		}

		opts := []api.Option{
			api.WithStreams(streams),
			api.WithMetricsHandler(metrics.Handler()),
			api.WithLogger(logger),
		}
		if stack.Archive != nil {
			opts = append(opts, api.WithArchive(stack.Archive))
		}
		srv := &http.Server{
			Addr:              cfg.API.Addr,
			Handler:           api.NewServer(eng, pitstop.Version(), opts...).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		return listenAndServe(srv, "pitstop API", logger)
	},
}

func init() {
	rootCmd.AddCommand(apiCmd)

	addDataFlags(apiCmd)
	apiCmd.Flags().String("addr", ":8080", "Address to listen on")
	apiCmd.Flags().String("otlp-endpoint", "", "OTLP/gRPC endpoint for traces")
	apiCmd.Flags().Bool("otlp-insecure", false, "Disable TLS towards the OTLP endpoint")
}
