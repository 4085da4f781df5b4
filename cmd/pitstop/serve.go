package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/pitstop/pkg/adapters/memory"
	"github.com/aretw0/pitstop/pkg/adapters/scheduler"
	"github.com/spf13/cobra"
)

var serveSchedulerCmd = &cobra.Command{
	Use:   "serve-scheduler",
	Short: "Start the mock service-center scheduling API",
	Long: `Serves the scheduling backend over HTTP: slot listing, booking and a
payment-history endpoint that always refuses. Prometheus metrics are on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		slots, _ := cmd.Flags().GetStringSlice("slots")

		handler := scheduler.NewServer(memory.NewScheduler(slots...), scheduler.WithLogger(logger)).Handler()
		srv := &http.Server{
			Addr:              cfg.Scheduler.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		}

		return listenAndServe(srv, "scheduling API", logger)
	},
}

func init() {
	rootCmd.AddCommand(serveSchedulerCmd)

	serveSchedulerCmd.Flags().String("scheduler-addr", ":8000", "Address to listen on")
	serveSchedulerCmd.Flags().StringSlice("slots", memory.DefaultSlots, "Slots offered by the service center")
}

// listenAndServe runs srv until it fails or the process is interrupted, then
// shuts it down gracefully.
func listenAndServe(srv *http.Server, name string, logger *slog.Logger) error {
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(name+" listening", "address", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("shutdown started", "signal", sig)

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown did not complete", "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		logger.Info(name + " stopped gracefully")
	}
	return nil
}
