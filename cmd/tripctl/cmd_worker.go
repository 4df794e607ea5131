package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tripshare/internal/app"
	"tripshare/internal/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume experience events into the feed and stats caches",
	Long: `Runs only the Redis stream workers, without the HTTP API. Useful when the
API servers are scaled separately. Stops on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	manager := a.NewWorkerManager()
	if manager == nil {
		return errors.New("worker requires REDIS_URL")
	}
	if err := manager.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	log := logger.For("tripctl")
	log.Info().Msg("Shutdown signal received")
	manager.Stop()
	return nil
}
