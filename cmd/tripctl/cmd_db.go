package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tripshare/internal/app"
	"tripshare/internal/config"
	"tripshare/internal/database"
	"tripshare/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long: `Creates the users, experiences, experience_images, comments and
refresh_tokens tables if they do not exist. Safe to run repeatedly.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo travellers, experiences and comments",
	Long: `Inserts the three demo accounts (password demo123) with their experiences
and comments. Accounts that already exist are skipped together with their content.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if cfg.StoreDriver != config.StoreDriverPostgres {
		return errors.New("migrate requires STORE_DRIVER=postgres")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(cmd.Context(), db); err != nil {
		return err
	}
	log := logger.For("tripctl")
	log.Info().Str("database", cfg.DBName).Msg("Migrate OK")
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	if cfg.StoreDriver != config.StoreDriverPostgres {
		return errors.New("seed requires STORE_DRIVER=postgres; the memory store seeds itself")
	}

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Seed(cmd.Context()); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	log := logger.For("tripctl")
	log.Info().Msg("Seed OK")
	return nil
}
