// Command tripctl runs operational tasks against a tripshare deployment:
// schema migration, demo seeding, stream workers and credential checks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tripshare/internal/config"
	"tripshare/internal/logger"
)

var (
	cfg      *config.Config
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "tripctl",
	Short: "Operational commands for the tripshare backend",
	Long: `tripctl shares configuration with the API server: it reads .env and the
process environment (STORE_DRIVER, DB_*, REDIS_URL, JWT_SECRET, ...).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			loaded.LogLevel = logLevel
		}
		cfg = loaded
		logger.Init("tripctl", cfg.AppEnv, cfg.LogLevel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(pruneTokensCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
