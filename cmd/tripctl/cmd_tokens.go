package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tripshare/internal/app"
)

var pruneGrace time.Duration

var pruneTokensCmd = &cobra.Command{
	Use:   "prune-tokens",
	Short: "Delete refresh tokens that expired a while ago",
	Long: `Removes refresh tokens whose expiry is older than --older-than. Recently
expired tokens are kept so reuse of a just-expired token is still reported.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Tokens.PruneExpired(cmd.Context(), pruneGrace)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d refresh tokens\n", n)
		return nil
	},
}

func init() {
	pruneTokensCmd.Flags().DurationVar(&pruneGrace, "older-than", 7*24*time.Hour, "Only delete tokens expired for at least this long")
}
