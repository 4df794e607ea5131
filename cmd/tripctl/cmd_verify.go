package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tripshare/internal/app"
	"tripshare/internal/model"
)

var errRejected = errors.New("credentials rejected")

var verifyCmd = &cobra.Command{
	Use:   "verify <username>",
	Short: "Check a username and password against the user store",
	Long: `Reads the password from the first line of stdin and runs the same
credential check as POST /auth/login. Prints the identity as JSON on success.

Example:
  echo demo123 | tripctl verify yael_travel`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		return verifyCredentials(cmd.Context(), a.Verifier, args[0], cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// Verifier is satisfied by *service.CredentialVerifier.
type Verifier interface {
	Verify(ctx context.Context, username, password string) (*model.Identity, error)
}

func verifyCredentials(ctx context.Context, v Verifier, username string, in io.Reader, out io.Writer) error {
	password, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")

	identity, err := v.Verify(ctx, username, password)
	switch {
	case errors.Is(err, model.ErrMissingCredentials):
		fmt.Fprintln(out, "rejected: missing credentials")
		return errRejected
	case errors.Is(err, model.ErrInvalidCredentials):
		fmt.Fprintln(out, "rejected: invalid credentials")
		return errRejected
	case err != nil:
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(identity)
}
