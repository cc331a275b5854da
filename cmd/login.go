package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/busmind/stopfinder-cli/internal/adapters/secrets"
	"github.com/busmind/stopfinder-cli/internal/domain"
)

func newLoginCmd(app *app) *cobra.Command {
	var baseURL string
	var username string
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Validate credentials and store the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			account := domain.Account{
				BaseURL:   strings.TrimRight(baseURL, "/"),
				Username:  strings.TrimSpace(username),
				SecretRef: secrets.PasswordKey(strings.TrimSpace(username)),
			}

			source := app.scheduleSource(account, password)
			if err := source.EnsureAuthenticated(cmd.Context()); err != nil {
				switch {
				case domain.IsAuthError(err):
					return fmt.Errorf("invalid credentials for %s: %w", account.Username, err)
				case domain.IsConnectionError(err):
					return fmt.Errorf("cannot reach %s: %w", account.BaseURL, err)
				default:
					return fmt.Errorf("login failed: %w", err)
				}
			}

			if err := app.secretStore.Put(cmd.Context(), account.SecretRef, password); err != nil {
				return fmt.Errorf("store account password: %w", err)
			}

			if err := app.repo.Save(cmd.Context(), account); err != nil {
				return fmt.Errorf("save account: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", account.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", app.baseURL, "Stopfinder tenant base URL")
	cmd.Flags().StringVar(&username, "username", "", "Account email address")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
