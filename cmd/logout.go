package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/busmind/stopfinder-cli/internal/domain"
)

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored account and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := app.repo.Load(cmd.Context())
			if err != nil {
				if errors.Is(err, domain.ErrAccountNotConfigured) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No account configured.")
					return nil
				}
				return err
			}

			if err := app.secretStore.Delete(cmd.Context(), account.SecretRef); err != nil {
				return fmt.Errorf("delete account password: %w", err)
			}

			if err := app.repo.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear account: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged out %s\n", account.Username)
			return nil
		},
	}
}
