package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errConnectionFailed = errors.New("connection check failed")

func newVerifyCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that the stored credentials still work",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, account, err := app.session(cmd.Context())
			if err != nil {
				return err
			}

			if !service.VerifyConnection(cmd.Context()) {
				return fmt.Errorf("%w for %s", errConnectionFailed, account.Username)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Connection ok for %s\n", account.Username)
			return nil
		},
	}
}
