package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	scheduleadapter "github.com/busmind/stopfinder-cli/internal/adapters/render/schedule"
	"github.com/busmind/stopfinder-cli/internal/application"
)

func newWatchCmd(app *app) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll for schedule updates until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, _, err := app.session(cmd.Context())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			onUpdate := func(snapshot application.Snapshot) {
				output, err := scheduleadapter.Render(snapshot, scheduleadapter.RenderOptions{Now: service.Now()})
				if err != nil {
					app.logger.Error().Err(err).Msg("render schedules")
					return
				}

				_, _ = fmt.Fprintln(cmd.OutOrStdout(), output)
			}

			poller := application.NewPoller(service, interval, app.logger, onUpdate)

			if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", application.DefaultPollInterval, "Time between schedule refreshes")

	return cmd
}
