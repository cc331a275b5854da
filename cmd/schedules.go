package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	scheduleadapter "github.com/busmind/stopfinder-cli/internal/adapters/render/schedule"
	"github.com/busmind/stopfinder-cli/internal/application"
)

const scheduleDateLayout = "2006-01-02"

func newSchedulesCmd(app *app) *cobra.Command {
	var startArg string
	var endArg string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "schedules",
		Short: "Fetch and display student bus schedules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, end, err := parseScheduleRange(startArg, endArg)
			if err != nil {
				return err
			}

			service, _, err := app.session(cmd.Context())
			if err != nil {
				return err
			}

			snapshot, err := fetchSnapshot(cmd, service, start, end, asJSON)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, snapshot)
			}

			output, err := scheduleadapter.Render(snapshot, scheduleadapter.RenderOptions{Now: service.Now()})
			if err != nil {
				return fmt.Errorf("render schedules: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&startArg, "start", "", "Range start date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&endArg, "end", "", "Range end date (YYYY-MM-DD, default one week out)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

// fetchSnapshot refreshes the schedule range, showing a spinner on
// stderr unless the caller asked for machine-readable output.
func fetchSnapshot(cmd *cobra.Command, service *application.Service, start, end time.Time, quiet bool) (application.Snapshot, error) {
	var snapshot application.Snapshot

	fetch := func(ctx context.Context) error {
		var err error
		snapshot, err = service.RefreshRange(ctx, start, end)
		return err
	}

	if quiet {
		if err := fetch(cmd.Context()); err != nil {
			return application.Snapshot{}, err
		}
		return snapshot, nil
	}

	if err := runFetchSpinner(cmd.Context(), cmd.ErrOrStderr(), "Fetching schedules...", fetch); err != nil {
		return application.Snapshot{}, err
	}

	return snapshot, nil
}

func parseScheduleRange(startArg, endArg string) (time.Time, time.Time, error) {
	var start, end time.Time

	if startArg != "" {
		parsed, err := time.ParseInLocation(scheduleDateLayout, startArg, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start date %q: expected YYYY-MM-DD", startArg)
		}
		start = parsed
	}

	if endArg != "" {
		parsed, err := time.ParseInLocation(scheduleDateLayout, endArg, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end date %q: expected YYYY-MM-DD", endArg)
		}
		end = parsed
	}

	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--end %s is before --start %s", endArg, startArg)
	}

	return start, end, nil
}

func writeJSON(cmd *cobra.Command, value any) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}
