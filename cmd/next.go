package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/busmind/stopfinder-cli/internal/application"
	"github.com/busmind/stopfinder-cli/internal/domain"
)

func newNextCmd(app *app) *cobra.Command {
	var riderArg string
	var directionArg string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next upcoming trip for a student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			direction, err := domain.ParseDirection(directionArg)
			if err != nil {
				return err
			}

			service, _, err := app.session(cmd.Context())
			if err != nil {
				return err
			}

			snapshot, err := fetchSnapshot(cmd, service, time.Time{}, time.Time{}, asJSON)
			if err != nil {
				return err
			}

			student, err := pickStudent(snapshot, riderArg)
			if err != nil {
				return err
			}

			now := service.Now()
			readings := application.ReadingsFor(student, now)

			if asJSON {
				return writeJSON(cmd, readings)
			}

			return writeNextOutput(cmd, student, readings, direction, now)
		},
	}

	cmd.Flags().StringVar(&riderArg, "rider", "", "Rider ID (required when the account has several students)")
	cmd.Flags().StringVar(&directionArg, "direction", string(domain.DirectionAny), "Trip direction: any, to-school, or from-school")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func pickStudent(snapshot application.Snapshot, riderArg string) (domain.Student, error) {
	if len(snapshot.Students) == 0 {
		return domain.Student{}, fmt.Errorf("no students on this account")
	}

	if riderArg == "" {
		if len(snapshot.Students) == 1 {
			return snapshot.Students[0], nil
		}
		return domain.Student{}, fmt.Errorf("several students on this account, pick one with --rider (%s)", riderList(snapshot))
	}

	student, ok := snapshot.Student(domain.RiderID(riderArg))
	if !ok {
		return domain.Student{}, fmt.Errorf("no student with rider ID %q (%s)", riderArg, riderList(snapshot))
	}

	return student, nil
}

func riderList(snapshot application.Snapshot) string {
	entries := make([]string, 0, len(snapshot.Students))
	for _, student := range snapshot.Students {
		entries = append(entries, fmt.Sprintf("%s: %s", student.RiderID, student.DisplayName()))
	}

	return strings.Join(entries, ", ")
}

func writeNextOutput(cmd *cobra.Command, student domain.Student, readings application.Readings, direction domain.Direction, now time.Time) error {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, student.DisplayName())

	wrote := false
	if direction != domain.DirectionFromSchool && readings.NextPickup != nil {
		_, _ = fmt.Fprintln(out, "  pickup:  "+readingLine(*readings.NextPickup, now))
		wrote = true
	}
	if direction != domain.DirectionToSchool && readings.NextDropoff != nil {
		_, _ = fmt.Fprintln(out, "  dropoff: "+readingLine(*readings.NextDropoff, now))
		wrote = true
	}

	if !wrote {
		_, _ = fmt.Fprintln(out, "  no upcoming trips")
	}

	return nil
}

func readingLine(reading application.TripReading, now time.Time) string {
	line := reading.At.Format("15:04 on 02 Jan")
	if !now.IsZero() && sameDay(reading.At, now) {
		line = reading.At.Format("15:04")
	}

	if reading.StopName != "" {
		line += " at " + reading.StopName
	}
	if reading.Bus != "" {
		line += " (bus " + reading.Bus + ")"
	}

	return line
}

func sameDay(a, b time.Time) bool {
	yearA, monthA, dayA := a.Date()
	yearB, monthB, dayB := b.Date()
	return yearA == yearB && monthA == monthB && dayA == dayB
}
