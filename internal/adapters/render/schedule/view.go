package schedule

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/busmind/stopfinder-cli/internal/application"
	"github.com/busmind/stopfinder-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
}

func renderView(snapshot application.Snapshot, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Stopfinder Schedules"),
		s.header.Render(headerLine(snapshot, opts.Now)),
	}

	if len(snapshot.Students) == 0 {
		lines = append(lines, s.empty.Render("No students on this account."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, student := range snapshot.Students {
		lines = append(lines, s.section.Render(renderStudent(student, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func headerLine(snapshot application.Snapshot, now time.Time) string {
	header := fmt.Sprintf("students: %d", len(snapshot.Students))
	if !snapshot.FetchedAt.IsZero() {
		header += fmt.Sprintf("  fetched: %s", formatFetched(snapshot.FetchedAt, now))
	}

	return header
}

func renderStudent(student domain.Student, opts RenderOptions, s styles) string {
	parts := []string{
		s.student.Render(studentTitle(student)),
	}

	readings := application.ReadingsFor(student, opts.Now)
	parts = append(parts, nextLines(readings, opts.Now, s)...)

	for _, trip := range student.Trips {
		parts = append(parts, s.detail.Render("  "+tripLine(trip, opts.Now, s)))
	}

	if len(student.Trips) == 0 {
		parts = append(parts, s.empty.Render("  no scheduled trips"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func studentTitle(student domain.Student) string {
	title := student.DisplayName()
	details := make([]string, 0, 2)
	if student.Grade != "" {
		details = append(details, "grade "+student.Grade)
	}
	if student.School != "" {
		details = append(details, student.School)
	}
	if len(details) > 0 {
		title += fmt.Sprintf(" (%s)", strings.Join(details, ", "))
	}

	return title
}

func nextLines(readings application.Readings, now time.Time, s styles) []string {
	lines := make([]string, 0, 2)

	if reading := readings.NextPickup; reading != nil {
		lines = append(lines, nextLine("next pickup:", *reading, now, s))
	}
	if reading := readings.NextDropoff; reading != nil {
		lines = append(lines, nextLine("next dropoff:", *reading, now, s))
	}

	if len(lines) == 0 {
		return []string{s.warning.Render("  no upcoming trips")}
	}

	return lines
}

func nextLine(label string, reading application.TripReading, now time.Time, s styles) string {
	segments := []string{
		"  ",
		s.tripKey.Render(label),
		" ",
		s.detail.Render(formatTripClock(reading.At, now)),
		" ",
		s.meta.Render(fmt.Sprintf("(%s)", formatRelative(reading.At, now))),
	}

	if reading.StopName != "" {
		segments = append(segments, " ", s.detail.Render("at "+reading.StopName))
	}
	if reading.Bus != "" {
		segments = append(segments, " ", s.bus.Render("bus "+reading.Bus))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, segments...)
}

func tripLine(trip domain.Trip, now time.Time, s styles) string {
	label := trip.Name
	if label == "" {
		label = "trip"
	}

	direction := "from school"
	if trip.ToSchool {
		direction = "to school"
	}

	line := fmt.Sprintf("%s (%s)", label, direction)
	if trip.BusNumber != "" {
		line += " bus " + trip.BusNumber
	}

	if at, err := domain.ParseTripTime(trip.PickupTime); err == nil {
		line += fmt.Sprintf(": pickup %s", formatTripClock(at, now))
		if trip.PickupStopName != "" {
			line += " at " + trip.PickupStopName
		}
	}
	if at, err := domain.ParseTripTime(trip.DropoffTime); err == nil {
		line += fmt.Sprintf(", dropoff %s", formatTripClock(at, now))
		if trip.DropoffStopName != "" {
			line += " at " + trip.DropoffStopName
		}
	}

	return line
}

func formatTripClock(at, now time.Time) string {
	if at.IsZero() {
		return "unknown"
	}
	if now.IsZero() {
		return at.Format(time.RFC3339)
	}

	yearA, monthA, dayA := now.Date()
	yearB, monthB, dayB := at.Date()
	if yearA == yearB && monthA == monthB && dayA == dayB {
		return at.Format("15:04")
	}

	return at.Format("15:04 on 02 Jan")
}

func formatRelative(at, now time.Time) string {
	if now.IsZero() || at.IsZero() {
		return "unknown"
	}
	if at.Before(now) {
		return "now"
	}

	remaining := at.Sub(now)
	if remaining < time.Hour {
		minutes := int(math.Ceil(remaining.Minutes()))
		if minutes < 1 {
			minutes = 1
		}
		return fmt.Sprintf("in %d %s", minutes, plural(minutes, "minute", "minutes"))
	}
	if remaining < 24*time.Hour {
		hours := int(math.Ceil(remaining.Hours()))
		return fmt.Sprintf("in %d %s", hours, plural(hours, "hour", "hours"))
	}

	days := int(math.Ceil(remaining.Hours() / 24))
	return fmt.Sprintf("in %d %s", days, plural(days, "day", "days"))
}

func formatFetched(fetchedAt, now time.Time) string {
	if now.IsZero() {
		return fetchedAt.Format(time.RFC3339)
	}

	elapsed := now.Sub(fetchedAt)
	if elapsed < time.Minute {
		return "just now"
	}
	if elapsed < time.Hour {
		minutes := int(elapsed.Minutes())
		return fmt.Sprintf("%d %s ago", minutes, plural(minutes, "minute", "minutes"))
	}

	return formatTripClock(fetchedAt, now)
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
