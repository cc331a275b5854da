package stopfinder

import (
	"strings"
	"time"

	"github.com/busmind/stopfinder-cli/internal/domain"
	"github.com/rs/zerolog"
)

// scheduleDay is one upstream day-object. The payload is decoded leniently:
// absent fields fall back to their zero values.
type scheduleDay struct {
	Date             string            `json:"date"`
	StudentSchedules []studentSchedule `json:"studentSchedules"`
}

type studentSchedule struct {
	RiderID   string    `json:"riderId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Grade     string    `json:"grade"`
	School    string    `json:"school"`
	Trips     []rawTrip `json:"trips"`
}

type rawTrip struct {
	Name            string `json:"name"`
	BusNumber       string `json:"busNumber"`
	PickUpTime      string `json:"pickUpTime"`
	PickUpStopName  string `json:"pickUpStopName"`
	DropOffTime     string `json:"dropOffTime"`
	DropOffStopName string `json:"dropOffStopName"`
	ToSchool        bool   `json:"toSchool"`
	VehicleID       string `json:"vehicleId"`
	StartTime       string `json:"startTime"`
	FinishTime      string `json:"finishTime"`
	AdjustMinutes   int    `json:"adjustMinutes"`
}

// normalizeSchedules flattens the day-by-day payload into one Student per
// riderId. Identity fields are taken from the first day a rider appears in;
// trips accumulate across days in the order the days were returned.
func normalizeSchedules(days []scheduleDay, logger zerolog.Logger) []domain.Student {
	byRider := map[domain.RiderID]*domain.Student{}
	order := make([]domain.RiderID, 0, len(days))

	logger.Debug().Int("days", len(days)).Msg("normalizing schedule payload")
	for _, day := range days {
		canonicalDate := day.Date
		if len(canonicalDate) > 10 {
			canonicalDate = canonicalDate[:10]
		}

		for _, schedule := range day.StudentSchedules {
			riderID := domain.RiderID(schedule.RiderID)
			student, ok := byRider[riderID]
			if !ok {
				student = &domain.Student{
					RiderID:   riderID,
					FirstName: schedule.FirstName,
					LastName:  schedule.LastName,
					Grade:     schedule.Grade,
					School:    schedule.School,
				}
				byRider[riderID] = student
				order = append(order, riderID)
			}

			for _, trip := range schedule.Trips {
				student.Trips = append(student.Trips, normalizeTrip(trip, canonicalDate, logger))
			}
		}
	}

	students := make([]domain.Student, 0, len(order))
	for _, riderID := range order {
		students = append(students, *byRider[riderID])
	}

	return students
}

func normalizeTrip(trip rawTrip, canonicalDate string, logger zerolog.Logger) domain.Trip {
	pickup := adjustTime(repairDate(trip.PickUpTime, canonicalDate), trip.AdjustMinutes)
	dropoff := adjustTime(repairDate(trip.DropOffTime, canonicalDate), trip.AdjustMinutes)
	start := adjustTime(repairDate(trip.StartTime, canonicalDate), trip.AdjustMinutes)
	finish := adjustTime(repairDate(trip.FinishTime, canonicalDate), trip.AdjustMinutes)

	logger.Debug().
		Str("date", canonicalDate).
		Str("trip", trip.Name).
		Bool("to_school", trip.ToSchool).
		Int("adjust_minutes", trip.AdjustMinutes).
		Str("pickup", pickup).
		Str("dropoff", dropoff).
		Msg("normalized trip")

	return domain.Trip{
		Name:            trip.Name,
		BusNumber:       trip.BusNumber,
		PickupTime:      pickup,
		PickupStopName:  trip.PickUpStopName,
		DropoffTime:     dropoff,
		DropoffStopName: trip.DropOffStopName,
		ToSchool:        trip.ToSchool,
		VehicleID:       trip.VehicleID,
		StartTime:       start,
		FinishTime:      finish,
	}
}

// repairDate replaces the date part of a trip timestamp with the day's
// canonical date. Upstream embeds an unrelated static date in trip times; the
// real date lives on the parent day-object. Values that do not look like a
// date-time pass through unchanged.
func repairDate(value, canonicalDate string) string {
	if value == "" || len(canonicalDate) < 10 {
		return value
	}
	if len(value) >= 10 && strings.Contains(value, "T") {
		return canonicalDate + value[10:]
	}

	return value
}

// adjustTimeLayouts mirror the shapes upstream emits; the matched layout is
// reused for re-serialization so the zone suffix style survives adjustment.
var adjustTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// adjustTime shifts a repaired timestamp by the trip's adjustMinutes offset.
// A zero offset returns the input verbatim, and unparseable values pass
// through unchanged.
func adjustTime(value string, offsetMinutes int) string {
	if value == "" || offsetMinutes == 0 {
		return value
	}

	for _, layout := range adjustTimeLayouts {
		at, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		return at.Add(time.Duration(offsetMinutes) * time.Minute).Format(layout)
	}

	return value
}
