package application

import (
	"time"

	"github.com/busmind/stopfinder-cli/internal/domain"
)

// TripReading is one derived "next trip" fact with the attributes a consumer
// displays alongside it.
type TripReading struct {
	At       time.Time `json:"at"`
	StopName string    `json:"stop_name"`
	TripName string    `json:"trip_name"`
	Bus      string    `json:"bus"`
}

// Readings is the consumer-facing view of one student, rebuilt from the
// current snapshot on every request.
type Readings struct {
	RiderID     domain.RiderID `json:"rider_id"`
	StudentName string         `json:"student_name"`
	School      string         `json:"school"`
	Grade       string         `json:"grade"`
	// NextPickup is derived from the nearest future to-school trip.
	NextPickup *TripReading `json:"next_pickup,omitempty"`
	// NextDropoff is derived from the nearest future from-school trip.
	NextDropoff *TripReading `json:"next_dropoff,omitempty"`
	// BusNumber is the bus of the chronologically next trip in either
	// direction.
	BusNumber string `json:"bus_number,omitempty"`
	// NextRouteStart is the route start time of that same next trip.
	NextRouteStart *time.Time `json:"next_route_start,omitempty"`
}

// ReadingsFor derives the per-student readings from a snapshot entry.
func ReadingsFor(student domain.Student, now time.Time) Readings {
	readings := Readings{
		RiderID:     student.RiderID,
		StudentName: student.DisplayName(),
		School:      student.School,
		Grade:       student.Grade,
	}

	if trip, ok := domain.NextTrip(student.Trips, domain.DirectionToSchool, now); ok {
		readings.NextPickup = pickupReading(trip)
	}
	if trip, ok := domain.NextTrip(student.Trips, domain.DirectionFromSchool, now); ok {
		readings.NextDropoff = dropoffReading(trip)
	}
	if trip, ok := domain.NextTrip(student.Trips, domain.DirectionAny, now); ok {
		readings.BusNumber = trip.BusNumber
		if at, err := domain.ParseTripTime(trip.StartTime); err == nil {
			readings.NextRouteStart = &at
		}
	}

	return readings
}

func pickupReading(trip domain.Trip) *TripReading {
	at, err := domain.ParseTripTime(trip.PickupTime)
	if err != nil {
		return nil
	}

	return &TripReading{
		At:       at,
		StopName: trip.PickupStopName,
		TripName: trip.Name,
		Bus:      trip.BusNumber,
	}
}

func dropoffReading(trip domain.Trip) *TripReading {
	value := trip.DropoffTime
	stop := trip.DropoffStopName
	if value == "" {
		value = trip.PickupTime
		stop = trip.PickupStopName
	}

	at, err := domain.ParseTripTime(value)
	if err != nil {
		return nil
	}

	return &TripReading{
		At:       at,
		StopName: stop,
		TripName: trip.Name,
		Bus:      trip.BusNumber,
	}
}
