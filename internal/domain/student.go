package domain

import "strings"

type RiderID string

// Student is the per-rider schedule view assembled from the upstream
// day-by-day payload. Trips keep their encounter order across days.
type Student struct {
	RiderID   RiderID
	FirstName string
	LastName  string
	Grade     string
	School    string
	Trips     []Trip
}

func (s Student) DisplayName() string {
	name := strings.TrimSpace(s.FirstName + " " + s.LastName)
	if name == "" {
		return string(s.RiderID)
	}

	return name
}

// Trip is a single bus run for a student. Time fields are ISO-8601 strings
// after date repair and minute adjustment; missing upstream values are empty
// strings, never nulls.
type Trip struct {
	Name            string
	BusNumber       string
	PickupTime      string
	PickupStopName  string
	DropoffTime     string
	DropoffStopName string
	ToSchool        bool
	VehicleID       string
	StartTime       string
	FinishTime      string
}

// DirectionTime returns the time field relevant for a direction: pickup for
// to-school trips, dropoff (falling back to pickup) otherwise.
func (t Trip) DirectionTime(dir Direction) string {
	if dir == DirectionToSchool {
		return t.PickupTime
	}
	if t.DropoffTime != "" {
		return t.DropoffTime
	}

	return t.PickupTime
}
