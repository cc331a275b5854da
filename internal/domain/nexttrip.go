package domain

import (
	"fmt"
	"time"
)

type Direction string

const (
	DirectionAny        Direction = "any"
	DirectionToSchool   Direction = "to-school"
	DirectionFromSchool Direction = "from-school"
)

func ParseDirection(value string) (Direction, error) {
	switch Direction(value) {
	case DirectionAny, "":
		return DirectionAny, nil
	case DirectionToSchool:
		return DirectionToSchool, nil
	case DirectionFromSchool:
		return DirectionFromSchool, nil
	default:
		return "", fmt.Errorf("unknown direction %q (want any, to-school or from-school)", value)
	}
}

func (d Direction) matches(t Trip) bool {
	switch d {
	case DirectionToSchool:
		return t.ToSchool
	case DirectionFromSchool:
		return !t.ToSchool
	default:
		return true
	}
}

// Trip timestamps come back with or without a zone suffix depending on the
// district, so parsing tries the zoned layout first. Zone-less values are
// interpreted in local time.
var tripTimeLayouts = []struct {
	layout string
	local  bool
}{
	{layout: time.RFC3339, local: false},
	{layout: "2006-01-02T15:04:05", local: true},
}

// ParseTripTime parses an upstream trip timestamp.
func ParseTripTime(value string) (time.Time, error) {
	var lastErr error
	for _, candidate := range tripTimeLayouts {
		var (
			at  time.Time
			err error
		)
		if candidate.local {
			at, err = time.ParseInLocation(candidate.layout, value, time.Local)
		} else {
			at, err = time.Parse(candidate.layout, value)
		}
		if err == nil {
			return at, nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("parse trip time %q: %w", value, lastErr)
}

// NextTrip selects the chronologically nearest future trip matching the
// direction filter. Trips with missing, unparseable or non-future times are
// skipped; ties go to the earliest entry in list order. The second return
// value reports whether a qualifying trip was found.
func NextTrip(trips []Trip, dir Direction, now time.Time) (Trip, bool) {
	var (
		best   Trip
		bestAt time.Time
		found  bool
	)

	for _, trip := range trips {
		if !dir.matches(trip) {
			continue
		}

		value := trip.DirectionTime(dir)
		if value == "" {
			continue
		}

		at, err := ParseTripTime(value)
		if err != nil {
			continue
		}
		if !at.After(now) {
			continue
		}

		if !found || at.Before(bestAt) {
			best = trip
			bestAt = at
			found = true
		}
	}

	return best, found
}
