package stopfinder

import (
	"testing"

	"github.com/busmind/stopfinder-cli/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairDateReplacesLeadingDate(t *testing.T) {
	tests := []struct {
		name          string
		value         string
		canonicalDate string
		want          string
	}{
		{
			name:          "replaces wrong embedded date",
			value:         "2024-01-01T08:15:00",
			canonicalDate: "2024-03-10",
			want:          "2024-03-10T08:15:00",
		},
		{
			name:          "keeps zone suffix",
			value:         "2024-01-01T08:15:00-05:00",
			canonicalDate: "2024-03-10",
			want:          "2024-03-10T08:15:00-05:00",
		},
		{
			name:          "no T separator passes through",
			value:         "08:15 in the morning",
			canonicalDate: "2024-03-10",
			want:          "08:15 in the morning",
		},
		{
			name:          "empty value passes through",
			value:         "",
			canonicalDate: "2024-03-10",
			want:          "",
		},
		{
			name:          "short canonical date passes through",
			value:         "2024-01-01T08:15:00",
			canonicalDate: "?",
			want:          "2024-01-01T08:15:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairDate(tt.value, tt.canonicalDate))
		})
	}
}

func TestAdjustTimeAppliesOffset(t *testing.T) {
	assert.Equal(t, "2024-03-10T08:05:00", adjustTime("2024-03-10T08:15:00", -10))
	assert.Equal(t, "2024-03-10T08:30:00", adjustTime("2024-03-10T08:15:00", 15))
	assert.Equal(t, "2024-03-10T08:05:00-05:00", adjustTime("2024-03-10T08:15:00-05:00", -10))
}

func TestAdjustTimeZeroOffsetReturnsInputVerbatim(t *testing.T) {
	// A zero offset must not round-trip through a parse/format cycle, so any
	// formatting quirk in the original value survives.
	value := "2024-03-10T08:15:00.000"
	assert.Equal(t, value, adjustTime(value, 0))
}

func TestAdjustTimeUnparseableValuePassesThrough(t *testing.T) {
	assert.Equal(t, "not a timestamp", adjustTime("not a timestamp", -10))
}

func TestNormalizeMergesStudentsByRiderAcrossDays(t *testing.T) {
	days := []scheduleDay{
		{
			Date: "2024-03-10T00:00:00",
			StudentSchedules: []studentSchedule{
				{
					RiderID:   "R1",
					FirstName: "Ada",
					LastName:  "Byrne",
					Grade:     "4",
					School:    "Maple Elementary",
					Trips: []rawTrip{
						{Name: "AM Route 9", PickUpTime: "2024-01-01T07:45:00", ToSchool: true},
					},
				},
			},
		},
		{
			Date: "2024-03-11T00:00:00",
			StudentSchedules: []studentSchedule{
				{
					RiderID:   "R1",
					FirstName: "Different",
					LastName:  "Name",
					Trips: []rawTrip{
						{Name: "AM Route 9", PickUpTime: "2024-01-01T07:45:00", ToSchool: true},
					},
				},
				{
					RiderID:   "R2",
					FirstName: "Ben",
					Trips: []rawTrip{
						{Name: "PM Route 3", DropOffTime: "2024-01-01T15:10:00"},
					},
				},
			},
		},
	}

	students := normalizeSchedules(days, zerolog.Nop())
	require.Len(t, students, 2)

	ada := students[0]
	assert.Equal(t, domain.RiderID("R1"), ada.RiderID)
	// Identity fields stick from the first day the rider was seen.
	assert.Equal(t, "Ada", ada.FirstName)
	assert.Equal(t, "Byrne", ada.LastName)
	require.Len(t, ada.Trips, 2)
	assert.Equal(t, "2024-03-10T07:45:00", ada.Trips[0].PickupTime)
	assert.Equal(t, "2024-03-11T07:45:00", ada.Trips[1].PickupTime)

	ben := students[1]
	assert.Equal(t, domain.RiderID("R2"), ben.RiderID)
	require.Len(t, ben.Trips, 1)
	assert.Equal(t, "2024-03-11T15:10:00", ben.Trips[0].DropoffTime)
}

func TestNormalizeAppliesAdjustMinutesAfterDateRepair(t *testing.T) {
	days := []scheduleDay{
		{
			Date: "2024-03-10T00:00:00",
			StudentSchedules: []studentSchedule{
				{
					RiderID: "R1",
					Trips: []rawTrip{
						{
							Name:          "AM Route 9",
							PickUpTime:    "2024-01-01T08:15:00",
							DropOffTime:   "2024-01-01T08:45:00",
							StartTime:     "2024-01-01T08:00:00",
							FinishTime:    "2024-01-01T09:00:00",
							AdjustMinutes: -10,
						},
					},
				},
			},
		},
	}

	students := normalizeSchedules(days, zerolog.Nop())
	require.Len(t, students, 1)
	require.Len(t, students[0].Trips, 1)

	trip := students[0].Trips[0]
	assert.Equal(t, "2024-03-10T08:05:00", trip.PickupTime)
	assert.Equal(t, "2024-03-10T08:35:00", trip.DropoffTime)
	assert.Equal(t, "2024-03-10T07:50:00", trip.StartTime)
	assert.Equal(t, "2024-03-10T08:50:00", trip.FinishTime)
}

func TestNormalizeDefaultsMissingTripFields(t *testing.T) {
	days := []scheduleDay{
		{
			Date: "2024-03-10T00:00:00",
			StudentSchedules: []studentSchedule{
				{RiderID: "R1", Trips: []rawTrip{{}}},
			},
		},
	}

	students := normalizeSchedules(days, zerolog.Nop())
	require.Len(t, students, 1)
	require.Len(t, students[0].Trips, 1)

	trip := students[0].Trips[0]
	assert.Equal(t, domain.Trip{}, trip)
	assert.False(t, trip.ToSchool)
}

func TestNormalizeEmptyPayload(t *testing.T) {
	assert.Empty(t, normalizeSchedules(nil, zerolog.Nop()))
	assert.Empty(t, normalizeSchedules([]scheduleDay{}, zerolog.Nop()))
}
