package schedule

import (
	"testing"
	"time"

	"github.com/busmind/stopfinder-cli/internal/application"
	"github.com/busmind/stopfinder-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tripTime(at time.Time) string {
	return at.Format("2006-01-02T15:04:05")
}

func TestRenderStudentWithUpcomingTrips(t *testing.T) {
	now := time.Date(2024, 3, 10, 7, 0, 0, 0, time.Local)

	output, err := Render(application.Snapshot{
		Students: []domain.Student{
			{
				RiderID:   "r-1",
				FirstName: "Alice",
				LastName:  "Smith",
				Grade:     "3",
				School:    "Lincoln Elementary",
				Trips: []domain.Trip{
					{
						Name:            "AM Route",
						BusNumber:       "12",
						PickupTime:      tripTime(now.Add(40 * time.Minute)),
						PickupStopName:  "Maple & 3rd",
						DropoffTime:     tripTime(now.Add(65 * time.Minute)),
						DropoffStopName: "Lincoln Elementary",
						ToSchool:        true,
					},
					{
						Name:            "PM Route",
						BusNumber:       "12",
						PickupTime:      tripTime(now.Add(8 * time.Hour)),
						PickupStopName:  "Lincoln Elementary",
						DropoffTime:     tripTime(now.Add(9 * time.Hour)),
						DropoffStopName: "Maple & 3rd",
						ToSchool:        false,
					},
				},
			},
		},
		FetchedAt: now.Add(-5 * time.Minute),
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "students: 1")
	assert.Contains(t, output, "fetched: 5 minutes ago")
	assert.Contains(t, output, "Alice Smith (grade 3, Lincoln Elementary)")
	assert.Contains(t, output, "next pickup:")
	assert.Contains(t, output, "07:40")
	assert.Contains(t, output, "(in 40 minutes)")
	assert.Contains(t, output, "at Maple & 3rd")
	assert.Contains(t, output, "bus 12")
	assert.Contains(t, output, "next dropoff:")
	assert.Contains(t, output, "AM Route (to school)")
	assert.Contains(t, output, "PM Route (from school)")
	assert.NotContains(t, output, "no upcoming trips")
}

func TestRenderStudentWithoutFutureTrips(t *testing.T) {
	now := time.Date(2024, 3, 10, 18, 0, 0, 0, time.Local)

	output, err := Render(application.Snapshot{
		Students: []domain.Student{
			{
				RiderID:   "r-1",
				FirstName: "Bob",
				LastName:  "Jones",
				Trips: []domain.Trip{
					{
						Name:       "AM Route",
						PickupTime: tripTime(now.Add(-10 * time.Hour)),
						ToSchool:   true,
					},
				},
			},
		},
		FetchedAt: now,
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "Bob Jones")
	assert.Contains(t, output, "no upcoming trips")
	assert.Contains(t, output, "AM Route (to school)")
}

func TestRenderStudentWithNoTrips(t *testing.T) {
	now := time.Date(2024, 3, 10, 7, 0, 0, 0, time.Local)

	output, err := Render(application.Snapshot{
		Students:  []domain.Student{{RiderID: "r-1", FirstName: "Cara", LastName: "Lee"}},
		FetchedAt: now,
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "Cara Lee")
	assert.Contains(t, output, "no scheduled trips")
}

func TestRenderEmptySnapshot(t *testing.T) {
	output, err := Render(application.Snapshot{}, RenderOptions{
		Now: time.Date(2024, 3, 10, 7, 0, 0, 0, time.Local),
	})

	require.NoError(t, err)
	assert.Contains(t, output, "students: 0")
	assert.Contains(t, output, "No students on this account.")
}

func TestRenderMultipleStudents(t *testing.T) {
	now := time.Date(2024, 3, 10, 7, 0, 0, 0, time.Local)

	output, err := Render(application.Snapshot{
		Students: []domain.Student{
			{RiderID: "r-1", FirstName: "Alice", LastName: "Smith"},
			{RiderID: "r-2", FirstName: "Bob", LastName: "Jones"},
		},
		FetchedAt: now,
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "students: 2")
	assert.Contains(t, output, "Alice Smith")
	assert.Contains(t, output, "Bob Jones")
}

func TestRenderCrossDayTimesIncludeDate(t *testing.T) {
	now := time.Date(2024, 3, 10, 18, 0, 0, 0, time.Local)
	pickup := time.Date(2024, 3, 11, 7, 40, 0, 0, time.Local)

	output, err := Render(application.Snapshot{
		Students: []domain.Student{
			{
				RiderID:   "r-1",
				FirstName: "Alice",
				LastName:  "Smith",
				Trips: []domain.Trip{
					{Name: "AM Route", PickupTime: tripTime(pickup), ToSchool: true},
				},
			},
		},
		FetchedAt: now,
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "07:40 on 11 Mar")
	assert.Contains(t, output, "(in 14 hours)")
}
