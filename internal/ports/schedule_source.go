package ports

import (
	"context"
	"time"

	"github.com/busmind/stopfinder-cli/internal/domain"
)

// ScheduleSource is the upstream bus-schedule service as seen by the
// application layer.
type ScheduleSource interface {
	// EnsureAuthenticated runs the full discovery/auth/client-id chain.
	// It always re-executes the chain, even when a token is already held.
	EnsureAuthenticated(ctx context.Context) error
	// Schedules fetches and normalizes per-student schedules for the date
	// range. Zero times default to now and now+7d respectively.
	Schedules(ctx context.Context, start, end time.Time) ([]domain.Student, error)
	// VerifyConnection reports whether the full auth chain succeeds,
	// converting upstream failures into false.
	VerifyConnection(ctx context.Context) bool
}
