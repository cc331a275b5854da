package application

import (
	"context"
	"fmt"
	"time"

	"github.com/busmind/stopfinder-cli/internal/domain"
	"github.com/busmind/stopfinder-cli/internal/ports"
	"github.com/rs/zerolog"
)

// Snapshot is one complete poll result. Each refresh replaces the previous
// snapshot wholesale; students are never merged across polls.
type Snapshot struct {
	Students  []domain.Student `json:"students"`
	FetchedAt time.Time        `json:"fetched_at"`
}

func (s Snapshot) Student(riderID domain.RiderID) (domain.Student, bool) {
	for _, student := range s.Students {
		if student.RiderID == riderID {
			return student, true
		}
	}

	return domain.Student{}, false
}

// Service orchestrates the schedule source for the commands and the poller.
type Service struct {
	source ports.ScheduleSource
	clock  ports.Clock
	logger zerolog.Logger
}

func NewService(source ports.ScheduleSource, clock ports.Clock, logger zerolog.Logger) *Service {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Service{
		source: source,
		clock:  clock,
		logger: logger,
	}
}

// Refresh fetches a fresh snapshot for the default one-week window.
func (s *Service) Refresh(ctx context.Context) (Snapshot, error) {
	return s.RefreshRange(ctx, time.Time{}, time.Time{})
}

// RefreshRange fetches a fresh snapshot for an explicit date range. Zero
// times fall back to the source's defaults (now and now+7d).
func (s *Service) RefreshRange(ctx context.Context, start, end time.Time) (Snapshot, error) {
	students, err := s.source.Schedules(ctx, start, end)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch schedules: %w", err)
	}

	return Snapshot{Students: students, FetchedAt: s.clock.Now()}, nil
}

// VerifyConnection runs the auth chain once and reports success as a boolean.
func (s *Service) VerifyConnection(ctx context.Context) bool {
	return s.source.VerifyConnection(ctx)
}

func (s *Service) Now() time.Time {
	return s.clock.Now()
}
