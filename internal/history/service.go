package history

import (
	"context"
	"time"

	"github.com/aryasetia/fitmon/internal/sessions"
	"github.com/aryasetia/fitmon/internal/telemetry/tracing"
)

type sessionsSource interface {
	ListForUser(ctx context.Context, userID int, from, to time.Time) ([]sessions.Session, error)
	WorkoutDatesForUser(ctx context.Context, userID int) ([]time.Time, error)
}

// Service reads a user's sessions and derives the chart and streak
// views. All reads are pure, nothing here mutates state.
type Service struct {
	sessions sessionsSource

	// injectable for tests
	Now func() time.Time
}

func NewService(sessionsSource sessionsSource) *Service {
	return &Service{
		sessions: sessionsSource,
		Now:      time.Now,
	}
}

func (s *Service) History(ctx context.Context, userID int, from, to time.Time) (_ *Summary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "history.history")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	// fetch with the end date widened to its last second, entries logged
	// late on the final day belong in range
	rangeEnd := truncateToDay(to).Add(24*time.Hour - time.Second)
	sessionList, err := s.sessions.ListForUser(ctx, userID, truncateToDay(from), rangeEnd)
	if err != nil {
		return nil, err
	}

	summary := Aggregate(sessionList, from, to)
	return &summary, nil
}

func (s *Service) Streak(ctx context.Context, userID int) (_ *Streak, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "history.streak")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	dates, err := s.sessions.WorkoutDatesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	streak := CurrentStreak(dates, s.Now())
	return &streak, nil
}
