package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/aryasetia/fitmon/internal/telemetry/metrics"
	"github.com/aryasetia/fitmon/internal/telemetry/tracing"
)

type sessionsRepo interface {
	Exists(ctx context.Context, sessionID string) (bool, error)
	Create(ctx context.Context, session Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	RecomputeAggregates(ctx context.Context, sessionID string) (*Aggregates, error)
	End(ctx context.Context, sessionID string, endTime time.Time) (*Session, error)
	ListForUser(ctx context.Context, userID int, from, to time.Time) ([]Session, error)
	WorkoutDatesForUser(ctx context.Context, userID int) ([]time.Time, error)
}

type Service struct {
	repo    sessionsRepo
	metrics *metrics.Manager

	// injectable for tests
	Now func() time.Time
}

func NewService(repo sessionsRepo, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:    repo,
		metrics: metricsManager,
		Now:     time.Now,
	}
}

type StartRequest struct {
	SessionID string  `json:"session_id,omitempty"`
	UserID    int     `json:"user_id"`
	Weight    float64 `json:"dumbbell_weight"`
}

// Start opens a new session at RFID tap + weight entry time. The station
// usually generates the session id; if it does not, one is derived from
// the clock.
func (s *Service) Start(ctx context.Context, req StartRequest) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sessions.start")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if req.UserID <= 0 {
		return nil, fmt.Errorf("invalid user id: %d", req.UserID)
	}
	if req.Weight <= 0 {
		return nil, fmt.Errorf("invalid dumbbell weight: %f", req.Weight)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = fmt.Sprintf("sess-%d", s.Now().UnixNano())
	}

	session := Session{
		SessionID: sessionID,
		UserID:    req.UserID,
		Weight:    req.Weight,
		StartTime: s.Now(),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.CounterSessionsStarted.Inc()
	}

	return &session, nil
}

// End closes a session: final aggregates and the end timestamp land
// together.
func (s *Service) End(ctx context.Context, sessionID string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sessions.end")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return s.repo.End(ctx, sessionID, s.Now())
}

func (s *Service) Get(ctx context.Context, sessionID string) (*Session, error) {
	return s.repo.Get(ctx, sessionID)
}

func (s *Service) ListForUser(ctx context.Context, userID int, from, to time.Time) ([]Session, error) {
	return s.repo.ListForUser(ctx, userID, from, to)
}

func (s *Service) WorkoutDatesForUser(ctx context.Context, userID int) ([]time.Time, error) {
	return s.repo.WorkoutDatesForUser(ctx, userID)
}

// SessionExists, CreateSession and RecomputeAggregates are the narrow
// surface the ingestion gate depends on.

func (s *Service) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	return s.repo.Exists(ctx, sessionID)
}

func (s *Service) CreateSession(ctx context.Context, sessionID string, userID int, weight float64, startTime time.Time) error {
	return s.repo.Create(ctx, Session{
		SessionID: sessionID,
		UserID:    userID,
		Weight:    weight,
		StartTime: startTime,
	})
}

func (s *Service) RecomputeAggregates(ctx context.Context, sessionID string) error {
	_, err := s.repo.RecomputeAggregates(ctx, sessionID)
	return err
}
