package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aryasetia/fitmon/internal/telemetry/metrics"
	"github.com/aryasetia/fitmon/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

// dedupWindow is the span within which a resubmission of the same
// {session, reps, sets} triple is treated as a retransmission.
const dedupWindow = 10 * time.Second

var workoutDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

type entriesRepo interface {
	InsertEntry(ctx context.Context, entry Entry) (*Entry, error)
	FindDuplicate(ctx context.Context, sessionID string, reps, sets int, ts time.Time, window time.Duration) (*Entry, error)
	GetEntry(ctx context.Context, id int) (*Entry, error)
	ListEntries(ctx context.Context, sessionID string) ([]Entry, error)
	UpdateEntry(ctx context.Context, entry *Entry) error
	DeleteEntry(ctx context.Context, id int) error
	InsertRep(ctx context.Context, rep Rep) (*Rep, error)
	ListReps(ctx context.Context, sessionID string) ([]Rep, error)
}

type sessionStore interface {
	SessionExists(ctx context.Context, sessionID string) (bool, error)
	CreateSession(ctx context.Context, sessionID string, userID int, weight float64, startTime time.Time) error
	RecomputeAggregates(ctx context.Context, sessionID string) error
}

// Service is the ingestion gate: it validates submissions, suppresses
// retransmitted duplicates, auto-creates sessions for known users and
// keeps session aggregates in sync with every entry mutation.
type Service struct {
	repo     entriesRepo
	sessions sessionStore
	metrics  *metrics.Manager

	// injectable for tests
	Now func() time.Time
}

func NewService(
	repo entriesRepo,
	sessions sessionStore,
	metricsManager *metrics.Manager,
) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		metrics:  metricsManager,
		Now:      time.Now,
	}
}

type AddEntryRequest struct {
	SessionID   string   `json:"session_id"`
	UserID      int      `json:"user_id,omitempty"`
	Weight      float64  `json:"weight"`
	Reps        int      `json:"reps"`
	Sets        int      `json:"sets"`
	Duration    int      `json:"duration"`
	FormScore   *float64 `json:"form_score,omitempty"`
	WorkoutDate string   `json:"workout_date,omitempty"`
}

type AddEntryResponse struct {
	Entry     *Entry `json:"entry"`
	Duplicate bool   `json:"duplicate"`
}

func (s *Service) AddEntry(ctx context.Context, req AddEntryRequest) (_ *AddEntryResponse, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.addEntry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var invalidFields []string
	if req.SessionID == "" {
		invalidFields = append(invalidFields, "session_id")
	}
	if req.Reps <= 0 {
		invalidFields = append(invalidFields, "reps")
	}
	if req.Sets <= 0 {
		invalidFields = append(invalidFields, "sets")
	}
	if req.Duration <= 0 {
		invalidFields = append(invalidFields, "duration")
	}
	if req.Weight <= 0 {
		invalidFields = append(invalidFields, "weight")
	}
	if len(invalidFields) > 0 {
		return nil, newValidationError(invalidFields...)
	}

	timestamp := s.resolveTimestamp(req.WorkoutDate)

	if err := s.ensureSession(ctx, req.SessionID, req.UserID, req.Weight); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindDuplicate(ctx, req.SessionID, req.Reps, req.Sets, timestamp, dedupWindow)
	if err != nil && !errors.Is(err, ErrEntryNotFound) {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if existing != nil {
		log.Tracef("workouts: duplicate submission for session %s suppressed", req.SessionID)
		if s.metrics != nil {
			s.metrics.CounterDuplicateSubmissions.Inc()
		}
		return &AddEntryResponse{Entry: existing, Duplicate: true}, nil
	}

	calories, err := EstimateCalories(req.Weight, ManualBulk{Reps: req.Reps, Sets: req.Sets})
	if err != nil {
		return nil, newValidationError("weight")
	}

	formScore := DefaultFormScore
	if req.FormScore != nil {
		formScore = *req.FormScore
	}

	entry, err := s.repo.InsertEntry(ctx, Entry{
		SessionID: req.SessionID,
		Weight:    req.Weight,
		Reps:      req.Reps,
		Sets:      req.Sets,
		Duration:  req.Duration,
		Calories:  calories,
		FormScore: formScore,
		Timestamp: timestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	if s.metrics != nil {
		s.metrics.CounterWorkoutsSaved.Inc()
	}

	if err := s.sessions.RecomputeAggregates(ctx, req.SessionID); err != nil {
		return nil, fmt.Errorf("recompute aggregates: %w", err)
	}

	return &AddEntryResponse{Entry: entry}, nil
}

type IngestRepRequest struct {
	SessionID string      `json:"session_id"`
	UserID    int         `json:"user_id,omitempty"`
	Weight    float64     `json:"weight"`
	RepNumber int         `json:"rep_number"`
	RepStart  string      `json:"rep_start,omitempty"`
	RepEnd    string      `json:"rep_end,omitempty"`
	Samples   []RepSample `json:"samples"`
}

type IngestRepResponse struct {
	Rep     *Rep             `json:"rep"`
	Summary RepMotionSummary `json:"summary"`
}

// IngestRep processes one sensor-captured repetition: reduce the sample
// window, estimate the energy burned and persist both the audit rep row
// and a single-rep workout entry. Reps arrive seconds apart, so the
// retransmission window does not apply here.
func (s *Service) IngestRep(ctx context.Context, req IngestRepRequest) (_ *IngestRepResponse, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.ingestRep")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var invalidFields []string
	if req.SessionID == "" {
		invalidFields = append(invalidFields, "session_id")
	}
	if req.Weight <= 0 {
		invalidFields = append(invalidFields, "weight")
	}
	if len(invalidFields) > 0 {
		return nil, newValidationError(invalidFields...)
	}

	if err := s.ensureSession(ctx, req.SessionID, req.UserID, req.Weight); err != nil {
		return nil, err
	}

	summary := SummarizeRep(req.Samples)
	calories, err := EstimateCalories(req.Weight, SensorDerived{
		AngleRange:       summary.AngleRange,
		PeakAcceleration: summary.PeakAcceleration,
	})
	if err != nil {
		return nil, newValidationError("weight")
	}

	now := s.Now()
	repStart := s.resolveTimestamp(req.RepStart)
	repEnd := now
	if req.RepEnd != "" {
		repEnd = s.resolveTimestamp(req.RepEnd)
	}
	repDuration := repEnd.Sub(repStart).Seconds()
	if repDuration < 0 {
		repDuration = 0
	}

	rep, err := s.repo.InsertRep(ctx, Rep{
		SessionID:        req.SessionID,
		RepNumber:        req.RepNumber,
		Weight:           req.Weight,
		AngleRange:       summary.AngleRange,
		PeakAcceleration: summary.PeakAcceleration,
		Calories:         calories,
		StartedAt:        repStart,
		EndedAt:          repEnd,
		DurationSeconds:  repDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("insert rep: %w", err)
	}

	// every captured rep also becomes a single-rep workout entry, so that
	// session and history aggregation see one uniform table
	if _, err := s.repo.InsertEntry(ctx, Entry{
		SessionID: req.SessionID,
		Weight:    req.Weight,
		Reps:      1,
		Sets:      1,
		Duration:  1,
		Calories:  calories,
		FormScore: DefaultFormScore,
		Timestamp: repEnd,
	}); err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	if s.metrics != nil {
		s.metrics.CounterRepsIngested.Inc()
	}

	if err := s.sessions.RecomputeAggregates(ctx, req.SessionID); err != nil {
		return nil, fmt.Errorf("recompute aggregates: %w", err)
	}

	return &IngestRepResponse{Rep: rep, Summary: summary}, nil
}

func (s *Service) List(ctx context.Context, sessionID string) ([]Entry, error) {
	return s.repo.ListEntries(ctx, sessionID)
}

func (s *Service) ListReps(ctx context.Context, sessionID string) ([]Rep, error) {
	return s.repo.ListReps(ctx, sessionID)
}

type UpdateEntryRequest struct {
	ID        int      `json:"id"`
	Weight    float64  `json:"weight"`
	Reps      int      `json:"reps"`
	Sets      int      `json:"sets"`
	Duration  int      `json:"duration"`
	FormScore *float64 `json:"form_score,omitempty"`
}

// UpdateEntry edits a logged entry, re-derives its calories and
// recomputes the owning session's aggregates.
func (s *Service) UpdateEntry(ctx context.Context, req UpdateEntryRequest) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.updateEntry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var invalidFields []string
	if req.Reps <= 0 {
		invalidFields = append(invalidFields, "reps")
	}
	if req.Sets <= 0 {
		invalidFields = append(invalidFields, "sets")
	}
	if req.Duration <= 0 {
		invalidFields = append(invalidFields, "duration")
	}
	if req.Weight <= 0 {
		invalidFields = append(invalidFields, "weight")
	}
	if len(invalidFields) > 0 {
		return nil, newValidationError(invalidFields...)
	}

	entry, err := s.repo.GetEntry(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	calories, err := EstimateCalories(req.Weight, ManualBulk{Reps: req.Reps, Sets: req.Sets})
	if err != nil {
		return nil, newValidationError("weight")
	}

	entry.Weight = req.Weight
	entry.Reps = req.Reps
	entry.Sets = req.Sets
	entry.Duration = req.Duration
	entry.Calories = calories
	if req.FormScore != nil {
		entry.FormScore = *req.FormScore
	}

	if err := s.repo.UpdateEntry(ctx, entry); err != nil {
		return nil, err
	}

	if err := s.sessions.RecomputeAggregates(ctx, entry.SessionID); err != nil {
		return nil, fmt.Errorf("recompute aggregates: %w", err)
	}

	return entry, nil
}

// DeleteEntry removes a logged entry and recomputes the owning session's
// aggregates.
func (s *Service) DeleteEntry(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.deleteEntry")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	entry, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteEntry(ctx, id); err != nil {
		return err
	}

	if err := s.sessions.RecomputeAggregates(ctx, entry.SessionID); err != nil {
		return fmt.Errorf("recompute aggregates: %w", err)
	}

	return nil
}

// ensureSession makes sure the target session exists, auto-creating it
// when the submission carries a known user.
func (s *Service) ensureSession(ctx context.Context, sessionID string, userID int, weight float64) error {
	exists, err := s.sessions.SessionExists(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("session lookup: %w", err)
	}
	if exists {
		return nil
	}

	if userID <= 0 {
		return ErrSessionNotFound
	}

	if err := s.sessions.CreateSession(ctx, sessionID, userID, weight, s.Now()); err != nil {
		return fmt.Errorf("auto-create session: %w", err)
	}
	log.Debugf("workouts: auto-created session %s for user %d", sessionID, userID)
	return nil
}

// resolveTimestamp parses the caller supplied workout date, falling back
// to "now" on anything unparseable. The fallback is silent on purpose, a
// device with a drifting clock should not lose its data.
func (s *Service) resolveTimestamp(workoutDate string) time.Time {
	if workoutDate == "" {
		return s.Now()
	}
	for _, layout := range workoutDateLayouts {
		if ts, err := time.ParseInLocation(layout, workoutDate, time.Local); err == nil {
			return ts
		}
	}
	log.Warnf("workouts: unparseable workout_date %q, using current time", workoutDate)
	return s.Now()
}
