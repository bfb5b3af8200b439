package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/aryasetia/fitmon/internal/workouts"
)

var _ sessionsRepo = (*RepoMock)(nil)

// RepoMock is an in-memory sessions repo for unit tests. Entries can be
// planted directly into EntriesBySession to drive the aggregate fold.
type RepoMock struct {
	mutex            sync.Mutex
	Sessions         map[string]*Session
	EntriesBySession map[string][]workouts.Entry
}

func NewRepoMock() *RepoMock {
	return &RepoMock{
		Sessions:         make(map[string]*Session),
		EntriesBySession: make(map[string][]workouts.Entry),
	}
}

func (r *RepoMock) Exists(_ context.Context, sessionID string) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	_, ok := r.Sessions[sessionID]
	return ok, nil
}

func (r *RepoMock) Create(_ context.Context, session Session) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.Sessions[session.SessionID]; ok {
		return nil
	}
	created := session
	r.Sessions[session.SessionID] = &created
	return nil
}

func (r *RepoMock) Get(_ context.Context, sessionID string) (*Session, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	s, ok := r.Sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	found := *s
	return &found, nil
}

func (r *RepoMock) RecomputeAggregates(_ context.Context, sessionID string) (*Aggregates, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.recomputeLocked(sessionID)
}

func (r *RepoMock) End(_ context.Context, sessionID string, endTime time.Time) (*Session, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, err := r.recomputeLocked(sessionID); err != nil {
		return nil, err
	}
	s := r.Sessions[sessionID]
	s.EndTime = &endTime
	ended := *s
	return &ended, nil
}

func (r *RepoMock) ListForUser(_ context.Context, userID int, from, to time.Time) ([]Session, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var sessions []Session
	for _, s := range r.Sessions {
		if s.UserID != userID {
			continue
		}
		if s.StartTime.Before(from) || s.StartTime.After(to) {
			continue
		}
		listed := *s
		listed.Entries = append([]workouts.Entry(nil), r.EntriesBySession[s.SessionID]...)
		sessions = append(sessions, listed)
	}
	return sessions, nil
}

func (r *RepoMock) WorkoutDatesForUser(_ context.Context, userID int) ([]time.Time, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, s := range r.Sessions {
		if s.UserID != userID {
			continue
		}
		for _, e := range r.EntriesBySession[s.SessionID] {
			day := time.Date(
				e.Timestamp.Year(), e.Timestamp.Month(), e.Timestamp.Day(),
				0, 0, 0, 0, e.Timestamp.Location(),
			)
			if !seen[day] {
				seen[day] = true
				dates = append(dates, day)
			}
		}
	}
	return dates, nil
}

func (r *RepoMock) recomputeLocked(sessionID string) (*Aggregates, error) {
	s, ok := r.Sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	agg := Recompute(r.EntriesBySession[sessionID])
	s.TotalReps = agg.TotalReps
	s.TotalSets = agg.TotalSets
	s.TotalCalories = agg.TotalCalories
	s.AvgFormScore = agg.AvgFormScore
	return &agg, nil
}
