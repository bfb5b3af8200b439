package sessions

import (
	"errors"
	"time"

	"github.com/aryasetia/fitmon/internal/workouts"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one workout occasion for one user. The four total fields
// are a materialized view over the session's entries and are recomputed
// on every entry mutation, never patched by hand.
type Session struct {
	SessionID     string     `json:"session_id"`
	UserID        int        `json:"user_id"`
	Weight        float64    `json:"dumbbell_weight"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	TotalReps     int        `json:"total_reps"`
	TotalSets     int        `json:"total_sets"`
	TotalCalories float64    `json:"total_calories"`
	AvgFormScore  float64    `json:"avg_form_score"`

	// nested entries, loaded for history views
	Entries []workouts.Entry `json:"entries,omitempty"`
}

// Active reports whether the session has not been explicitly ended yet.
func (s *Session) Active() bool {
	return s.EndTime == nil
}
