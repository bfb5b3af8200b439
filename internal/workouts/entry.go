package workouts

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrEntryNotFound   = errors.New("workout entry not found")
	ErrSessionNotFound = errors.New("session not found")
)

// DefaultFormScore is used when an entry arrives without a measured
// technique quality score.
const DefaultFormScore = 4.5

// Entry is one logged batch of reps within a session. It comes either
// from a manual dashboard submission (reps x sets) or from a single
// sensor-captured rep (reps=1, sets=1).
type Entry struct {
	ID        int       `json:"id"`
	SessionID string    `json:"session_id"`
	Weight    float64   `json:"weight"`
	Reps      int       `json:"reps"`
	Sets      int       `json:"sets"`
	Duration  int       `json:"duration"` // minutes
	Calories  float64   `json:"calories"`
	FormScore float64   `json:"form_score"`
	Timestamp time.Time `json:"timestamp"`
}

// Rep is the audit record of one sensor-captured repetition, kept
// alongside the workout entry it produced.
type Rep struct {
	ID               int       `json:"id"`
	SessionID        string    `json:"session_id"`
	RepNumber        int       `json:"rep_number"`
	Weight           float64   `json:"weight"`
	AngleRange       float64   `json:"angle_range"`
	PeakAcceleration float64   `json:"peak_acceleration"`
	Calories         float64   `json:"calories"`
	StartedAt        time.Time `json:"rep_start"`
	EndedAt          time.Time `json:"rep_end"`
	DurationSeconds  float64   `json:"rep_duration"`
}

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid or missing fields: %s", strings.Join(e.Fields, ", "))
}

func newValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}
