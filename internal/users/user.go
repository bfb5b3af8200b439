package users

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrRFIDTagExists = errors.New("rfid tag already registered")
)

type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	RFIDTag   string    `json:"rfid_tag"`
	CreatedAt time.Time `json:"created_at"`
}

// LifetimeStats are the all-time totals shown on the profile page.
// TotalWeight is the total weight moved, dumbbell weight times reps
// times sets, summed over every logged entry.
type LifetimeStats struct {
	TotalSessions int     `json:"total_sessions"`
	TotalWorkouts int     `json:"total_workouts"`
	TotalWeight   float64 `json:"total_weight"`
	TotalReps     int     `json:"total_reps"`
	TotalSets     int     `json:"total_sets"`
	TotalCalories float64 `json:"total_calories"`
	TotalMinutes  int     `json:"total_minutes"`
}
