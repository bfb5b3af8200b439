package history

import (
	"time"

	"github.com/aryasetia/fitmon/internal/sessions"
)

const dateLayout = "2006-01-02"

// DateBucket is a per-calendar-day aggregate built for the charts page,
// never persisted.
type DateBucket struct {
	Date         string  `json:"date"`
	Duration     int     `json:"duration"` // minutes
	Calories     float64 `json:"calories"`
	Reps         int     `json:"reps"`
	TotalWeight  float64 `json:"totalWeight"`
	SessionCount int     `json:"sessionCount"`
}

// Latest is the snapshot of the most recent logged activity in range.
type Latest struct {
	Timestamp time.Time `json:"timestamp"`
	Duration  int       `json:"duration"`
	Reps      int       `json:"reps"`
	Weight    float64   `json:"weight"`
	Calories  float64   `json:"calories"`
}

type Summary struct {
	Buckets []DateBucket `json:"buckets"`
	Totals  DateBucket   `json:"totals"`
	Latest  *Latest      `json:"latest,omitempty"`
}

// Aggregate buckets a user's sessions per calendar day over the closed
// range [startDate, endDate]. Sessions carrying entries contribute each
// entry to the day of that entry's own timestamp; a session without
// entries falls back to contributing its cached totals to the day it
// started. The two paths count reps differently on purpose: the entry
// table stores reps per set, the session row stores total performed
// reps, mirroring the two source shapes.
func Aggregate(sessionList []sessions.Session, startDate, endDate time.Time) Summary {
	start := truncateToDay(startDate)
	end := truncateToDay(endDate)

	var buckets []DateBucket
	bucketIndex := make(map[string]int)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format(dateLayout)
		bucketIndex[key] = len(buckets)
		buckets = append(buckets, DateBucket{Date: key})
	}

	var latest *Latest
	var latestTs time.Time

	// rangeEnd covers the whole final day
	rangeEnd := end.Add(24*time.Hour - time.Second)

	for _, s := range sessionList {
		if len(s.Entries) > 0 {
			for _, e := range s.Entries {
				if e.Timestamp.Before(start) || e.Timestamp.After(rangeEnd) {
					continue
				}
				i := bucketIndex[truncateToDay(e.Timestamp).Format(dateLayout)]
				buckets[i].Duration += e.Duration
				buckets[i].Calories += e.Calories
				buckets[i].Reps += e.Reps * e.Sets
				buckets[i].TotalWeight += e.Weight * float64(e.Reps) * float64(e.Sets)
				buckets[i].SessionCount++

				if latest == nil || e.Timestamp.After(latestTs) {
					latestTs = e.Timestamp
					latest = &Latest{
						Timestamp: e.Timestamp,
						Duration:  e.Duration,
						Reps:      e.Reps * e.Sets,
						Weight:    e.Weight,
						Calories:  e.Calories,
					}
				}
			}
			continue
		}

		if s.StartTime.Before(start) || s.StartTime.After(rangeEnd) {
			continue
		}
		i := bucketIndex[truncateToDay(s.StartTime).Format(dateLayout)]
		duration := sessionDurationMinutes(s)
		buckets[i].Duration += duration
		buckets[i].Calories += s.TotalCalories
		buckets[i].Reps += s.TotalReps
		buckets[i].TotalWeight += s.Weight * float64(s.TotalReps)
		buckets[i].SessionCount++

		if latest == nil || s.StartTime.After(latestTs) {
			latestTs = s.StartTime
			latest = &Latest{
				Timestamp: s.StartTime,
				Duration:  duration,
				Reps:      s.TotalReps,
				Weight:    s.Weight,
				Calories:  s.TotalCalories,
			}
		}
	}

	var totals DateBucket
	for _, b := range buckets {
		totals.Duration += b.Duration
		totals.Calories += b.Calories
		totals.Reps += b.Reps
		totals.TotalWeight += b.TotalWeight
		totals.SessionCount += b.SessionCount
	}

	return Summary{
		Buckets: buckets,
		Totals:  totals,
		Latest:  latest,
	}
}

func sessionDurationMinutes(s sessions.Session) int {
	if s.EndTime == nil {
		return 0
	}
	return int(s.EndTime.Sub(s.StartTime).Minutes())
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
