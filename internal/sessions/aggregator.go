package sessions

import (
	"github.com/aryasetia/fitmon/internal/workouts"
)

// Aggregates are the cached session totals derived from its entries.
type Aggregates struct {
	TotalReps     int
	TotalSets     int
	TotalCalories float64
	AvgFormScore  float64
}

// Recompute folds a session's entries into its cached totals. It is a
// pure function of the entry set: same entries in, same totals out, in
// any order, any number of times. Total reps counts every performed rep,
// i.e. reps per set times sets.
func Recompute(entries []workouts.Entry) Aggregates {
	if len(entries) == 0 {
		return Aggregates{}
	}

	var agg Aggregates
	var formScoreSum float64
	for _, e := range entries {
		agg.TotalReps += e.Reps * e.Sets
		agg.TotalSets += e.Sets
		agg.TotalCalories += e.Calories
		formScoreSum += e.FormScore
	}
	agg.AvgFormScore = formScoreSum / float64(len(entries))

	return agg
}
