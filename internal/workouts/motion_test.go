package workouts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeRep(t *testing.T) {
	t.Run("empty window", func(t *testing.T) {
		summary := SummarizeRep(nil)
		assert.Zero(t, summary.AngleRange)
		assert.Zero(t, summary.PeakAcceleration)
	})

	t.Run("single sample has no range", func(t *testing.T) {
		summary := SummarizeRep([]RepSample{
			{Ax: 0, Ay: 0, Az: 1, Angle: 45},
		})
		assert.Zero(t, summary.AngleRange)
		assert.Zero(t, summary.PeakAcceleration)
	})

	t.Run("angle extrema", func(t *testing.T) {
		summary := SummarizeRep([]RepSample{
			{Angle: 10, Az: 1},
			{Angle: 95, Az: 1},
			{Angle: 40, Az: 1},
		})
		assert.InDelta(t, 85, summary.AngleRange, 1e-9)
	})

	t.Run("peak is gravity-corrected magnitude", func(t *testing.T) {
		// |(0, 0, 2)| - 1 = 1
		summary := SummarizeRep([]RepSample{
			{Az: 1},
			{Az: 2},
			{Az: 1.5},
		})
		assert.InDelta(t, 1.0, summary.PeakAcceleration, 1e-9)
	})

	t.Run("peak never negative for sub-gravity readings", func(t *testing.T) {
		summary := SummarizeRep([]RepSample{
			{Az: 0.5},
			{Az: 0.3},
		})
		assert.Zero(t, summary.PeakAcceleration)
	})
}
