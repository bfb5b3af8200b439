package workouts

import (
	"fmt"
	"math"
)

const (
	gravity       = 9.8  // m/s^2
	efficiency    = 0.2  // mechanical efficiency of human muscle work
	joulesPerKcal = 4184

	// forearm length for the pendulum model of a dumbbell curl
	forearmLength = 0.33 // m

	// assumed lift distance when no angle data is available
	assumedLiftDistance = 0.5 // m

	manualCaloriesMin = 1.0
	manualCaloriesMax = 2000.0
)

// MotionEstimate is the tagged variant selecting which calorie model
// applies to an entry. The two models are intentionally divergent: the
// sensor model and the bulk model describe different measurements and
// are not expected to agree.
type MotionEstimate interface {
	calories(weight float64) float64
}

// SensorDerived estimates energy per single rep from the measured angle
// sweep, modelling the forearm as a pendulum and taking the chord length
// of the rotation as the load displacement.
type SensorDerived struct {
	AngleRange       float64 // degrees
	PeakAcceleration float64 // unused by the energy model, kept for auditing
}

func (e SensorDerived) calories(weight float64) float64 {
	displacement := 2 * forearmLength * math.Sin(e.AngleRange*math.Pi/360)
	work := weight * gravity * displacement
	return work / (efficiency * joulesPerKcal)
}

// ManualBulk estimates energy for a whole reps x sets batch using a
// fixed assumed lift distance. The result is clamped to a plausible
// range to reject garbage form input.
type ManualBulk struct {
	Reps int
	Sets int
}

func (e ManualBulk) calories(weight float64) float64 {
	work := weight * gravity * assumedLiftDistance * float64(e.Reps) * float64(e.Sets)
	cal := work / (efficiency * joulesPerKcal)
	if cal < manualCaloriesMin {
		return manualCaloriesMin
	}
	if cal > manualCaloriesMax {
		return manualCaloriesMax
	}
	return cal
}

// EstimateCalories runs the given motion estimate through its calorie
// model. Weight must be a positive finite number.
func EstimateCalories(weight float64, estimate MotionEstimate) (float64, error) {
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		return 0, fmt.Errorf("%w: weight", errInvalidNumber)
	}
	if mb, ok := estimate.(ManualBulk); ok {
		if mb.Reps <= 0 || mb.Sets <= 0 {
			return 0, fmt.Errorf("%w: reps/sets", errInvalidNumber)
		}
	}
	return estimate.calories(weight), nil
}

var errInvalidNumber = fmt.Errorf("invalid numeric input")
