package workouts

import "math"

// RepSample is one accelerometer reading inside a rep capture window.
// Acceleration components are in standardized gravity units.
type RepSample struct {
	Ax    float64 `json:"ax"`
	Ay    float64 `json:"ay"`
	Az    float64 `json:"az"`
	Angle float64 `json:"angle"` // degrees
	T     float64 `json:"t"`     // milliseconds since rep start
}

// RepMotionSummary reduces a rep capture window to the two numbers the
// calorie model consumes.
type RepMotionSummary struct {
	AngleRange       float64 `json:"angle_range"`       // degrees
	PeakAcceleration float64 `json:"peak_acceleration"` // g units, gravity removed
}

// SummarizeRep computes angle extrema and peak dynamic acceleration over
// one rep's samples. The peak is a raw max with no smoothing, so a single
// noisy sample will skew it.
func SummarizeRep(samples []RepSample) RepMotionSummary {
	if len(samples) == 0 {
		return RepMotionSummary{}
	}

	minAngle, maxAngle := samples[0].Angle, samples[0].Angle
	var peakAccel float64
	for _, s := range samples {
		if s.Angle < minAngle {
			minAngle = s.Angle
		}
		if s.Angle > maxAngle {
			maxAngle = s.Angle
		}

		// subtract one gravity unit from the vector magnitude to
		// approximate the dynamic component
		magnitude := math.Sqrt(s.Ax*s.Ax+s.Ay*s.Ay+s.Az*s.Az) - 1.0
		if magnitude > peakAccel {
			peakAccel = magnitude
		}
	}

	return RepMotionSummary{
		AngleRange:       maxAngle - minAngle,
		PeakAcceleration: peakAccel,
	}
}
