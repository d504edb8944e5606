package core

import "testing"

func TestIsotonicCalibrationIsNonDecreasing(t *testing.T) {
	samples := []TrainingPair{
		{RawProbability: 0.1, Outcome: 0},
		{RawProbability: 0.2, Outcome: 1},
		{RawProbability: 0.3, Outcome: 0},
		{RawProbability: 0.4, Outcome: 0},
		{RawProbability: 0.5, Outcome: 1},
		{RawProbability: 0.6, Outcome: 1},
		{RawProbability: 0.7, Outcome: 1},
		{RawProbability: 0.8, Outcome: 1},
		{RawProbability: 0.9, Outcome: 1},
	}

	cal := FitIsotonic("v1", samples)

	probes := []float64{0, 0.15, 0.25, 0.35, 0.45, 0.55, 0.65, 0.85, 1.0}
	prev := -1.0
	for _, p := range probes {
		c := cal.Apply(p)
		if c < prev {
			t.Errorf("calibration map not non-decreasing at p=%v: got %v after %v", p, c, prev)
		}
		if c < 0 || c > 1 {
			t.Errorf("calibration map escaped [0,1] at p=%v: got %v", p, c)
		}
		prev = c
	}
}

func TestCalibrationVersionMismatch(t *testing.T) {
	cal := FitIsotonic("v2", []TrainingPair{{RawProbability: 0.5, Outcome: 1}})

	if err := cal.CheckVersion("v2"); err != nil {
		t.Errorf("expected matching version to pass, got %v", err)
	}

	err := cal.CheckVersion("v1")
	if !IsCalibrationVersionMismatchError(err) {
		t.Fatalf("expected CalibrationVersionMismatchError, got %v", err)
	}
}

func TestCalibrationIdentityIsNoOp(t *testing.T) {
	var samples []TrainingPair
	for i := 0; i <= 100; i++ {
		p := float64(i) / 100
		outcome := 0.0
		if i%2 == 0 {
			outcome = p
		} else {
			outcome = p
		}
		samples = append(samples, TrainingPair{RawProbability: p, Outcome: outcome})
	}

	cal := FitIsotonic("identity", samples)
	for _, p := range []float64{0.0, 0.25, 0.5, 0.75, 1.0} {
		c := cal.Apply(p)
		approxEqual(t, c, p, 0.05, "identity calibration should approximate a no-op")
	}
}
