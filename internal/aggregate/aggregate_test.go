package aggregate

import (
	"math"
	"math/rand"
	"testing"
)

func TestWilsonIntervalWellFormedNearBoundary(t *testing.T) {
	for _, k := range []int{0, 1, 999, 1000} {
		interval := Wilson(k, 1000)
		if interval.Lower < 0 || interval.Upper > 1 {
			t.Errorf("k=%d: interval escaped [0,1]: %+v", k, interval)
		}
		if interval.Lower > interval.Upper {
			t.Errorf("k=%d: lower > upper: %+v", k, interval)
		}
	}
}

func TestWilsonCoverage(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const p = 0.3
	const n = 200
	const trials = 500

	covered := 0
	for i := 0; i < trials; i++ {
		k := 0
		for j := 0; j < n; j++ {
			if rng.Float64() < p {
				k++
			}
		}
		interval := Wilson(k, n)
		if p >= interval.Lower && p <= interval.Upper {
			covered++
		}
	}

	coverage := float64(covered) / float64(trials)
	if coverage < 0.94 {
		t.Errorf("Wilson interval coverage too low: %.3f over %d trials", coverage, trials)
	}
}

func TestPercentileMonotone(t *testing.T) {
	values := []float64{1, 5, 3, 9, 2, 8, 4, 7, 6}
	p25 := Percentile(values, 25)
	p50 := Percentile(values, 50)
	p75 := Percentile(values, 75)

	if !(p25 <= p50 && p50 <= p75) {
		t.Errorf("expected percentiles non-decreasing, got p25=%v p50=%v p75=%v", p25, p50, p75)
	}
}

func TestForTeamDeterministic(t *testing.T) {
	outcomes := []ScenarioOutcome{
		{Seed: 1, Wins: 14}, {Seed: 3, Wins: 12}, {Seed: 8, Wins: 9}, {Seed: 16, Wins: 3},
	}

	first := ForTeam(0, outcomes)
	second := ForTeam(0, outcomes)

	if first != second {
		t.Errorf("expected aggregating the same scenario list twice to be identical: %+v vs %+v", first, second)
	}

	if math.Abs(first.PlayoffProbability.Estimate-0.5) > 1e-9 {
		t.Errorf("expected playoff probability 0.5 (2 of 4 seeds <= 7), got %v", first.PlayoffProbability.Estimate)
	}
	if math.Abs(first.ByeProbability.Estimate-0.25) > 1e-9 {
		t.Errorf("expected bye probability 0.25 (1 of 4 seeds == 1), got %v", first.ByeProbability.Estimate)
	}
}
