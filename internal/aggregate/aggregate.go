// Package aggregate reduces per-scenario seeded standings to per-team
// point estimates and confidence intervals (spec.md §4.7).
package aggregate

import (
	"math"
	"sort"

	"gridlock.dev/forecast/internal/core"
)

const wilsonZ = 1.96

// Interval is a point estimate with a 95% confidence interval.
//
// @Description Point estimate plus 95% lower/upper bound.
type Interval struct {
	Estimate float64 `json:"estimate"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

// TeamStats is the aggregated result for one team across all completed
// scenarios.
//
// @Description Per-team playoff/bye probability and expected wins/seed with intervals.
type TeamStats struct {
	Team               core.TeamIndex
	PlayoffProbability Interval
	ByeProbability     Interval
	AvgWins            Interval
	AvgSeed            Interval
	CompletedScenarios int
}

// ScenarioOutcome is the minimal per-team, per-scenario input the
// Aggregator needs: final seed and win count.
type ScenarioOutcome struct {
	Seed int
	Wins int
}

// Wilson computes the 95% Wilson score interval for a Bernoulli proportion
// estimated from k successes in n trials, per spec.md §4.7's formula.
func Wilson(k, n int) Interval {
	if n == 0 {
		return Interval{}
	}
	p := float64(k) / float64(n)
	z2 := wilsonZ * wilsonZ
	fn := float64(n)

	center := (p + z2/(2*fn)) / (1 + z2/fn)
	margin := (wilsonZ * math.Sqrt(p*(1-p)/fn+z2/(4*fn*fn))) / (1 + z2/fn)

	return Interval{
		Estimate: p,
		Lower:    clampUnit(center - margin),
		Upper:    clampUnit(center + margin),
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Percentile returns the empirical percentile (0..100) of values using
// linear interpolation between closest ranks. values is not mutated.
func Percentile(values []float64, pct float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := (pct / 100) * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// ForTeam aggregates one team's per-scenario outcomes into the stats
// defined in spec.md §4.7: playoff_prob (rank <= 7), bye_prob (rank == 1),
// avg_wins and avg_seed with 2.5/97.5 empirical percentiles.
func ForTeam(team core.TeamIndex, outcomes []ScenarioOutcome) TeamStats {
	n := len(outcomes)
	playoffs, byes := 0, 0
	wins := make([]float64, 0, n)
	seeds := make([]float64, 0, n)

	for _, o := range outcomes {
		if o.Seed <= 7 {
			playoffs++
		}
		if o.Seed == 1 {
			byes++
		}
		wins = append(wins, float64(o.Wins))
		seeds = append(seeds, float64(o.Seed))
	}

	avgWins := mean(wins)
	avgSeed := mean(seeds)

	return TeamStats{
		Team:               team,
		PlayoffProbability: Wilson(playoffs, n),
		ByeProbability:     Wilson(byes, n),
		AvgWins:            Interval{Estimate: avgWins, Lower: Percentile(wins, 2.5), Upper: Percentile(wins, 97.5)},
		AvgSeed:            Interval{Estimate: avgSeed, Lower: Percentile(seeds, 2.5), Upper: Percentile(seeds, 97.5)},
		CompletedScenarios: n,
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
