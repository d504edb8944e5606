package simulate

import (
	"context"
	"reflect"
	"sort"
	"testing"

	"gridlock.dev/forecast/internal/core"
)

func smallSchedule() []core.Game {
	return []core.Game{
		{ID: 10, Home: 0, Visiting: 1},
		{ID: 11, Home: 2, Visiting: 3},
		{ID: 12, Home: 0, Visiting: 2},
		{ID: 13, Home: 1, Visiting: 3},
	}
}

func runDeterminismFixture(t *testing.T) []ScenarioResult {
	t.Helper()
	cfg := core.DefaultConfig()
	cfg.Scenarios = 20
	cfg.WorkerCount = 4
	cfg.DetailLevel = core.DetailPerGame

	var r0 core.Ratings
	r0[0], r0[1], r0[2], r0[3] = 1500, 1520, 1480, 1505

	engine := NewEngine(cfg)
	results, completed, err := engine.Run(context.Background(), r0, nil, smallSchedule(), cfg.Scenarios)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completed != cfg.Scenarios {
		t.Fatalf("expected %d completed scenarios, got %d", cfg.Scenarios, completed)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ScenarioID < results[j].ScenarioID })
	return results
}

func TestSimulatorDeterministic(t *testing.T) {
	first := runDeterminismFixture(t)
	second := runDeterminismFixture(t)

	for i := range first {
		if !reflect.DeepEqual(first[i].TerminalRatings, second[i].TerminalRatings) {
			t.Fatalf("scenario %d: expected bit-identical terminal ratings across runs, got %v vs %v", i, first[i].TerminalRatings, second[i].TerminalRatings)
		}
		if len(first[i].Rows) != len(second[i].Rows) {
			t.Fatalf("scenario %d: row count mismatch", i)
		}
		for r := range first[i].Rows {
			if first[i].Rows[r] != second[i].Rows[r] {
				t.Fatalf("scenario %d row %d: expected identical rows, got %+v vs %+v", i, r, first[i].Rows[r], second[i].Rows[r])
			}
		}
	}
}

func TestSimulatorConservation(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Scenarios = 10
	cfg.WorkerCount = 2

	var r0 core.Ratings
	r0[0], r0[1], r0[2], r0[3] = 1500, 1520, 1480, 1505
	initialSum := r0.Sum()

	engine := NewEngine(cfg)
	results, _, err := engine.Run(context.Background(), r0, nil, smallSchedule(), cfg.Scenarios)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, r := range results {
		got := r.TerminalRatings.Sum()
		if diff := got - initialSum; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("scenario %d: expected conserved rating sum %v, got %v", r.ScenarioID, initialSum, got)
		}
	}
}

func TestSimulatorCancellation(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Scenarios = 1000
	cfg.WorkerCount = 1

	var r0 core.Ratings
	engine := NewEngine(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, completed, err := engine.Run(ctx, r0, nil, smallSchedule(), cfg.Scenarios)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completed >= cfg.Scenarios {
		t.Errorf("expected a cancelled run to complete fewer than %d scenarios, got %d", cfg.Scenarios, completed)
	}
	if len(results) != completed {
		t.Errorf("expected len(results) == completed count, got %d vs %d", len(results), completed)
	}
}
