// Package simulate runs the Monte Carlo season simulation: for each of S
// scenarios, samples a winner for every unplayed game under the ELO model
// and updates working ratings as it goes.
package simulate

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"gridlock.dev/forecast/internal/core"
)

// GameRow is one simulated game within one scenario, per spec.md §4.5.c.
//
// @Description One simulated game's pre-game ratings, win probability, and sampled winner.
type GameRow struct {
	ScenarioID           int
	GameID               core.GameID
	Home, Visiting       core.TeamIndex
	HomePreElo           float64
	VisitingPreElo       float64
	HomeWinProbability   float64
	Winner               core.TeamIndex
}

// ScenarioResult is everything one scenario produces: the full season's
// game outcomes (completed games plus this scenario's simulated games, in
// game_id order — the shape the Tiebreaker Engine consumes) and, when
// DetailLevel is DetailPerGame, the per-game probability rows.
type ScenarioResult struct {
	ScenarioID      int
	SeasonGames     []core.CompletedGame
	Rows            []GameRow // nil unless DetailLevel == DetailPerGame
	TerminalRatings core.Ratings
}

// Engine runs the Monte Carlo season simulation described in spec.md §4.5.
type Engine struct {
	cfg       core.Config
	rollfwd   *core.RollforwardEngine
}

// NewEngine constructs an Engine bound to cfg. cfg.WorkerCount controls the
// size of the worker pool. The scenario count is always the one passed to
// Run; cfg.Scenarios is not read by the Engine.
func NewEngine(cfg core.Config) *Engine {
	return &Engine{cfg: cfg, rollfwd: core.NewRollforwardEngine(cfg)}
}

// Run simulates scenarios [0, scenarioCount) over the unplayed games in
// schedule (ordered by GameID), starting from r0, concatenating completed
// into each scenario's SeasonGames. It returns results in arbitrary order
// (per spec.md §5, "across scenarios no ordering is guaranteed") along with
// the number of scenarios actually completed before ctx was cancelled.
//
// Workers check ctx.Err() only between scenarios, never mid-game, matching
// the cooperative-cancellation boundary in spec.md §5.
func (e *Engine) Run(ctx context.Context, r0 core.Ratings, completed []core.CompletedGame, schedule []core.Game, scenarioCount int) ([]ScenarioResult, int, error) {
	workers := e.cfg.WorkerCount
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int, scenarioCount)
	for s := 0; s < scenarioCount; s++ {
		jobs <- s
	}
	close(jobs)

	// MPSC: every worker is a producer into a single buffered channel;
	// this goroutine is the sole consumer.
	results := make(chan ScenarioResult, scenarioCount)
	errs := make(chan error, workers)

	var completedCount int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for scenarioID := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}

				result, err := e.runScenarioSafe(scenarioID, r0, completed, schedule)
				if err != nil {
					errs <- err
					return
				}

				mu.Lock()
				completedCount++
				mu.Unlock()

				results <- result
			}
		}()
	}

	wg.Wait()
	close(results)
	close(errs)

	if err := <-errs; err != nil {
		return nil, completedCount, err
	}

	out := make([]ScenarioResult, 0, len(results))
	for r := range results {
		out = append(out, r)
	}

	return out, completedCount, nil
}

// runScenarioSafe wraps runScenario with panic recovery: an unexpected
// panic in a worker (rather than a returned error) converts to a
// WorkerPanicError instead of taking down the whole run, per spec.md §7 —
// the caller aborts and discards completed scenarios on any worker error.
func (e *Engine) runScenarioSafe(scenarioID int, r0 core.Ratings, completed []core.CompletedGame, schedule []core.Game) (result ScenarioResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = ScenarioResult{}
			err = core.NewWorkerPanicError(scenarioID, fmt.Sprint(rec))
		}
	}()
	return e.runScenario(scenarioID, r0, completed, schedule)
}

// runScenario executes one independent trajectory. Its RNG stream is
// derived deterministically from (global seed, scenario_id) via a PCG
// generator seeded from the two values directly — this is the
// counter-mode derivation spec.md §4.5 requires: distinct scenario_ids
// always produce statistically independent streams, and re-running the
// same (seed, scenario_id) always reproduces the same stream.
func (e *Engine) runScenario(scenarioID int, r0 core.Ratings, completed []core.CompletedGame, schedule []core.Game) (ScenarioResult, error) {
	rng := rand.New(rand.NewPCG(uint64(e.cfg.GlobalSeed), uint64(scenarioID)))

	ratings := r0.Clone()
	seasonGames := make([]core.CompletedGame, 0, len(completed)+len(schedule))
	seasonGames = append(seasonGames, completed...)

	var rows []GameRow
	if e.cfg.DetailLevel == core.DetailPerGame {
		rows = make([]GameRow, 0, len(schedule))
	}

	for _, g := range schedule {
		homePre := ratings[g.Home]
		visitingPre := ratings[g.Visiting]

		pv := e.rollfwd.VisitingWinProbability(homePre, visitingPre, g.NeutralSite, g.ContextAdjustment)
		if err := core.ValidateProbability("visiting_win_probability", pv); err != nil {
			return ScenarioResult{}, err
		}
		ph := 1 - pv

		u := rng.Float64()
		var winner, loser core.TeamIndex
		var result core.ResultCode
		if u < ph {
			winner, loser = g.Home, g.Visiting
			result = core.HomeWin
		} else {
			winner, loser = g.Visiting, g.Home
			result = core.VisitingWin
		}

		if e.cfg.DetailLevel == core.DetailPerGame {
			rows = append(rows, GameRow{
				ScenarioID:         scenarioID,
				GameID:             g.ID,
				Home:               g.Home,
				Visiting:           g.Visiting,
				HomePreElo:         homePre,
				VisitingPreElo:     visitingPre,
				HomeWinProbability: ph,
				Winner:             winner,
			})
		}

		// Unit-margin update (spec.md §4.5.d / §9 design note): a
		// deliberate compromise that preserves rating responsiveness
		// within the scenario without inventing a score.
		delta := e.rollfwd.Delta(homePre, visitingPre, g.NeutralSite, g.ContextAdjustment, 1, result)
		if err := core.ValidateFinite("delta", delta); err != nil {
			return ScenarioResult{}, err
		}
		ratings[g.Home] -= delta
		ratings[g.Visiting] += delta

		completedGame := core.CompletedGame{
			Game: core.Game{
				ID:                g.ID,
				Week:              g.Week,
				Home:              g.Home,
				Visiting:          g.Visiting,
				NeutralSite:       g.NeutralSite,
				ContextAdjustment: g.ContextAdjustment,
				Completed:         true,
				Margin:            0, // spec.md §3: "margin=0 for simulated"
				Result:            result,
			},
			Winner: winner,
			Loser:  loser,
		}
		seasonGames = append(seasonGames, completedGame)
	}

	return ScenarioResult{
		ScenarioID:      scenarioID,
		SeasonGames:     seasonGames,
		Rows:            rows,
		TerminalRatings: ratings,
	}, nil
}
