package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"gridlock.dev/forecast/internal/aggregate"
	"gridlock.dev/forecast/internal/core"
	"gridlock.dev/forecast/internal/evaluate"
	"gridlock.dev/forecast/internal/simulate"
	"gridlock.dev/forecast/internal/tiebreak"
)

// RunRepository persists one Monte Carlo simulation run: its per-scenario
// game logs (when detail_level is per_game), the seeded per-scenario
// standings, and the aggregated per-team probabilities that summarize
// them (spec.md §6 outputs).
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository constructs a RunRepository.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// CreateRun records a new simulation run header and returns its ID.
func (r *RunRepository) CreateRun(ctx context.Context, cfg core.Config, completedScenarios int) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO simulation_runs (run_id, global_seed, scenarios, completed_scenarios, detail_level)
		VALUES ($1, $2, $3, $4, $5)
	`, id, cfg.GlobalSeed, cfg.Scenarios, completedScenarios, string(cfg.DetailLevel))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create simulation run: %w", err)
	}
	return id, nil
}

// SaveScenario persists one scenario's standings (and, if present, its
// per-game simulation log) under runID.
func (r *RunRepository) SaveScenario(ctx context.Context, roster *core.Roster, runID uuid.UUID, result simulate.ScenarioResult, records map[core.TeamIndex]tiebreak.TeamRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin scenario transaction: %w", err)
	}
	defer tx.Rollback()

	for _, row := range result.Rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO simulation_logs (run_id, scenario_id, game_id, home_team, visiting_team, home_pre_elo, visiting_pre_elo, home_win_probability, winning_team)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			runID, row.ScenarioID, int64(row.GameID),
			roster.Team(row.Home).Name, roster.Team(row.Visiting).Name,
			row.HomePreElo, row.VisitingPreElo, row.HomeWinProbability,
			roster.Team(row.Winner).Name,
		); err != nil {
			return fmt.Errorf("failed to save simulation log row: %w", err)
		}
	}

	for _, team := range roster.All() {
		rec := records[team.Index]
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO scenario_standings (run_id, scenario_id, team, wins, losses, ties, division_winner, seed)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, runID, result.ScenarioID, team.Name, rec.Wins, rec.Losses, rec.Ties, rec.DivisionWinner, rec.Seed); err != nil {
			return fmt.Errorf("failed to save standings row for %s: %w", team.Name, err)
		}
	}

	return tx.Commit()
}

// SaveAggregates persists the final per-team aggregated statistics for
// runID (spec.md §4.7 output).
func (r *RunRepository) SaveAggregates(ctx context.Context, roster *core.Roster, runID uuid.UUID, stats map[core.TeamIndex]aggregate.TeamStats) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin aggregates transaction: %w", err)
	}
	defer tx.Rollback()

	for _, team := range roster.All() {
		s := stats[team.Index]
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO aggregated_probabilities (
				run_id, team,
				playoff_probability, playoff_lower, playoff_upper,
				bye_probability, bye_lower, bye_upper,
				avg_wins, avg_wins_lower, avg_wins_upper,
				avg_seed, avg_seed_lower, avg_seed_upper,
				completed_scenarios
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (run_id, team) DO UPDATE SET
				playoff_probability = EXCLUDED.playoff_probability,
				playoff_lower = EXCLUDED.playoff_lower,
				playoff_upper = EXCLUDED.playoff_upper,
				bye_probability = EXCLUDED.bye_probability,
				bye_lower = EXCLUDED.bye_lower,
				bye_upper = EXCLUDED.bye_upper,
				avg_wins = EXCLUDED.avg_wins,
				avg_wins_lower = EXCLUDED.avg_wins_lower,
				avg_wins_upper = EXCLUDED.avg_wins_upper,
				avg_seed = EXCLUDED.avg_seed,
				avg_seed_lower = EXCLUDED.avg_seed_lower,
				avg_seed_upper = EXCLUDED.avg_seed_upper,
				completed_scenarios = EXCLUDED.completed_scenarios
		`, runID, team.Name,
			s.PlayoffProbability.Estimate, s.PlayoffProbability.Lower, s.PlayoffProbability.Upper,
			s.ByeProbability.Estimate, s.ByeProbability.Lower, s.ByeProbability.Upper,
			s.AvgWins.Estimate, s.AvgWins.Lower, s.AvgWins.Upper,
			s.AvgSeed.Estimate, s.AvgSeed.Lower, s.AvgSeed.Upper,
			s.CompletedScenarios,
		); err != nil {
			return fmt.Errorf("failed to save aggregates for %s: %w", team.Name, err)
		}
	}

	return tx.Commit()
}

// Aggregates loads the aggregated probabilities for runID, keyed by team
// name.
func (r *RunRepository) Aggregates(ctx context.Context, runID uuid.UUID) (map[string]aggregate.TeamStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT team,
			playoff_probability, playoff_lower, playoff_upper,
			bye_probability, bye_lower, bye_upper,
			avg_wins, avg_wins_lower, avg_wins_upper,
			avg_seed, avg_seed_lower, avg_seed_upper,
			completed_scenarios
		FROM aggregated_probabilities
		WHERE run_id = $1
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load aggregates for run %s: %w", runID, err)
	}
	defer rows.Close()

	out := make(map[string]aggregate.TeamStats)
	for rows.Next() {
		var team string
		var s aggregate.TeamStats
		if err := rows.Scan(
			&team,
			&s.PlayoffProbability.Estimate, &s.PlayoffProbability.Lower, &s.PlayoffProbability.Upper,
			&s.ByeProbability.Estimate, &s.ByeProbability.Lower, &s.ByeProbability.Upper,
			&s.AvgWins.Estimate, &s.AvgWins.Lower, &s.AvgWins.Upper,
			&s.AvgSeed.Estimate, &s.AvgSeed.Lower, &s.AvgSeed.Upper,
			&s.CompletedScenarios,
		); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		out[team] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate aggregate rows: %w", err)
	}

	return out, nil
}

// SaveEvaluation persists an evaluate.Metrics report under a fresh run ID.
func (r *RunRepository) SaveEvaluation(ctx context.Context, m evaluate.Metrics) (uuid.UUID, error) {
	id := uuid.New()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin evaluation transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO evaluation_runs (run_id, brier, log_loss, accuracy, n)
		VALUES ($1, $2, $3, $4, $5)
	`, id, m.Brier, m.LogLoss, m.Accuracy, m.N); err != nil {
		return uuid.Nil, fmt.Errorf("failed to save evaluation run: %w", err)
	}

	for _, bin := range m.Bins {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO evaluation_bins (run_id, lower_bound, count, mean_predicted, mean_observed, absolute_error)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, id, bin.LowerBound, bin.Count, bin.MeanPredicted, bin.MeanObserved, bin.AbsoluteError); err != nil {
			return uuid.Nil, fmt.Errorf("failed to save evaluation bin: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit evaluation run: %w", err)
	}
	return id, nil
}
