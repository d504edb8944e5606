package repository

import (
	"context"
	"database/sql"
	"fmt"

	"gridlock.dev/forecast/internal/cache"
	"gridlock.dev/forecast/internal/core"
)

// GameRepository loads completed games, the remaining schedule, and
// optional context adjustments (§6 inputs), and persists the Rollforward
// Engine's output log.
type GameRepository struct {
	db    *sql.DB
	cache *cache.CachedRepository
}

// NewGameRepository constructs a GameRepository.
func NewGameRepository(db *sql.DB, cacheClient *cache.Client) *GameRepository {
	return &GameRepository{db: db, cache: cache.NewCachedRepository(cacheClient, "game")}
}

// contextAdjustments loads every context_adjustments row into a map keyed
// by game_id; missing rows are absent, which callers treat as ctx=0 per
// spec.md §4.3's "missing context adjustment... is treated as ctx = 0".
func (r *GameRepository) contextAdjustments(ctx context.Context) (map[core.GameID]float64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT game_id, total_contextual_adjustment FROM context_adjustments`)
	if err != nil {
		return nil, fmt.Errorf("failed to load context adjustments: %w", err)
	}
	defer rows.Close()

	out := make(map[core.GameID]float64)
	for rows.Next() {
		var id int64
		var adj float64
		if err := rows.Scan(&id, &adj); err != nil {
			return nil, fmt.Errorf("failed to scan context adjustment: %w", err)
		}
		out[core.GameID(id)] = adj
	}
	return out, rows.Err()
}

// completedGamesListParams is the list-cache key for the completed-games
// read: there are no filters, so the param map is constant.
var completedGamesListParams = map[string]string{}

// CompletedGames loads every completed game in ascending game_id order,
// resolving team names to indices via roster and applying the optional
// context adjustment. Results are cached; SaveRollforwardLog invalidates
// the cache, and no other write path in this package does.
func (r *GameRepository) CompletedGames(ctx context.Context, roster *core.Roster) ([]core.CompletedGame, error) {
	var cached []core.CompletedGame
	if r.cache.List.Get(ctx, completedGamesListParams, &cached) {
		return cached, nil
	}

	ctxAdj, err := r.contextAdjustments(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT game_id, week, home_team, visiting_team, neutral_site, winning_team, game_result, margin
		FROM games
		WHERE completed = TRUE
		ORDER BY game_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed games: %w", err)
	}
	defer rows.Close()

	var out []core.CompletedGame
	for rows.Next() {
		var id int64
		var week int
		var homeName, visitingName, winnerName string
		var neutral bool
		var result float64
		var margin int
		if err := rows.Scan(&id, &week, &homeName, &visitingName, &neutral, &winnerName, &result, &margin); err != nil {
			return nil, fmt.Errorf("failed to scan completed game: %w", err)
		}

		home, ok := roster.LookupName(homeName)
		if !ok {
			return nil, core.NewReferentialError(core.GameID(id), "home team not in roster")
		}
		visiting, ok := roster.LookupName(visitingName)
		if !ok {
			return nil, core.NewReferentialError(core.GameID(id), "visiting team not in roster")
		}
		winner, ok := roster.LookupName(winnerName)
		if !ok || (winner != home && winner != visiting) {
			return nil, core.NewReferentialError(core.GameID(id), "winning team is neither home nor visiting")
		}
		loser := home
		if winner == home {
			loser = visiting
		}

		out = append(out, core.CompletedGame{
			Game: core.Game{
				ID:                core.GameID(id),
				Week:              week,
				Home:              home,
				Visiting:          visiting,
				NeutralSite:       neutral,
				ContextAdjustment: ctxAdj[core.GameID(id)],
				Completed:         true,
				Margin:            margin,
				Result:            core.ResultCode(result),
			},
			Winner: winner,
			Loser:  loser,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate completed games: %w", err)
	}

	_ = r.cache.List.Set(ctx, completedGamesListParams, out)
	return out, nil
}

// RemainingSchedule loads every not-yet-completed game in ascending
// game_id order, the shape the Season Simulator consumes (§4.5).
func (r *GameRepository) RemainingSchedule(ctx context.Context, roster *core.Roster) ([]core.Game, error) {
	ctxAdj, err := r.contextAdjustments(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT game_id, week, home_team, visiting_team, neutral_site
		FROM games
		WHERE completed = FALSE
		ORDER BY game_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list remaining schedule: %w", err)
	}
	defer rows.Close()

	var out []core.Game
	for rows.Next() {
		var id int64
		var week int
		var homeName, visitingName string
		var neutral bool
		if err := rows.Scan(&id, &week, &homeName, &visitingName, &neutral); err != nil {
			return nil, fmt.Errorf("failed to scan scheduled game: %w", err)
		}

		home, ok := roster.LookupName(homeName)
		if !ok {
			return nil, core.NewReferentialError(core.GameID(id), "home team not in roster")
		}
		visiting, ok := roster.LookupName(visitingName)
		if !ok {
			return nil, core.NewReferentialError(core.GameID(id), "visiting team not in roster")
		}

		out = append(out, core.Game{
			ID:                core.GameID(id),
			Week:              week,
			Home:              home,
			Visiting:          visiting,
			NeutralSite:       neutral,
			ContextAdjustment: ctxAdj[core.GameID(id)],
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scheduled games: %w", err)
	}

	return out, nil
}

// SaveRollforwardLog persists one row per processed completed game, per
// the "ELO rollforward log" output in spec.md §6.
func (r *GameRepository) SaveRollforwardLog(ctx context.Context, rows []core.RollforwardRow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rollforward log transaction: %w", err)
	}
	defer tx.Rollback()

	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rollforward_log (game_id, home_pre_elo, visiting_pre_elo, margin, context_adj, delta, ingested_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			ON CONFLICT (game_id) DO UPDATE
			SET home_pre_elo = EXCLUDED.home_pre_elo,
			    visiting_pre_elo = EXCLUDED.visiting_pre_elo,
			    margin = EXCLUDED.margin,
			    context_adj = EXCLUDED.context_adj,
			    delta = EXCLUDED.delta,
			    ingested_at = EXCLUDED.ingested_at
		`, int64(row.GameID), row.HomePreElo, row.VisitingPreElo, row.Margin, row.ContextAdj, row.Delta); err != nil {
			return fmt.Errorf("failed to save rollforward row for game %d: %w", row.GameID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	_, err = r.cache.List.InvalidateAll(ctx)
	return err
}
