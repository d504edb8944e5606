package repository

import (
	"context"
	"database/sql"
	"fmt"

	"gridlock.dev/forecast/internal/core"
)

// RatingRepository persists the Rating Store's snapshot (§4.1) along with
// optional market win totals used by the preseason blend.
type RatingRepository struct {
	db *sql.DB
}

// NewRatingRepository constructs a RatingRepository.
func NewRatingRepository(db *sql.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// LoadSnapshot reads the current elo_rating for every team named in
// roster, keyed by TeamIndex for direct use with core.RatingStore.
func (r *RatingRepository) LoadSnapshot(ctx context.Context, roster *core.Roster) (map[core.TeamIndex]float64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT team, elo_rating FROM ratings`)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}
	defer rows.Close()

	out := make(map[core.TeamIndex]float64)
	for rows.Next() {
		var name string
		var rating float64
		if err := rows.Scan(&name, &rating); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		idx, ok := roster.LookupName(name)
		if !ok {
			return nil, core.NewReferentialError(0, fmt.Sprintf("rating references unknown team %q", name))
		}
		out[idx] = rating
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ratings: %w", err)
	}

	return out, nil
}

// LoadMarketWinTotals reads the optional preseason market win totals
// (§4.1 market blend). Missing rows are absent from the result, which
// callers treat as "fall back to regression alone" per spec.md §4.1.
func (r *RatingRepository) LoadMarketWinTotals(ctx context.Context, roster *core.Roster) (map[core.TeamIndex]float64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT team, win_total FROM market_win_totals`)
	if err != nil {
		return nil, fmt.Errorf("failed to load market win totals: %w", err)
	}
	defer rows.Close()

	out := make(map[core.TeamIndex]float64)
	for rows.Next() {
		var name string
		var total float64
		if err := rows.Scan(&name, &total); err != nil {
			return nil, fmt.Errorf("failed to scan market win total: %w", err)
		}
		idx, ok := roster.LookupName(name)
		if !ok {
			continue // optional input; an unrecognized team just contributes nothing
		}
		out[idx] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate market win totals: %w", err)
	}

	return out, nil
}

// SaveSnapshot writes the rollforward-terminal ratings back to the
// ratings table, one row per team, stamped with the current time.
func (r *RatingRepository) SaveSnapshot(ctx context.Context, roster *core.Roster, ratings core.Ratings) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rating snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	for _, team := range roster.All() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ratings (team, elo_rating, as_of)
			VALUES ($1, $2, NOW())
			ON CONFLICT (team) DO UPDATE
			SET elo_rating = EXCLUDED.elo_rating, as_of = EXCLUDED.as_of
		`, team.Name, ratings[team.Index]); err != nil {
			return fmt.Errorf("failed to save rating for %s: %w", team.Name, err)
		}
	}

	return tx.Commit()
}

// CalibrationMapRepository persists versioned isotonic calibration maps
// (§4.4) as JSON breakpoint arrays.
type CalibrationMapRepository struct {
	db *sql.DB
}

// NewCalibrationMapRepository constructs a CalibrationMapRepository.
func NewCalibrationMapRepository(db *sql.DB) *CalibrationMapRepository {
	return &CalibrationMapRepository{db: db}
}

// Save marshals m and upserts it keyed by m.Version.
func (r *CalibrationMapRepository) Save(ctx context.Context, m *core.CalibrationMap) error {
	data, err := m.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal calibration map %s: %w", m.Version, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO calibration_maps (version, breakpoints)
		VALUES ($1, $2)
		ON CONFLICT (version) DO UPDATE SET breakpoints = EXCLUDED.breakpoints
	`, m.Version, data)
	if err != nil {
		return fmt.Errorf("failed to save calibration map %s: %w", m.Version, err)
	}
	return nil
}

// Load returns the CalibrationMap stored under version, or a NotFoundError.
func (r *CalibrationMapRepository) Load(ctx context.Context, version string) (*core.CalibrationMap, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT breakpoints FROM calibration_maps WHERE version = $1`, version).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("calibration_map", version)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load calibration map %s: %w", version, err)
	}
	return core.CalibrationMapFromJSON(data)
}
