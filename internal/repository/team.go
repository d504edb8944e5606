package repository

import (
	"context"
	"database/sql"
	"fmt"

	"gridlock.dev/forecast/internal/cache"
	"gridlock.dev/forecast/internal/core"
)

// TeamRepository loads the 32-team roster (§3 Team) from the teams table.
type TeamRepository struct {
	db    *sql.DB
	cache *cache.CachedRepository
}

// NewTeamRepository constructs a TeamRepository. cacheClient may be nil,
// in which case reads always hit the database.
func NewTeamRepository(db *sql.DB, cacheClient *cache.Client) *TeamRepository {
	return &TeamRepository{db: db, cache: cache.NewCachedRepository(cacheClient, "team")}
}

// rosterListParams is the (empty) list-cache key for the whole-roster read:
// there is exactly one roster and no filters, so the param map is constant.
var rosterListParams = map[string]string{}

// Roster loads every team row into a core.Roster, ordered by short_code so
// repeated loads assign the same TeamIndex to the same franchise. The rows
// are cached as []core.Team (every field exported, so it round-trips
// through JSON) rather than the *core.Roster itself, whose byCode/byName
// lookup indexes are unexported and would silently vanish on a cache hit.
func (r *TeamRepository) Roster(ctx context.Context) (*core.Roster, error) {
	var teams []core.Team
	if r.cache.List.Get(ctx, rosterListParams, &teams) {
		return rosterFromTeams(teams)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT team, short_code, conference, division
		FROM teams
		ORDER BY short_code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	roster := core.NewRoster()
	teams = nil
	for rows.Next() {
		var name, code, conf, div string
		if err := rows.Scan(&name, &code, &conf, &div); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		idx, err := roster.Add(name, code, core.Conference(conf), core.Division(div))
		if err != nil {
			return nil, err
		}
		teams = append(teams, roster.Team(idx))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate teams: %w", err)
	}

	_ = r.cache.List.Set(ctx, rosterListParams, teams)
	return roster, nil
}

// rosterFromTeams rebuilds a *core.Roster (and its lookup indexes) from a
// cached, ordered []core.Team.
func rosterFromTeams(teams []core.Team) (*core.Roster, error) {
	roster := core.NewRoster()
	for _, t := range teams {
		if _, err := roster.Add(t.Name, t.ShortCode, t.Conference, t.Division); err != nil {
			return nil, err
		}
	}
	return roster, nil
}

// UpsertTeam inserts or updates one roster row.
func (r *TeamRepository) UpsertTeam(ctx context.Context, team core.Team) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO teams (team, short_code, conference, division)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team) DO UPDATE
		SET short_code = EXCLUDED.short_code,
		    conference = EXCLUDED.conference,
		    division = EXCLUDED.division
	`, team.Name, team.ShortCode, string(team.Conference), string(team.Division))
	if err != nil {
		return fmt.Errorf("failed to upsert team %s: %w", team.Name, err)
	}

	if _, err := r.cache.List.InvalidateAll(ctx); err != nil {
		return fmt.Errorf("failed to invalidate team roster cache: %w", err)
	}
	return nil
}
