// Package seed loads fixture data for local development and tests: the
// 32-team roster. It holds no game fixtures.
package seed

import (
	"context"
	"fmt"

	"gridlock.dev/forecast/internal/core"
	"gridlock.dev/forecast/internal/db"
	"gridlock.dev/forecast/internal/echo"
)

// TeamFixture is one static roster row.
type TeamFixture struct {
	Name       string
	ShortCode  string
	Conference core.Conference
	Division   core.Division
}

// Roster is the fixed 32-team NFL roster, grouped by conference and
// division the way the regular season schedule is built around them
// (spec.md §3 Team, §4.6 seeding).
var Roster = []TeamFixture{
	{"Buffalo Bills", "BUF", core.AFC, core.AFCEast},
	{"Miami Dolphins", "MIA", core.AFC, core.AFCEast},
	{"New England Patriots", "NE", core.AFC, core.AFCEast},
	{"New York Jets", "NYJ", core.AFC, core.AFCEast},

	{"Baltimore Ravens", "BAL", core.AFC, core.AFCNorth},
	{"Cincinnati Bengals", "CIN", core.AFC, core.AFCNorth},
	{"Cleveland Browns", "CLE", core.AFC, core.AFCNorth},
	{"Pittsburgh Steelers", "PIT", core.AFC, core.AFCNorth},

	{"Houston Texans", "HOU", core.AFC, core.AFCSouth},
	{"Indianapolis Colts", "IND", core.AFC, core.AFCSouth},
	{"Jacksonville Jaguars", "JAX", core.AFC, core.AFCSouth},
	{"Tennessee Titans", "TEN", core.AFC, core.AFCSouth},

	{"Denver Broncos", "DEN", core.AFC, core.AFCWest},
	{"Kansas City Chiefs", "KC", core.AFC, core.AFCWest},
	{"Las Vegas Raiders", "LV", core.AFC, core.AFCWest},
	{"Los Angeles Chargers", "LAC", core.AFC, core.AFCWest},

	{"Dallas Cowboys", "DAL", core.NFC, core.NFCEast},
	{"New York Giants", "NYG", core.NFC, core.NFCEast},
	{"Philadelphia Eagles", "PHI", core.NFC, core.NFCEast},
	{"Washington Commanders", "WAS", core.NFC, core.NFCEast},

	{"Chicago Bears", "CHI", core.NFC, core.NFCNorth},
	{"Detroit Lions", "DET", core.NFC, core.NFCNorth},
	{"Green Bay Packers", "GB", core.NFC, core.NFCNorth},
	{"Minnesota Vikings", "MIN", core.NFC, core.NFCNorth},

	{"Atlanta Falcons", "ATL", core.NFC, core.NFCSouth},
	{"Carolina Panthers", "CAR", core.NFC, core.NFCSouth},
	{"New Orleans Saints", "NO", core.NFC, core.NFCSouth},
	{"Tampa Bay Buccaneers", "TB", core.NFC, core.NFCSouth},

	{"Arizona Cardinals", "ARI", core.NFC, core.NFCWest},
	{"Los Angeles Rams", "LAR", core.NFC, core.NFCWest},
	{"San Francisco 49ers", "SF", core.NFC, core.NFCWest},
	{"Seattle Seahawks", "SEA", core.NFC, core.NFCWest},
}

// LoadRoster builds a core.Roster from the fixed fixture, independent of
// the database — used by tests that only need TeamIndex assignments.
func LoadRoster() *core.Roster {
	roster := core.NewRoster()
	for _, t := range Roster {
		if _, err := roster.Add(t.Name, t.ShortCode, t.Conference, t.Division); err != nil {
			panic(fmt.Sprintf("seed: fixed roster fixture is malformed: %v", err))
		}
	}
	return roster
}

// Teams upserts the fixed roster into the teams table and records a
// dataset refresh.
func Teams(ctx context.Context, database *db.DB) (int64, error) {
	echo.Info("Seeding team roster...")

	var n int64
	for _, t := range Roster {
		_, err := database.ExecContext(ctx, `
			INSERT INTO teams (team, short_code, conference, division)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (team) DO UPDATE
			SET short_code = EXCLUDED.short_code,
			    conference = EXCLUDED.conference,
			    division = EXCLUDED.division
		`, t.Name, t.ShortCode, string(t.Conference), string(t.Division))
		if err != nil {
			return n, fmt.Errorf("failed to seed team %s: %w", t.Name, err)
		}
		n++
	}

	if err := database.RecordDatasetRefresh(ctx, "teams", n); err != nil {
		return n, err
	}

	echo.Successf("Seeded %d teams", n)
	return n, nil
}
