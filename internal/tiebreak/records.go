// Package tiebreak implements the NFL playoff seeding cascade: reducing a
// season's worth of game results to a 1..16 rank per conference.
package tiebreak

import "gridlock.dev/forecast/internal/core"

// H2H is one team's aggregate record against a single opponent.
type H2H struct {
	Wins, Losses, Ties int
}

// TeamRecord holds everything the tiebreaker cascade needs about one team
// across a full season (completed games plus, within a scenario, simulated
// games): overall/conference/division win-loss-tie counts, and the
// head-to-head record against every opponent played.
type TeamRecord struct {
	Team TeamIndex

	Wins, Losses, Ties           int
	ConfWins, ConfLosses, ConfTies int
	DivWins, DivLosses, DivTies    int

	Opponents map[TeamIndex]H2H

	DivisionWinner bool
	Seed           int
}

// TeamIndex is an alias kept local to this package's exported surface so
// callers of tiebreak need not import core just to name a team.
type TeamIndex = core.TeamIndex

// GamesPlayed returns the number of games counted toward Wins/Losses/Ties.
func (r TeamRecord) GamesPlayed() int {
	return r.Wins + r.Losses + r.Ties
}

// WinPct is (wins + 0.5*ties) / games, or 0 if no games were played.
func (r TeamRecord) WinPct() float64 {
	g := r.GamesPlayed()
	if g == 0 {
		return 0
	}
	return (float64(r.Wins) + 0.5*float64(r.Ties)) / float64(g)
}

func (r TeamRecord) confGames() int { return r.ConfWins + r.ConfLosses + r.ConfTies }
func (r TeamRecord) confPct() float64 {
	g := r.confGames()
	if g == 0 {
		return 0
	}
	return (float64(r.ConfWins) + 0.5*float64(r.ConfTies)) / float64(g)
}

func (r TeamRecord) divGames() int { return r.DivWins + r.DivLosses + r.DivTies }
func (r TeamRecord) divPct() float64 {
	g := r.divGames()
	if g == 0 {
		return 0
	}
	return (float64(r.DivWins) + 0.5*float64(r.DivTies)) / float64(g)
}

// h2hPct is the won-loss percentage of a among the games in full that a
// played against any of the other members of group.
func h2hPct(a TeamIndex, group []TeamIndex, full map[TeamIndex]TeamRecord) (float64, bool) {
	wins, losses, ties := 0, 0, 0
	for _, opp := range group {
		if opp == a {
			continue
		}
		if rec, ok := full[a].Opponents[opp]; ok {
			wins += rec.Wins
			losses += rec.Losses
			ties += rec.Ties
		}
	}
	games := wins + losses + ties
	if games == 0 {
		return 0, false
	}
	return (float64(wins) + 0.5*float64(ties)) / float64(games), true
}

// commonGamesPct is a's won-loss percentage against opponents common to
// every member of group. Returns ok=false if fewer than minCommon common
// opponents exist (the cascade only applies common-games at ≥4).
func commonGamesPct(a TeamIndex, group []TeamIndex, full map[TeamIndex]TeamRecord, minCommon int) (float64, bool) {
	common := commonOpponents(group, full)
	if len(common) < minCommon {
		return 0, false
	}

	wins, losses, ties := 0, 0, 0
	for _, opp := range common {
		if rec, ok := full[a].Opponents[opp]; ok {
			wins += rec.Wins
			losses += rec.Losses
			ties += rec.Ties
		}
	}
	games := wins + losses + ties
	if games == 0 {
		return 0, false
	}
	return (float64(wins) + 0.5*float64(ties)) / float64(games), true
}

// commonOpponents returns the set of teams every member of group has
// played at least once.
func commonOpponents(group []TeamIndex, full map[TeamIndex]TeamRecord) []TeamIndex {
	if len(group) == 0 {
		return nil
	}
	counts := make(map[TeamIndex]int)
	for _, t := range group {
		seen := make(map[TeamIndex]bool)
		for opp := range full[t].Opponents {
			isMember := false
			for _, g := range group {
				if g == opp {
					isMember = true
					break
				}
			}
			if isMember {
				continue
			}
			if !seen[opp] {
				seen[opp] = true
				counts[opp]++
			}
		}
	}

	var common []TeamIndex
	for opp, n := range counts {
		if n == len(group) {
			common = append(common, opp)
		}
	}
	return common
}

// strengthOfVictory is the average win percentage of every team a beat.
func strengthOfVictory(a TeamIndex, full map[TeamIndex]TeamRecord) float64 {
	var sum float64
	var n int
	for opp, rec := range full[a].Opponents {
		if rec.Wins > 0 {
			sum += full[opp].WinPct()
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// strengthOfSchedule is the average win percentage of every team a played.
func strengthOfSchedule(a TeamIndex, full map[TeamIndex]TeamRecord) float64 {
	var sum float64
	var n int
	for opp := range full[a].Opponents {
		sum += full[opp].WinPct()
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// BuildRecords reduces a full season's worth of finished games (completed
// plus, within a scenario, simulated) to one TeamRecord per team. games
// must cover every team in roster; BuildRecords does not validate
// referential integrity — callers (the Rollforward/Simulator layers) are
// expected to have already done so via core.ValidateReferences.
func BuildRecords(roster *core.Roster, games []core.CompletedGame) map[TeamIndex]TeamRecord {
	records := make(map[TeamIndex]TeamRecord, roster.Len())
	for _, team := range roster.All() {
		records[team.Index] = TeamRecord{Team: team.Index, Opponents: make(map[TeamIndex]H2H)}
	}

	for _, g := range games {
		home := records[g.Home]
		visiting := records[g.Visiting]

		sameDiv := roster.Team(g.Home).Division == roster.Team(g.Visiting).Division
		sameConf := roster.Team(g.Home).Conference == roster.Team(g.Visiting).Conference

		switch g.Result {
		case core.HomeWin:
			applyResult(&home, &visiting, g.Home, g.Visiting, sameDiv, sameConf, winHome)
		case core.VisitingWin:
			applyResult(&home, &visiting, g.Home, g.Visiting, sameDiv, sameConf, winVisiting)
		case core.Tie:
			applyResult(&home, &visiting, g.Home, g.Visiting, sameDiv, sameConf, tie)
		}

		records[g.Home] = home
		records[g.Visiting] = visiting
	}

	return records
}

type outcome int

const (
	winHome outcome = iota
	winVisiting
	tie
)

func applyResult(home, visiting *TeamRecord, homeIdx, visitingIdx TeamIndex, sameDiv, sameConf bool, o outcome) {
	homeH2H := home.Opponents[visitingIdx]
	visitingH2H := visiting.Opponents[homeIdx]

	switch o {
	case winHome:
		home.Wins++
		visiting.Losses++
		homeH2H.Wins++
		visitingH2H.Losses++
		if sameConf {
			home.ConfWins++
			visiting.ConfLosses++
		}
		if sameDiv {
			home.DivWins++
			visiting.DivLosses++
		}
	case winVisiting:
		visiting.Wins++
		home.Losses++
		visitingH2H.Wins++
		homeH2H.Losses++
		if sameConf {
			visiting.ConfWins++
			home.ConfLosses++
		}
		if sameDiv {
			visiting.DivWins++
			home.DivLosses++
		}
	case tie:
		home.Ties++
		visiting.Ties++
		homeH2H.Ties++
		visitingH2H.Ties++
		if sameConf {
			home.ConfTies++
			visiting.ConfTies++
		}
		if sameDiv {
			home.DivTies++
			visiting.DivTies++
		}
	}

	home.Opponents[visitingIdx] = homeH2H
	visiting.Opponents[homeIdx] = visitingH2H
}
