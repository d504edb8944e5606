package tiebreak

import (
	"testing"

	"gridlock.dev/forecast/internal/core"
)

func buildTestRoster() *core.Roster {
	r := core.NewRoster()
	divisions := []core.Division{core.AFCEast, core.AFCNorth, core.AFCSouth, core.AFCWest}
	for d, div := range divisions {
		for i := 0; i < 4; i++ {
			name := "AFC" + string(rune('A'+d*4+i))
			r.Add(name, name, core.AFC, div)
		}
	}
	nfcDivisions := []core.Division{core.NFCEast, core.NFCNorth, core.NFCSouth, core.NFCWest}
	for d, div := range nfcDivisions {
		for i := 0; i < 4; i++ {
			name := "NFC" + string(rune('A'+d*4+i))
			r.Add(name, name, core.NFC, div)
		}
	}
	return r
}

func mustIndex(t *testing.T, r *core.Roster, code string) core.TeamIndex {
	t.Helper()
	idx, ok := r.Lookup(code)
	if !ok {
		t.Fatalf("no such team %q", code)
	}
	return idx
}

func TestThreeWayHeadToHeadSweep(t *testing.T) {
	r := buildTestRoster()
	a := mustIndex(t, r, "AFCA")
	b := mustIndex(t, r, "AFCB")
	c := mustIndex(t, r, "AFCC")

	x := mustIndex(t, r, "AFCE")
	y := mustIndex(t, r, "AFCF")

	// All three at 2-2. A beat B, B beat C, A beat C: head-to-head sweep
	// picks A (spec.md §8 seed test 6).
	games := []core.CompletedGame{
		{Game: core.Game{ID: 1, Home: a, Visiting: b, Result: core.HomeWin, Margin: 3}, Winner: a, Loser: b},
		{Game: core.Game{ID: 2, Home: b, Visiting: c, Result: core.HomeWin, Margin: 3}, Winner: b, Loser: c},
		{Game: core.Game{ID: 3, Home: a, Visiting: c, Result: core.HomeWin, Margin: 3}, Winner: a, Loser: c},
		{Game: core.Game{ID: 4, Home: x, Visiting: a, Result: core.HomeWin, Margin: 3}, Winner: x, Loser: a},
		{Game: core.Game{ID: 5, Home: y, Visiting: a, Result: core.HomeWin, Margin: 3}, Winner: y, Loser: a},
		{Game: core.Game{ID: 6, Home: b, Visiting: x, Result: core.HomeWin, Margin: 3}, Winner: b, Loser: x},
		{Game: core.Game{ID: 7, Home: y, Visiting: b, Result: core.HomeWin, Margin: 3}, Winner: y, Loser: b},
		{Game: core.Game{ID: 8, Home: c, Visiting: x, Result: core.HomeWin, Margin: 3}, Winner: c, Loser: x},
		{Game: core.Game{ID: 9, Home: c, Visiting: y, Result: core.HomeWin, Margin: 3}, Winner: c, Loser: y},
	}

	records := BuildRecords(r, games)
	ordered := orderGroup([]core.TeamIndex{a, b, c}, records)

	if ordered[0] != a {
		t.Fatalf("expected head-to-head sweep to pick A first, got order %v", ordered)
	}
}

func TestWildCardSweepRanksAhead(t *testing.T) {
	r := buildTestRoster()
	x := mustIndex(t, r, "AFCE") // AFC North, different division from Y
	y := mustIndex(t, r, "AFCI") // AFC South

	games := []core.CompletedGame{
		{Game: core.Game{ID: 1, Home: x, Visiting: y, Result: core.HomeWin, Margin: 7}, Winner: x, Loser: y},
		{Game: core.Game{ID: 2, Home: y, Visiting: x, Result: core.VisitingWin, Margin: 7}, Winner: x, Loser: y},
	}

	records := BuildRecords(r, games)
	top, _ := selectTop([]core.TeamIndex{x, y}, records)
	if top != x {
		t.Fatalf("expected X (swept Y 2-0) to rank ahead of Y, got %v", top)
	}
}

func TestSeedProducesFullPermutation(t *testing.T) {
	r := buildTestRoster()

	var games []core.CompletedGame
	id := core.GameID(1)
	teams := r.All()
	for i, home := range teams {
		visiting := teams[(i+1)%len(teams)]
		if home.Index == visiting.Index {
			continue
		}
		result := core.HomeWin
		if i%2 == 0 {
			result = core.VisitingWin
		}
		games = append(games, core.CompletedGame{
			Game:   core.Game{ID: id, Home: home.Index, Visiting: visiting.Index, Result: result, Margin: 3},
			Winner: pickWinner(home.Index, visiting.Index, result),
			Loser:  pickLoser(home.Index, visiting.Index, result),
		})
		id++
	}

	records := BuildRecords(r, games)
	seeding := Seed(r, records)

	assertPermutation(t, "AFC", seeding.AFC[:])
	assertPermutation(t, "NFC", seeding.NFC[:])
}

func pickWinner(home, visiting core.TeamIndex, result core.ResultCode) core.TeamIndex {
	if result == core.HomeWin {
		return home
	}
	return visiting
}

func pickLoser(home, visiting core.TeamIndex, result core.ResultCode) core.TeamIndex {
	if result == core.HomeWin {
		return visiting
	}
	return home
}

func assertPermutation(t *testing.T, label string, seeds []core.TeamIndex) {
	t.Helper()
	seen := make(map[core.TeamIndex]bool)
	for _, s := range seeds {
		if seen[s] {
			t.Fatalf("%s: team %v appears more than once in seeding %v", label, s, seeds)
		}
		seen[s] = true
	}
	if len(seen) != 16 {
		t.Fatalf("%s: expected 16 unique teams, got %d", label, len(seen))
	}
}
