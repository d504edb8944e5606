package core

import (
	"math"
	"testing"
)

func approxEqual(t *testing.T, got, want, tol float64, msg string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %v, want %v (tol %v)", msg, got, want, tol)
	}
}

func TestSeedOneEqualRatingsHomeWinsBySeven(t *testing.T) {
	cfg := DefaultConfig()
	e := NewRollforwardEngine(cfg)

	delta := e.Delta(1500, 1500, false, 0, 7, HomeWin)
	approxEqual(t, delta, -11.47, 0.1, "seed test 1 delta")
}

func TestSeedTwoVisitingWinsBySeven(t *testing.T) {
	cfg := DefaultConfig()
	e := NewRollforwardEngine(cfg)

	delta := e.Delta(1500, 1500, false, 0, 7, VisitingWin)
	approxEqual(t, delta, 16.56, 0.1, "seed test 2 delta")
}

func TestSeedThreeNeutralSiteSmallerMagnitude(t *testing.T) {
	cfg := DefaultConfig()
	e := NewRollforwardEngine(cfg)

	neutralDelta := e.Delta(1500, 1500, true, 0, 3, HomeWin)
	approxEqual(t, neutralDelta, -13.86, 0.2, "seed test 3 delta")

	nonNeutralDelta := e.Delta(1500, 1500, false, 0, 3, HomeWin)
	if math.Abs(nonNeutralDelta) >= math.Abs(neutralDelta) {
		t.Errorf("expected home_adv to shrink the magnitude of a neutral-site-equivalent score: neutral=%v non-neutral=%v", neutralDelta, nonNeutralDelta)
	}
}

func TestSeedFourFavoredHomeSmallUpdate(t *testing.T) {
	cfg := DefaultConfig()
	e := NewRollforwardEngine(cfg)

	delta := e.Delta(1600, 1400, false, 0, 14, HomeWin)
	if math.Abs(delta) >= 10 {
		t.Errorf("expected |delta| < 10 for favored-home expected win, got %v", delta)
	}
}

func TestZeroSumUpdate(t *testing.T) {
	cfg := DefaultConfig()
	e := NewRollforwardEngine(cfg)

	for _, tc := range []struct {
		home, visiting float64
		margin         int
		result         ResultCode
	}{
		{1500, 1500, 7, HomeWin},
		{1500, 1500, 7, VisitingWin},
		{1620, 1380, 21, HomeWin},
		{1400, 1600, 3, VisitingWin},
	} {
		delta := e.Delta(tc.home, tc.visiting, false, 0, tc.margin, tc.result)
		newHome := tc.home - delta
		newVisiting := tc.visiting + delta
		approxEqual(t, newHome+newVisiting, tc.home+tc.visiting, 1e-9, "zero-sum invariant")
	}
}

func TestMarginZeroNoOp(t *testing.T) {
	cfg := DefaultConfig()
	e := NewRollforwardEngine(cfg)

	delta := e.Delta(1500, 1550, false, 0, 0, Tie)
	if delta != 0 {
		t.Errorf("expected delta == 0 for margin == 0, got %v", delta)
	}
}

func TestHomeVisitingSymmetry(t *testing.T) {
	cfg := DefaultConfig()
	e := NewRollforwardEngine(cfg)

	delta := e.Delta(1550, 1450, true, 0, 10, HomeWin)
	swapped := e.Delta(1450, 1550, true, 0, 10, VisitingWin)

	approxEqual(t, swapped, -delta, 1e-9, "home/visiting symmetry")
}

func TestKLinearity(t *testing.T) {
	cfg := DefaultConfig()
	e1 := NewRollforwardEngine(cfg)

	cfg2 := cfg
	cfg2.KFactor = cfg.KFactor * 2
	e2 := NewRollforwardEngine(cfg2)

	d1 := e1.Delta(1500, 1450, false, 3, 9, HomeWin)
	d2 := e2.Delta(1500, 1450, false, 3, 9, HomeWin)

	approxEqual(t, d2, 2*d1, 1e-9, "K linearity")
}

func TestRollforwardZeroGamesReturnsInitialUnchanged(t *testing.T) {
	cfg := DefaultConfig()
	e := NewRollforwardEngine(cfg)

	var initial Ratings
	initial[0] = 1500
	initial[1] = 1620

	var known [TeamCount]bool
	known[0], known[1] = true, true

	_, terminal, err := e.Run(initial, nil, known)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if terminal != initial {
		t.Errorf("expected unchanged ratings with zero completed games, got %v want %v", terminal, initial)
	}
}

func TestRollforwardMissingRatingFails(t *testing.T) {
	cfg := DefaultConfig()
	e := NewRollforwardEngine(cfg)

	var known [TeamCount]bool
	known[0] = true // team 1 never loaded

	games := []CompletedGame{
		{
			Game:   Game{ID: 1, Home: 0, Visiting: 1, Margin: 7, Result: HomeWin},
			Winner: 0,
			Loser:  1,
		},
	}

	_, _, err := e.Run(Ratings{}, games, known)
	if !IsMissingRatingError(err) {
		t.Fatalf("expected MissingRatingError, got %v", err)
	}
}

func TestRollforwardOrderErrorOnNonMonotoneGameID(t *testing.T) {
	cfg := DefaultConfig()
	e := NewRollforwardEngine(cfg)

	var known [TeamCount]bool
	known[0], known[1] = true, true

	games := []CompletedGame{
		{Game: Game{ID: 5, Home: 0, Visiting: 1, Margin: 7, Result: HomeWin}, Winner: 0, Loser: 1},
		{Game: Game{ID: 3, Home: 0, Visiting: 1, Margin: 3, Result: HomeWin}, Winner: 0, Loser: 1},
	}

	_, _, err := e.Run(Ratings{}, games, known)
	if !IsOrderError(err) {
		t.Fatalf("expected OrderError, got %v", err)
	}
}

func TestFullSeasonSumPreserved(t *testing.T) {
	cfg := DefaultConfig()
	e := NewRollforwardEngine(cfg)

	var initial Ratings
	var known [TeamCount]bool
	for i := 0; i < TeamCount; i++ {
		initial[i] = 1505
		known[i] = true
	}

	games := make([]CompletedGame, 0, 272)
	id := GameID(1)
	for week := 0; week < 17; week++ {
		for pair := 0; pair < 16; pair++ {
			home := TeamIndex(pair)
			visiting := TeamIndex((pair + 1) % TeamCount)
			result := HomeWin
			if (week+pair)%3 == 0 {
				result = VisitingWin
			}
			games = append(games, CompletedGame{
				Game: Game{
					ID:       id,
					Week:     week + 1,
					Home:     home,
					Visiting: visiting,
					Margin:   3 + (week+pair)%21,
					Result:   result,
				},
				Winner: home,
				Loser:  visiting,
			})
			id++
		}
	}

	_, terminal, err := e.Run(initial, games, known)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	approxEqual(t, terminal.Sum(), initial.Sum(), 1e-6, "full-season sum preserved")
}
