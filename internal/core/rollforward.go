package core

import "math"

// RollforwardRow is the emitted record for one processed completed game:
// pre-game ratings, winner, margin, and the applied delta.
//
// @Description One row of the ELO rollforward log.
type RollforwardRow struct {
	GameID       GameID
	Home         TeamIndex
	Visiting     TeamIndex
	HomePreElo   float64
	VisitingPreElo float64
	Margin       int
	Result       ResultCode
	ContextAdj   float64
	Delta        float64
}

// RollforwardEngine walks completed games in ascending game_id order,
// applying the ELO update rule described in spec.md §4.3.
type RollforwardEngine struct {
	cfg Config
}

// NewRollforwardEngine constructs a RollforwardEngine bound to cfg.
func NewRollforwardEngine(cfg Config) *RollforwardEngine {
	return &RollforwardEngine{cfg: cfg}
}

// Run processes games in the order given (callers must pass them already
// sorted and validated monotonic by GameID; see ValidateOrder) starting
// from initial, returning the per-game log and the terminal ratings.
//
// Fails with MissingRatingError if a team in games has never had a rating
// set. initial must already contain an entry for every team index that
// appears in games.
func (e *RollforwardEngine) Run(initial Ratings, games []CompletedGame, known [TeamCount]bool) ([]RollforwardRow, Ratings, error) {
	ratings := initial.Clone()
	rows := make([]RollforwardRow, 0, len(games))

	var lastID GameID = -1
	for _, g := range games {
		if g.ID <= lastID && lastID != -1 {
			return nil, ratings, NewOrderError(g.ID, "completed games must be strictly increasing by game_id")
		}
		lastID = g.ID

		if !known[g.Home] {
			return nil, ratings, NewMissingRatingError(g.Home)
		}
		if !known[g.Visiting] {
			return nil, ratings, NewMissingRatingError(g.Visiting)
		}

		homePre := ratings[g.Home]
		visitingPre := ratings[g.Visiting]

		ev := e.VisitingWinProbability(homePre, visitingPre, g.NeutralSite, g.ContextAdjustment)
		if err := ValidateProbability("visiting_win_probability", ev); err != nil {
			return nil, ratings, err
		}

		delta := e.Delta(homePre, visitingPre, g.NeutralSite, g.ContextAdjustment, g.Margin, g.Result)
		if err := ValidateFinite("delta", delta); err != nil {
			return nil, ratings, err
		}

		ratings[g.Home] -= delta
		ratings[g.Visiting] += delta

		rows = append(rows, RollforwardRow{
			GameID:         g.ID,
			Home:           g.Home,
			Visiting:       g.Visiting,
			HomePreElo:     homePre,
			VisitingPreElo: visitingPre,
			Margin:         g.Margin,
			Result:         g.Result,
			ContextAdj:     g.ContextAdjustment,
			Delta:          delta,
		})
	}

	return rows, ratings, nil
}

// VisitingWinProbability computes E_v, the visiting team's expected win
// probability, per spec.md §4.3. It is also used verbatim by the Season
// Simulator (§4.5).
func (e *RollforwardEngine) VisitingWinProbability(homeRating, visitingRating float64, neutralSite bool, ctxAdj float64) float64 {
	homeAdv := e.cfg.HomeFieldAdvantage
	if neutralSite {
		homeAdv = 0
	}
	// Open Question 1 (spec.md §9.1): ctx is ADDED here inside the
	// expected-probability exponent, but SUBTRACTED in the winner-gap
	// calculation below. This asymmetry is intentional and documented —
	// do not "fix" it by unifying the signs.
	exponent := -(visitingRating - homeRating - homeAdv + ctxAdj) / e.cfg.EloScale
	return 1 / (1 + math.Pow(10, exponent))
}

// Delta computes the rating delta applied from the home team's
// perspective, per the update rule in spec.md §4.3.
func (e *RollforwardEngine) Delta(homeRating, visitingRating float64, neutralSite bool, ctxAdj float64, margin int, result ResultCode) float64 {
	homeAdv := e.cfg.HomeFieldAdvantage
	if neutralSite {
		homeAdv = 0
	}

	ev := e.VisitingWinProbability(homeRating, visitingRating, neutralSite, ctxAdj)
	actual := float64(result)
	deltaRating := actual - ev

	var gap float64
	visitingWon := result == VisitingWin
	if visitingWon {
		// Open Question 1: ctx is SUBTRACTED here, the opposite sign from
		// the expected-probability exponent above. See the comment there.
		gap = visitingRating - (homeRating + homeAdv - ctxAdj)
	} else {
		gap = (homeRating + homeAdv - ctxAdj) - visitingRating
	}

	m := movMultiplier(margin, gap, e.cfg.MOVBase, e.cfg.MOVDivisor)

	return e.cfg.KFactor * deltaRating * m
}

// ValidateProbability checks that p is a finite value in [0,1], within
// floating-point tolerance. VisitingWinProbability's logistic form cannot
// produce a value outside that range for finite inputs; a violation here
// always means corrupted ratings fed in upstream. Callers raise
// NumericRangeError rather than let a bad probability silently propagate
// into a rollforward log or simulated season (spec.md §7).
func ValidateProbability(field string, p float64) error {
	const tolerance = 1e-9
	if math.IsNaN(p) || math.IsInf(p, 0) || p < -tolerance || p > 1+tolerance {
		return NewNumericRangeError(field, p, "must be a finite probability in [0,1]")
	}
	return nil
}

// ValidateFinite checks that v is neither NaN nor infinite, raising
// NumericRangeError otherwise. Used to guard rating deltas, which should
// always be finite given finite ratings and a well-formed Config.
func ValidateFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NewNumericRangeError(field, v, "must be finite")
	}
	return nil
}

// movMultiplier computes the margin-of-victory multiplier M. margin == 0
// yields M == 0 regardless of gap — ties with zero margin never move
// ratings; this is the model's stated behavior (spec.md §9), not a bug.
func movMultiplier(margin int, gap, movBase, movDivisor float64) float64 {
	if margin == 0 {
		return 0
	}
	return math.Log(math.Abs(float64(margin))+1) * movBase / (movDivisor*gap + movBase)
}

// ValidateOrder checks that games are strictly increasing by GameID and
// that no schedule game_id collides with a completed game_id already seen.
// Returns an OrderError naming the first offending game.
func ValidateOrder(completed []CompletedGame, schedule []Game) error {
	completedIDs := make(map[GameID]bool, len(completed))
	var lastID GameID = -1
	first := true
	for _, g := range completed {
		if !first && g.ID <= lastID {
			return NewOrderError(g.ID, "completed games must be strictly increasing by game_id")
		}
		first = false
		lastID = g.ID
		completedIDs[g.ID] = true
	}

	for _, g := range schedule {
		if completedIDs[g.ID] {
			return NewOrderError(g.ID, "schedule game_id already present among completed games")
		}
	}

	return nil
}

// ValidateReferences checks that every game references teams present in
// known, and that the winner of a completed game is the home or visiting
// side. Returns a ReferentialError naming the first offending game.
func ValidateReferences(games []CompletedGame, known [TeamCount]bool) error {
	for _, g := range games {
		if !known[g.Home] {
			return NewReferentialError(g.ID, "home team not in roster")
		}
		if !known[g.Visiting] {
			return NewReferentialError(g.ID, "visiting team not in roster")
		}
		if g.Winner != g.Home && g.Winner != g.Visiting {
			return NewReferentialError(g.ID, "winning team is neither home nor visiting")
		}
	}
	return nil
}
