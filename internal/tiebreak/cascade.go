package tiebreak

import "gridlock.dev/forecast/internal/core"

// minCommonOpponents is the NFL-rule gate below which the common-games
// step is skipped (spec.md §4.6 step B.4, Open Question 3).
const minCommonOpponents = 4

// CascadeStep names one step of the tiebreaker cascade. Modeled as an
// explicit enum rather than a chain of closures so a per-decision trace is
// straightforward to produce and assert on in tests (spec.md §9 design
// note).
type CascadeStep int

const (
	StepWinPct CascadeStep = iota
	StepHeadToHead
	StepDivisionGames
	StepCommonGames
	StepConferenceGames
	StepStrengthOfVictory
	StepStrengthOfSchedule
	StepTeamIndex
	stepCount
)

// Decision records which team was selected at which cascade step, for
// debugging and test assertions (spec.md §9 design note).
type Decision struct {
	Step     CascadeStep
	Selected TeamIndex
	Group    []TeamIndex
}

// selectTop applies the cascade to group and returns the single
// highest-ranked team plus the step that resolved the tie. Step 8
// (team-index order) is total, so selectTop always returns a result.
func selectTop(group []TeamIndex, records map[TeamIndex]TeamRecord) (TeamIndex, CascadeStep) {
	d := selectTopDecision(group, records)
	return d.Selected, d.Step
}

// selectTopDecision is selectTop's full form: it runs the same cascade but
// returns the Decision record (selected team, resolving step, and the
// group it was chosen from) so callers that want a per-decision trace
// (Seed) can keep one without every selectTop caller paying for it.
func selectTopDecision(group []TeamIndex, records map[TeamIndex]TeamRecord) Decision {
	candidates := append([]TeamIndex(nil), group...)

	for step := CascadeStep(0); step < stepCount; step++ {
		best := bestByStep(step, candidates, records)
		if len(best) == 1 {
			return Decision{Step: step, Selected: best[0], Group: group}
		}
		if len(best) > 0 && len(best) < len(candidates) {
			// A partial split without a unique winner: per spec.md §4.6,
			// proceed to the next step evaluated over the *original*
			// full group, not the sub-group.
			continue
		}
		// Fully tied (or step 8, which never ties): fall through.
	}

	// Unreachable: StepTeamIndex always yields a unique lowest index.
	return Decision{Step: StepTeamIndex, Selected: candidates[0], Group: group}
}

// bestByStep returns the subset of candidates achieving the maximum value
// under step. An empty or skipped step (e.g. common-games below the
// minimum) returns the full candidate set unchanged (a no-op tie).
func bestByStep(step CascadeStep, candidates []TeamIndex, records map[TeamIndex]TeamRecord) []TeamIndex {
	type scored struct {
		team  TeamIndex
		value float64
		ok    bool
	}

	scores := make([]scored, len(candidates))
	anyOK := false
	for i, t := range candidates {
		v, ok := metricFor(step, t, candidates, records)
		scores[i] = scored{team: t, value: v, ok: ok}
		anyOK = anyOK || ok
	}

	if !anyOK {
		return candidates
	}

	var max float64
	first := true
	for _, s := range scores {
		if !s.ok {
			continue
		}
		if first || s.value > max {
			max = s.value
			first = false
		}
	}

	var best []TeamIndex
	for _, s := range scores {
		if s.ok && s.value == max {
			best = append(best, s.team)
		}
	}
	return best
}

func metricFor(step CascadeStep, t TeamIndex, group []TeamIndex, records map[TeamIndex]TeamRecord) (float64, bool) {
	rec := records[t]
	switch step {
	case StepWinPct:
		return rec.WinPct(), true
	case StepHeadToHead:
		return h2hPct(t, group, records)
	case StepDivisionGames:
		if rec.divGames() == 0 {
			return 0, false
		}
		return rec.divPct(), true
	case StepCommonGames:
		return commonGamesPct(t, group, records, minCommonOpponents)
	case StepConferenceGames:
		if rec.confGames() == 0 {
			return 0, false
		}
		return rec.confPct(), true
	case StepStrengthOfVictory:
		return strengthOfVictory(t, records), true
	case StepStrengthOfSchedule:
		return strengthOfSchedule(t, records), true
	case StepTeamIndex:
		// Lower index wins; invert so the max-selection logic above
		// still picks the "best" (lowest-index) team.
		return -float64(t), true
	}
	return 0, false
}

// orderGroup repeatedly selects the top remaining team from group,
// producing a full rank order. This implements both the division cascade
// (order the 4 division leaders) and the "iteratively select, then
// re-run the cascade on the shrunken set" wild-card and non-playoff
// procedures (spec.md §4.6 steps B-D).
func orderGroup(group []TeamIndex, records map[TeamIndex]TeamRecord) []TeamIndex {
	remaining := append([]TeamIndex(nil), group...)
	ordered := make([]TeamIndex, 0, len(group))

	for len(remaining) > 0 {
		top, _ := selectTop(remaining, records)
		ordered = append(ordered, top)
		remaining = removeTeam(remaining, top)
	}
	return ordered
}

// orderGroupTraced is orderGroup plus a recorded Decision per selection,
// appended to *trace in resolution order. Used by Seed, which exposes the
// accumulated trace on Seeding for debugging a disputed seeding.
func orderGroupTraced(group []TeamIndex, records map[TeamIndex]TeamRecord, trace *[]Decision) []TeamIndex {
	remaining := append([]TeamIndex(nil), group...)
	ordered := make([]TeamIndex, 0, len(group))

	for len(remaining) > 0 {
		d := selectTopDecision(remaining, records)
		*trace = append(*trace, d)
		ordered = append(ordered, d.Selected)
		remaining = removeTeam(remaining, d.Selected)
	}
	return ordered
}

func removeTeam(group []TeamIndex, t TeamIndex) []TeamIndex {
	out := make([]TeamIndex, 0, len(group)-1)
	for _, g := range group {
		if g != t {
			out = append(out, g)
		}
	}
	return out
}

// Seeding is the conference-by-conference result of the tiebreaker
// cascade: a rank 1..16 per team, where ranks 1..4 are the division
// winners (in conference-cascade order), 5..7 the wild cards, and 8..16
// the remaining teams.
type Seeding struct {
	AFC [16]TeamIndex
	NFC [16]TeamIndex

	// Trace records every cascade decision made while producing AFC and
	// NFC, in resolution order, for debugging a disputed seeding
	// (spec.md §9 design note).
	Trace []Decision
}

// Seed runs the full NFL playoff-seeding cascade over records, grouped by
// roster division/conference membership, per spec.md §4.6.
func Seed(roster *core.Roster, records map[TeamIndex]TeamRecord) Seeding {
	var seeding Seeding
	seeding.AFC = seedConference(roster, records, core.AFC, &seeding.Trace)
	seeding.NFC = seedConference(roster, records, core.NFC, &seeding.Trace)
	return seeding
}

func seedConference(roster *core.Roster, records map[TeamIndex]TeamRecord, conf core.Conference, trace *[]Decision) [16]TeamIndex {
	divisions := divisionsOf(conf)

	var divisionWinners []TeamIndex
	remaining := make(map[TeamIndex]bool)
	for _, team := range roster.All() {
		if team.Conference != conf {
			continue
		}
		remaining[team.Index] = true
	}

	for _, div := range divisions {
		var members []TeamIndex
		for _, team := range roster.All() {
			if team.Conference == conf && team.Division == div {
				members = append(members, team.Index)
			}
		}
		winner := orderGroupTraced(members, records, trace)[0]
		rec := records[winner]
		rec.DivisionWinner = true
		records[winner] = rec
		divisionWinners = append(divisionWinners, winner)
		delete(remaining, winner)
	}

	orderedWinners := orderGroupTraced(divisionWinners, records, trace)

	var nonWinners []TeamIndex
	for t := range remaining {
		nonWinners = append(nonWinners, t)
	}

	var wildCards []TeamIndex
	pool := append([]TeamIndex(nil), nonWinners...)
	for len(wildCards) < 3 && len(pool) > 0 {
		d := selectTopDecision(pool, records)
		*trace = append(*trace, d)
		wildCards = append(wildCards, d.Selected)
		pool = removeTeam(pool, d.Selected)
	}

	nonPlayoff := orderGroupTraced(pool, records, trace)

	var out [16]TeamIndex
	for i, t := range orderedWinners {
		out[i] = t
		rec := records[t]
		rec.Seed = i + 1
		records[t] = rec
	}
	for i, t := range wildCards {
		out[4+i] = t
		rec := records[t]
		rec.Seed = 5 + i
		records[t] = rec
	}
	for i, t := range nonPlayoff {
		out[7+i] = t
		rec := records[t]
		rec.Seed = 8 + i
		records[t] = rec
	}
	return out
}

func divisionsOf(conf core.Conference) []core.Division {
	if conf == core.AFC {
		return []core.Division{core.AFCEast, core.AFCNorth, core.AFCSouth, core.AFCWest}
	}
	return []core.Division{core.NFCEast, core.NFCNorth, core.NFCSouth, core.NFCWest}
}
