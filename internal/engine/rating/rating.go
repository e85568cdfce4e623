// Package rating implements the weekly power-rating update (C8): pure
// functions over []core.GameResult and a current-rating snapshot, no I/O.
// The teacher has no equivalent domain algorithm; structured the way the
// teacher structures its own pure computation packages (internal/computed,
// internal/derived) — plain functions, explicit slices and maps, no
// hidden state.
package rating

import (
	"sort"

	"github.com/edgeline/edge-engine/internal/core"
)

// Delta is one signed adjustment applied during preseason composition
// (drafted players, free-agent moves, coaching changes, expected
// progression).
type Delta struct {
	Reason string
	Points float64
}

// updateWeight is the exponential smoothing factor applied to the prior
// rating; (1-updateWeight) is applied to true_perf.
const updateWeight = 0.9

// validateOrder returns a ValidationError when results are not sorted
// ascending by (date, game_id), the precondition UpdateWeek requires.
func validateOrder(results []core.GameResult) error {
	for i := 1; i < len(results); i++ {
		prev, cur := results[i-1], results[i]
		if cur.Date.Before(prev.Date) {
			return core.NewValidationError("game_results", "not sorted ascending by (date, game_id)")
		}
		if cur.Date.Equal(prev.Date) && cur.GameID < prev.GameID {
			return core.NewValidationError("game_results", "not sorted ascending by (date, game_id)")
		}
	}
	return nil
}

// UpdateWeek applies the league's update rule to every result in order,
// returning a fresh rating snapshot. current is read but never mutated;
// callers commit the result via RatingRepository.CommitWeek.
func UpdateWeek(results []core.GameResult, current map[core.TeamID]float64, homeFieldAdvantage float64) (map[core.TeamID]float64, error) {
	if err := validateOrder(results); err != nil {
		return nil, err
	}

	next := make(map[core.TeamID]float64, len(current))
	for team, r := range current {
		next[team] = r
	}

	// Every game reads opponent and own ratings from current, the
	// start-of-week snapshot, never from next — this is what makes the
	// whole week's worth of games update "simultaneously" regardless of
	// processing order, so week N+1 sees a consistent, atomically
	// committed state.
	for _, r := range results {
		oldRating := current[r.Team]
		opponentRating := current[r.Opponent]

		hfaAdj := homeFieldAdvantage
		if !r.IsHome {
			hfaAdj = -homeFieldAdvantage
		}

		truePerf := float64(r.ScoreDifferential()) + opponentRating + r.InjuryDifferential - hfaAdj
		next[r.Team] = updateWeight*oldRating + (1-updateWeight)*truePerf
	}

	return next, nil
}

// PredictedSpread returns predicted_home_spread = away_rating - home_rating
// - home_field_adj. Negative means home favored by that many points.
func PredictedSpread(awayRating, homeRating, homeFieldAdvantage float64) float64 {
	return awayRating - homeRating - homeFieldAdvantage
}

// ComposePreseason sums a prior-season-final rating with a list of signed
// deltas (draft, free agency, coaching, expected progression). Deltas are
// inputs; this only folds them in.
func ComposePreseason(priorFinal float64, deltas []Delta) float64 {
	rating := priorFinal
	for _, d := range deltas {
		rating += d.Points
	}
	return rating
}

// SortResults orders results ascending by (date, game_id) in place, the
// shape UpdateWeek requires; callers that assemble results from multiple
// sources should call this before UpdateWeek rather than relying on
// insertion order.
func SortResults(results []core.GameResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if !results[i].Date.Equal(results[j].Date) {
			return results[i].Date.Before(results[j].Date)
		}
		return results[i].GameID < results[j].GameID
	})
}
