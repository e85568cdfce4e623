package edge

import (
	"fmt"
	"sort"

	"github.com/edgeline/edge-engine/internal/core"
)

// Consensus reduces one capture per configured book into a single
// median line (step 1). Suspect captures are excluded before the
// median is taken; CapturedAt on the result is the latest of the
// inputs used.
func Consensus(gameID core.GameID, books []core.Odds) (core.Odds, error) {
	usable := make([]core.Odds, 0, len(books))
	for _, o := range books {
		if o.Suspect {
			continue
		}
		usable = append(usable, o)
	}
	if len(usable) == 0 {
		return core.Odds{}, fmt.Errorf("edge: no usable odds for game %s", gameID)
	}

	spread := median(pluck(usable, func(o core.Odds) float64 { return o.HomeSpread }))
	total := median(pluck(usable, func(o core.Odds) float64 { return o.Total }))

	latest := usable[0].CapturedAt
	for _, o := range usable[1:] {
		if o.CapturedAt.After(latest) {
			latest = o.CapturedAt
		}
	}

	return core.Odds{
		GameID:     gameID,
		Sportsbook: "consensus",
		CapturedAt: latest,
		HomeSpread: spread,
		AwaySpread: -spread,
		Total:      total,
	}, nil
}

func pluck(books []core.Odds, f func(core.Odds) float64) []float64 {
	out := make([]float64, len(books))
	for i, o := range books {
		out[i] = f(o)
	}
	return out
}

func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// latestPerBook keeps only the most recent capture for each sportsbook,
// the input to Consensus.
func latestPerBook(all []core.Odds) []core.Odds {
	latest := make(map[string]core.Odds, len(all))
	for _, o := range all {
		cur, ok := latest[o.Sportsbook]
		if !ok || o.CapturedAt.After(cur.CapturedAt) {
			latest[o.Sportsbook] = o
		}
	}
	out := make([]core.Odds, 0, len(latest))
	for _, o := range latest {
		out = append(out, o)
	}
	return out
}

// Latest is the public entry point combining latestPerBook and
// Consensus: the full step-1 reduction over a window of raw captures.
func Latest(gameID core.GameID, captures []core.Odds) (core.Odds, error) {
	return Consensus(gameID, latestPerBook(captures))
}
