// Package factors translates a core.GameContext into signed point
// adjustments per spec.md §4.9: situational (S) and emotional (E) factors
// convert to spread points at a 5:1 ratio, weather (W) factors adjust the
// total, never the spread, since both teams are affected equally by
// weather.
package factors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/edgeline/edge-engine/internal/core"
)

// conversionRatio is the points-of-factor-per-spread-point constant shared
// by both the S and E tables.
const conversionRatio = 5.0

// Adjustment is the calculator's full output for one side of one game.
type Adjustment struct {
	SpreadAdjustment float64
	TotalAdjustment  float64
	Summary          string
	Detail           map[string]float64
}

// Calculate scores every S/E/W factor for the team named by `team` within
// ctx and returns the net adjustment favoring that team.
func Calculate(ctx core.GameContext, team core.TeamID) Adjustment {
	detail := make(map[string]float64)

	sTotal := situationalFactors(ctx, team, detail)
	eTotal := emotionalFactors(ctx, team, detail)
	wTotal := weatherFactors(ctx, detail)

	spreadAdj := sTotal/conversionRatio + eTotal/conversionRatio
	totalAdj := wTotal

	return Adjustment{
		SpreadAdjustment: spreadAdj,
		TotalAdjustment:  totalAdj,
		Summary:          summarize(detail, spreadAdj, totalAdj),
		Detail:           detail,
	}
}

func situationalFactors(ctx core.GameContext, team core.TeamID, detail map[string]float64) float64 {
	isHome := team == ctx.Game.HomeTeam
	var total float64

	restDays := ctx.RestDaysAway
	travelTZ := ctx.TravelTimezones
	travelMiles := ctx.TravelMilesAway
	if isHome {
		restDays = ctx.RestDaysHome
		travelTZ, travelMiles = 0, 0 // the home team doesn't travel
	}

	switch {
	case restDays >= 3:
		total += add(detail, "rest_differential", 3)
	case restDays == 2:
		total += add(detail, "rest_differential", 2)
	case restDays == 1:
		total += add(detail, "rest_differential", 1)
	}

	switch {
	case travelTZ >= 3:
		total += add(detail, "travel_fatigue", -3)
	case travelMiles >= 2000:
		total += add(detail, "travel_fatigue", -2)
	case travelMiles >= 1000:
		total += add(detail, "travel_fatigue", -1)
	}

	if ctx.Divisional {
		total += add(detail, "divisional", 1)
	}
	if ctx.Rivalry {
		total += add(detail, "rivalry", 2)
	}
	if ctx.Revenge[team] {
		total += add(detail, "revenge", 2)
	}

	if atsStreakHot(sideHistory(ctx, team)) {
		total += add(detail, "ats_hot_streak", 2)
	} else if atsStreakCold(sideHistory(ctx, team)) {
		total += add(detail, "ats_cold_streak", -2)
	}

	return total
}

func sideHistory(ctx core.GameContext, team core.TeamID) [5]bool {
	if team == ctx.Game.HomeTeam {
		return ctx.ATSLast5Home
	}
	return ctx.ATSLast5Away
}

func atsStreakHot(last5 [5]bool) bool {
	covers := countTrue(last5)
	return covers == 5 || covers == 4
}

func atsStreakCold(last5 [5]bool) bool {
	covers := countTrue(last5)
	return covers == 0 || covers == 1
}

func countTrue(last5 [5]bool) int {
	n := 0
	for _, v := range last5 {
		if v {
			n++
		}
	}
	return n
}

func emotionalFactors(ctx core.GameContext, team core.TeamID, detail map[string]float64) float64 {
	var total float64

	if ctx.PlayoffEliminationFor[team] {
		total += add(detail, "playoff_elimination", 5)
	}
	if ctx.PlayoffClinchFor[team] {
		total += add(detail, "playoff_clinch", 3)
	}
	if ctx.SeedingImplications[team] {
		total += add(detail, "seeding_implications", 2)
	}
	if ctx.NewHeadCoachFirstYear[team] {
		total += add(detail, "new_hc_first_year", 2)
	}
	if ctx.KeyReturningStar[team] {
		total += add(detail, "key_returning_star", 1)
	}

	return total
}

func weatherFactors(ctx core.GameContext, detail map[string]float64) float64 {
	if ctx.Game.Indoor || ctx.Weather == nil {
		return 0
	}

	var total float64
	w := ctx.Weather

	switch {
	case w.WindMPH >= 25:
		total += add(detail, "wind", -7)
	case w.WindMPH >= 20:
		total += add(detail, "wind", -5)
	case w.WindMPH >= 15:
		total += add(detail, "wind", -3)
	}

	if w.TempF < 20 {
		total += add(detail, "extreme_cold", -3)
	}

	return total
}

func add(detail map[string]float64, key string, value float64) float64 {
	detail[key] = value
	return value
}

func summarize(detail map[string]float64, spreadAdj, totalAdj float64) string {
	keys := make([]string, 0, len(detail))
	for k := range detail {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%+.1f", k, detail[k]))
	}

	return fmt.Sprintf("spread%+.2f total%+.2f (%s)", spreadAdj, totalAdj, strings.Join(parts, ", "))
}
