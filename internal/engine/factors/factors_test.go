package factors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edgeline/edge-engine/internal/core"
)

func TestCalculateMatchesWorkedExample(t *testing.T) {
	ctx := core.GameContext{
		Game:                core.Game{HomeTeam: "HOME", AwayTeam: "AWAY", Indoor: true},
		RestDaysHome:        2,
		Divisional:          true,
		Rivalry:             true,
		ATSLast5Home:        [5]bool{true, true, true, true, false},
		SeedingImplications: map[core.TeamID]bool{"HOME": true},
	}

	adj := Calculate(ctx, "HOME")

	assert.InDelta(t, 1.8, adj.SpreadAdjustment, 1e-9)
	assert.InDelta(t, 0, adj.TotalAdjustment, 1e-9)
	assert.InDelta(t, 2.0, adj.Detail["rest_differential"], 1e-9)
	assert.InDelta(t, 1.0, adj.Detail["divisional"], 1e-9)
	assert.InDelta(t, 2.0, adj.Detail["rivalry"], 1e-9)
	assert.InDelta(t, 2.0, adj.Detail["ats_hot_streak"], 1e-9)
	assert.InDelta(t, 2.0, adj.Detail["seeding_implications"], 1e-9)
}

func TestWeatherFactorsIgnoredIndoors(t *testing.T) {
	ctx := core.GameContext{
		Game:    core.Game{HomeTeam: "HOME", Indoor: true},
		Weather: &core.WeatherReport{WindMPH: 30, TempF: 10},
	}

	adj := Calculate(ctx, "HOME")
	assert.InDelta(t, 0, adj.TotalAdjustment, 1e-9)
}

func TestWeatherFactorsStackOutdoors(t *testing.T) {
	ctx := core.GameContext{
		Game:    core.Game{HomeTeam: "HOME", Indoor: false},
		Weather: &core.WeatherReport{WindMPH: 26, TempF: 15},
	}

	adj := Calculate(ctx, "HOME")
	assert.InDelta(t, -10, adj.TotalAdjustment, 1e-9)
}

func TestColdStreakPenalizesSpread(t *testing.T) {
	ctx := core.GameContext{
		Game:         core.Game{HomeTeam: "HOME"},
		ATSLast5Home: [5]bool{false, false, false, false, true},
	}

	adj := Calculate(ctx, "HOME")
	assert.InDelta(t, -2.0/conversionRatio, adj.SpreadAdjustment, 1e-9)
}
