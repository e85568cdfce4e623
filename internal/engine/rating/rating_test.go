package rating

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeline/edge-engine/internal/core"
)

func TestUpdateWeekMatchesWorkedExample(t *testing.T) {
	date := time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC)
	results := []core.GameResult{
		{Team: "A", Opponent: "B", TeamScore: 42, OpponentScore: 35, IsHome: true, League: core.LeagueNCAAF, Date: date, GameID: "A_B_20260906"},
		{Team: "B", Opponent: "A", TeamScore: 35, OpponentScore: 42, IsHome: false, League: core.LeagueNCAAF, Date: date, GameID: "A_B_20260906"},
	}
	current := map[core.TeamID]float64{"A": 80.0, "B": 85.0}

	next, err := UpdateWeek(results, current, 3.5)
	require.NoError(t, err)

	assert.InDelta(t, 80.85, next["A"], 1e-9)
	assert.InDelta(t, 84.15, next["B"], 1e-9)
}

func TestUpdateWeekRejectsOutOfOrderResults(t *testing.T) {
	early := time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC)
	results := []core.GameResult{
		{Team: "A", Opponent: "B", Date: late, GameID: "A_B_20260913"},
		{Team: "A", Opponent: "C", Date: early, GameID: "A_C_20260906"},
	}

	_, err := UpdateWeek(results, map[core.TeamID]float64{"A": 80, "B": 80, "C": 80}, 2.5)
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))
}

func TestPredictedSpread(t *testing.T) {
	assert.InDelta(t, -5.5, PredictedSpread(90, 92, 3.5), 1e-9)
}

func TestComposePreseason(t *testing.T) {
	got := ComposePreseason(80.0, []Delta{{Reason: "draft", Points: 1.2}, {Reason: "coaching", Points: -0.5}})
	assert.InDelta(t, 80.7, got, 1e-9)
}
