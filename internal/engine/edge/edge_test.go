package edge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeline/edge-engine/internal/core"
)

func TestDetectMatchesWorkedExampleShape(t *testing.T) {
	// Empty GameContext fields produce an identical cold-streak penalty on
	// both sides of factors.Calculate, so they net to zero and the whole
	// projected spread comes from the rating differential: away 77.5 vs
	// home 80.0 projects home -2.5. Market is home -3.5, a 1.0 point edge
	// toward the away side that also crosses the NFL's key number 3 (the
	// same pair E3/P8 use), landing at an edge_percentage of 8.5%.
	game := core.GameContext{
		Game: core.Game{
			GameID:   "g1",
			League:   core.LeagueNFL,
			HomeTeam: "HOME",
			AwayTeam: "AWAY",
			Indoor:   true,
		},
	}

	d := NewDetector(DefaultConfig("v1"))
	pred, err := d.Detect(Input{
		Game:               game,
		AwayRating:         77.5,
		HomeRating:         80.0,
		HomeFieldAdvantage: 0,
		ConsensusOdds:      core.Odds{GameID: "g1", HomeSpread: -3.5, AwaySpread: 3.5, Total: 44},
		Bankroll:           10000,
	})
	require.NoError(t, err)

	assert.Equal(t, core.SideAway, pred.RecommendedSide)
	assert.InDelta(t, 1.0, pred.EdgePoints, 1e-9)
	assert.InDelta(t, 8.5, pred.EdgePercentage, 1e-9)
	assert.Equal(t, core.Stars1, pred.StarsRating)
	assert.LessOrEqual(t, pred.StakeUnits, 0.03)
	assert.Greater(t, pred.StakeUnits, 0.0)
}

func TestDetectCountsKeyNumberOnIntegerBoundary(t *testing.T) {
	// Literal E3: projectedSpread=-2.0, marketSpread=-3.0. The 3 sits
	// exactly on the market line's boundary rather than strictly between
	// the two lines, so it must still count toward the key-number edge
	// (8.5% total, 1.0 stars) rather than being dropped to a bare 0.5%.
	game := core.GameContext{
		Game: core.Game{
			GameID:   "g3",
			League:   core.LeagueNFL,
			HomeTeam: "HOME",
			AwayTeam: "AWAY",
			Indoor:   true,
		},
	}

	d := NewDetector(DefaultConfig("v1"))
	pred, err := d.Detect(Input{
		Game:               game,
		AwayRating:         78.0,
		HomeRating:         80.0,
		HomeFieldAdvantage: 0,
		ConsensusOdds:      core.Odds{GameID: "g3", HomeSpread: -3.0, AwaySpread: 3.0, Total: 44},
		Bankroll:           10000,
	})
	require.NoError(t, err)

	assert.InDelta(t, -2.0, pred.PredictedSpread, 1e-9)
	assert.InDelta(t, 8.5, pred.EdgePercentage, 1e-9)
	assert.Equal(t, core.Stars1, pred.StarsRating)
	assert.Equal(t, core.SideAway, pred.RecommendedSide)
}

func TestDetectBelowFloorZerosStarsAndStake(t *testing.T) {
	game := core.GameContext{
		Game: core.Game{GameID: "g2", League: core.LeagueNFL, HomeTeam: "HOME", AwayTeam: "AWAY", Indoor: true},
	}

	d := NewDetector(DefaultConfig("v1"))
	pred, err := d.Detect(Input{
		Game:               game,
		AwayRating:         80.0,
		HomeRating:         80.2,
		HomeFieldAdvantage: 0,
		ConsensusOdds:      core.Odds{GameID: "g2", HomeSpread: -0.25, AwaySpread: 0.25, Total: 44},
	})
	require.NoError(t, err)

	assert.Equal(t, core.Stars0, pred.StarsRating)
	assert.Zero(t, pred.StakeUnits)
}

func TestKellyStakeNeverExceedsCap(t *testing.T) {
	cfg := DefaultConfig("v1")
	d := NewDetector(cfg)

	// A huge, implausible edge should still clamp at the 3% ceiling.
	game := core.GameContext{
		Game: core.Game{GameID: "g3", League: core.LeagueNFL, HomeTeam: "HOME", AwayTeam: "AWAY", Indoor: true},
	}
	pred, err := d.Detect(Input{
		Game:               game,
		AwayRating:         60.0,
		HomeRating:         100.0,
		HomeFieldAdvantage: 0,
		ConsensusOdds:      core.Odds{GameID: "g3", HomeSpread: -1.0, AwaySpread: 1.0, Total: 44},
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, pred.StakeUnits, cfg.StakeCap)
}

func TestSortPredictionsTieBreakOrder(t *testing.T) {
	kickoffs := map[string]int64{"a": 100, "b": 50, "c": 200}
	preds := []core.Prediction{
		{PredictionID: "a", StarsRating: core.Stars1, EdgePercentage: 8, EdgePoints: 1.0},
		{PredictionID: "b", StarsRating: core.Stars1, EdgePercentage: 8, EdgePoints: 1.0},
		{PredictionID: "c", StarsRating: core.Stars2, EdgePercentage: 5, EdgePoints: 0.5},
	}

	SortPredictions(preds, func(p core.Prediction) int64 { return kickoffs[p.PredictionID] })

	require.Len(t, preds, 3)
	assert.Equal(t, "c", preds[0].PredictionID) // higher stars wins first
	assert.Equal(t, "b", preds[1].PredictionID) // tie on stars/edge/points -> earlier kickoff
	assert.Equal(t, "a", preds[2].PredictionID)
}
