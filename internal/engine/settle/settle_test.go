package settle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edgeline/edge-engine/internal/core"
)

func TestGradeATSHomeCoverWins(t *testing.T) {
	pred := core.Prediction{RecommendedSide: core.SideHome, MarketSpread: -3.0}

	result, profit := gradeATS(pred, 24, 20) // home margin +4, covers -3

	assert.Equal(t, core.ResultWin, result)
	assert.InDelta(t, 0.909090909, profit, 1e-6)
}

func TestGradeATSPush(t *testing.T) {
	pred := core.Prediction{RecommendedSide: core.SideHome, MarketSpread: -4.0}

	result, profit := gradeATS(pred, 24, 20) // home margin +4 exactly

	assert.Equal(t, core.ResultPush, result)
	assert.Zero(t, profit)
}

func TestGradeATSAwayCoverWins(t *testing.T) {
	pred := core.Prediction{RecommendedSide: core.SideAway, MarketSpread: -3.0}

	result, _ := gradeATS(pred, 23, 21) // home margin +2, short of -3, away covers

	assert.Equal(t, core.ResultWin, result)
}

func TestGradeATSNoSideIsVoid(t *testing.T) {
	pred := core.Prediction{RecommendedSide: ""}

	result, profit := gradeATS(pred, 24, 20)

	assert.Equal(t, core.ResultVoid, result)
	assert.Zero(t, profit)
}

func TestCLVMatchesWorkedExample(t *testing.T) {
	// E5: home -3.0 at bet time, closes -3.5 -> +0.5 for the home bettor.
	got := clvFromLines(-3.0, -3.5, core.SideHome)
	assert.InDelta(t, 0.5, got, 1e-9)
}

func TestCLVFlipsForAwaySide(t *testing.T) {
	got := clvFromLines(-3.0, -3.5, core.SideAway)
	assert.InDelta(t, -0.5, got, 1e-9)
}

func TestPayoutUnitsNegativePrice(t *testing.T) {
	assert.InDelta(t, 0.909090909, payoutUnits(-110), 1e-6)
}

func TestPayoutUnitsPositivePrice(t *testing.T) {
	assert.InDelta(t, 1.5, payoutUnits(150), 1e-9)
}
