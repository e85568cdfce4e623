// Package edge implements the edge detector (C11): it turns a rating
// differential, a situational/emotional/weather adjustment, and a market
// consensus line into a Prediction, complete with stars rating and stake
// sizing. Every function here is pure given its Input — loading odds,
// ratings, and GameContext from the Store is the orchestrator's job.
package edge

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/edgeline/edge-engine/internal/core"
	"github.com/edgeline/edge-engine/internal/engine/factors"
	"github.com/edgeline/edge-engine/internal/engine/keynumbers"
	"github.com/edgeline/edge-engine/internal/engine/rating"
)

// Config tunes the parts of the pipeline that aren't fixed constants in
// the core formulas.
type Config struct {
	KeyNumbers *keynumbers.Registry

	// StakeFraction is the fractional-Kelly multiplier (25% of full Kelly).
	StakeFraction float64
	// StakeCap is the hard ceiling on stake as a fraction of bankroll (3%).
	StakeCap float64
	// MinEdgePercentage is the floor below which no bet is recommended (5.5%).
	MinEdgePercentage float64
	// BaselineImpliedProbability is the -110 vig-implied win probability (52.38%).
	BaselineImpliedProbability float64
	// DecimalPayoff is the b term in the Kelly formula for a -110 price.
	DecimalPayoff float64
	// PointToPercentBase converts raw point-edge to a percentage
	// contribution before key-number crossing is layered on.
	PointToPercentBase float64

	ModelVersion string
}

// DefaultConfig returns the constants named directly, seeded with a
// DefaultRegistry key-number table.
func DefaultConfig(modelVersion string) Config {
	return Config{
		KeyNumbers:                 keynumbers.DefaultRegistry(),
		StakeFraction:              0.25,
		StakeCap:                   0.03,
		MinEdgePercentage:          5.5,
		BaselineImpliedProbability: 0.5238,
		DecimalPayoff:              100.0 / 110.0,
		PointToPercentBase:         0.5,
		ModelVersion:               modelVersion,
	}
}

// Input bundles every snapshot the detector needs for one game. The
// caller (orchestrator) is responsible for assembling it from the Store.
type Input struct {
	Game core.GameContext

	AwayRating         float64
	HomeRating         float64
	HomeFieldAdvantage float64

	// ConsensusOdds is the median line across configured books (step 1).
	ConsensusOdds core.Odds

	RatingSnapshot map[core.TeamID]float64
	Bankroll       float64
}

// Detector runs the edge-detection pipeline against a Config.
type Detector struct {
	cfg Config
}

func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Detect implements the eight-step pipeline: projected spread, raw edge,
// key-number augmentation, stars mapping, fractional-Kelly stake, and a
// fully-snapshotted Prediction.
func (d *Detector) Detect(in Input) (*core.Prediction, error) {
	game := in.Game.Game
	if game.GameID == "" {
		return nil, fmt.Errorf("edge: input game has no game id")
	}

	homeAdj := factors.Calculate(in.Game, game.HomeTeam)
	awayAdj := factors.Calculate(in.Game, game.AwayTeam)
	netFactorSpread := homeAdj.SpreadAdjustment - awayAdj.SpreadAdjustment
	totalAdj := homeAdj.TotalAdjustment

	projectedSpread := rating.PredictedSpread(in.AwayRating, in.HomeRating, in.HomeFieldAdvantage) - netFactorSpread
	projectedTotal := in.ConsensusOdds.Total + totalAdj

	marketSpread := in.ConsensusOdds.HomeSpread
	rawEdge := projectedSpread - marketSpread
	magnitude := math.Abs(rawEdge)

	side := core.SideHome
	if rawEdge > 0 {
		side = core.SideAway
	}

	league := game.League
	crossed, keyEdge := d.cfg.KeyNumbers.EdgeValue(projectedSpread, marketSpread, league)

	edgePercentage := magnitude*d.cfg.PointToPercentBase + keyEdge*100

	stars := starsForEdgePercentage(edgePercentage, d.cfg.MinEdgePercentage)
	category := categoryForEdgePercentage(edgePercentage)

	var stakeFraction, kellyFraction float64
	if stars > core.Stars0 {
		kellyFraction = d.kellyFraction(edgePercentage)
		stakeFraction = math.Min(kellyFraction*d.cfg.StakeFraction, d.cfg.StakeCap)
		if stakeFraction < 0 {
			stakeFraction = 0
		}
	} else {
		side = core.Side("")
	}

	factorSummary := homeAdj.Summary
	if len(crossed) > 0 {
		factorSummary = fmt.Sprintf("%s; key numbers crossed=%v", factorSummary, crossed)
	}
	reasoning := fmt.Sprintf("%s side, raw_edge=%.2f pts, edge_pct=%.2f%%, stars=%.1f",
		side, rawEdge, edgePercentage, float64(stars))

	pred := &core.Prediction{
		PredictionID:     uuid.NewString(),
		GameID:           game.GameID,
		ModelVersion:     d.cfg.ModelVersion,
		PredictedSpread:  projectedSpread,
		PredictedTotal:   projectedTotal,
		MarketSpread:     marketSpread,
		MarketTotal:      in.ConsensusOdds.Total,
		EdgePoints:       rawEdge,
		EdgePercentage:   edgePercentage,
		EdgeCategory:     category,
		StarsRating:      stars,
		RecommendedSide:  side,
		StakeUnits:       stakeFraction,
		KellyFraction:    kellyFraction,
		ConfidenceScore:  confidenceFromStars(stars),
		ReasoningText:    reasoning,
		Status:           core.PredictionPending,
		RatingSnapshot:   in.RatingSnapshot,
		OddsSnapshot:     in.ConsensusOdds,
		FactorSummary:    factorSummary,
	}

	return pred, nil
}

// kellyFraction derives full Kelly from edge_percentage relative to the
// -110 baseline implied probability.
func (d *Detector) kellyFraction(edgePercentage float64) float64 {
	p := d.cfg.BaselineImpliedProbability + edgePercentage/100
	if p >= 1 {
		p = 0.999
	}
	if p <= 0 {
		return 0
	}
	q := 1 - p
	b := d.cfg.DecimalPayoff
	return p - q/b
}

func starsForEdgePercentage(pct, floor float64) core.StarsRating {
	switch {
	case pct < floor:
		return core.Stars0
	case pct >= 15:
		return core.Stars3
	case pct >= 13:
		return core.Stars2_5
	case pct >= 11:
		return core.Stars2
	case pct >= 9:
		return core.Stars1_5
	case pct >= 7:
		return core.Stars1
	case pct >= 5.5:
		return core.Stars0_5
	default:
		return core.Stars0
	}
}

func categoryForEdgePercentage(pct float64) core.EdgeCategory {
	switch {
	case pct >= 15:
		return core.EdgeVeryStrong
	case pct >= 11:
		return core.EdgeStrong
	case pct >= 7:
		return core.EdgeMedium
	default:
		return core.EdgeNone
	}
}

func confidenceFromStars(stars core.StarsRating) float64 {
	return float64(stars) / float64(core.Stars3)
}

// SortPredictions orders predictions by the tie-break rule: stars desc,
// edge_percentage desc, |edge_points| desc, kickoff asc. kickoffOf
// resolves a prediction's game kickoff since Prediction itself doesn't
// carry one.
func SortPredictions(preds []core.Prediction, kickoffOf func(core.Prediction) (t int64)) {
	sort.SliceStable(preds, func(i, j int) bool {
		a, b := preds[i], preds[j]
		if a.StarsRating != b.StarsRating {
			return a.StarsRating > b.StarsRating
		}
		if a.EdgePercentage != b.EdgePercentage {
			return a.EdgePercentage > b.EdgePercentage
		}
		if math.Abs(a.EdgePoints) != math.Abs(b.EdgePoints) {
			return math.Abs(a.EdgePoints) > math.Abs(b.EdgePoints)
		}
		return kickoffOf(a) < kickoffOf(b)
	})
}
