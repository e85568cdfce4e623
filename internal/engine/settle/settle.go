// Package settle implements the results checker (C12): it matches final
// games to their open predictions, grades the bet against the captured
// line, computes closing-line value, and writes settlement rows that are
// never rewritten once they exist.
package settle

import (
	"context"
	"fmt"
	"math"

	"github.com/edgeline/edge-engine/internal/core"
	"github.com/edgeline/edge-engine/internal/store"
)

// Vig is the standard -110 price assumed when a prediction has no
// per-bet captured price recorded.
const Vig = -110

// Report summarizes one settlement run for reporting and exit-code
// decisions at the cmd/ layer.
type Report struct {
	League        core.League
	Week          int
	Matched       int
	Settled       int
	AlreadySettled int
	Pending       int
	Unmatched     []core.GameID
	Record        store.RunningRecord
	NoPredictions bool
	GamesNotFinal bool
}

// Checker runs the settlement pipeline against the Store.
type Checker struct {
	games       *store.GameRepository
	predictions *store.PredictionRepository
	odds        *store.OddsRepository
	settledBets *store.SettledBetRepository
}

func NewChecker(games *store.GameRepository, predictions *store.PredictionRepository, odds *store.OddsRepository, settledBets *store.SettledBetRepository) *Checker {
	return &Checker{games: games, predictions: predictions, odds: odds, settledBets: settledBets}
}

// Settle implements the six-step pipeline for one league, covering every
// pending prediction for games at or before week.
func (c *Checker) Settle(ctx context.Context, league core.League, week int) (*Report, error) {
	report := &Report{League: league, Week: week}

	pending, err := c.predictions.PendingSettlement(ctx, league, week)
	if err != nil {
		return nil, fmt.Errorf("settle: load pending predictions: %w", err)
	}
	if len(pending) == 0 {
		report.NoPredictions = true
		return report, nil
	}

	finals, err := c.games.ListFinalSince(ctx, league, week)
	if err != nil {
		return nil, fmt.Errorf("settle: load final games: %w", err)
	}
	finalByGame := make(map[core.GameID]core.Game, len(finals))
	for _, g := range finals {
		finalByGame[g.GameID] = g
	}

	for _, pred := range pending {
		game, ok := finalByGame[pred.GameID]
		if !ok {
			// Pending predictions reach back to earlier weeks, whose
			// final games are not in finalByGame.
			g, err := c.games.Get(ctx, pred.GameID)
			switch {
			case err != nil:
				report.Pending++
				report.Unmatched = append(report.Unmatched, pred.GameID)
				continue
			case g.Status != core.GameFinal:
				report.Pending++
				report.GamesNotFinal = true
				continue
			}
			game = *g
		}
		report.Matched++

		bet, err := c.settleOne(ctx, pred, game)
		if err != nil {
			return nil, fmt.Errorf("settle: grade game %s: %w", pred.GameID, err)
		}

		inserted, err := c.settledBets.Insert(ctx, *bet)
		if err != nil {
			return nil, fmt.Errorf("settle: write settled bet for prediction %s: %w", pred.PredictionID, err)
		}
		if !inserted {
			report.AlreadySettled++
			continue
		}
		report.Settled++
		if err := c.predictions.MarkSettled(ctx, pred.PredictionID); err != nil {
			return nil, fmt.Errorf("settle: mark prediction %s settled: %w", pred.PredictionID, err)
		}
	}

	record, err := c.settledBets.Record(ctx, league)
	if err != nil {
		return nil, fmt.Errorf("settle: aggregate running record: %w", err)
	}
	report.Record = record

	return report, nil
}

// settleOne grades a single matched prediction against its final game
// and computes CLV against the closing line.
func (c *Checker) settleOne(ctx context.Context, pred core.Prediction, game core.Game) (*core.SettledBet, error) {
	if game.HomeScore == nil || game.AwayScore == nil {
		return nil, fmt.Errorf("final game %s missing scores", game.GameID)
	}

	result, profit := gradeATS(pred, *game.HomeScore, *game.AwayScore)

	clv, err := c.clvFromLines(ctx, pred, game)
	if err != nil {
		return nil, err
	}

	return &core.SettledBet{
		PredictionID: pred.PredictionID,
		GameID:       pred.GameID,
		Result:       result,
		Profit:       profit,
		CLV:          clv,
	}, nil
}

// gradeATS compares the final margin to the predicted side's market
// line and returns win/loss/push plus the profit in stake units, using
// standard -110 vig math.
func gradeATS(pred core.Prediction, homeScore, awayScore int) (core.BetResult, float64) {
	if pred.RecommendedSide == "" {
		return core.ResultVoid, 0
	}

	homeMargin := float64(homeScore - awayScore)
	// MarketSpread is home-spread-sign-convention: negative favors home.
	// The home side covers when the actual home margin exceeds the
	// magnitude the market demanded of it.
	coverMargin := homeMargin + pred.MarketSpread

	switch {
	case math.Abs(coverMargin) < 1e-9:
		return core.ResultPush, 0
	case pred.RecommendedSide == core.SideHome && coverMargin > 0:
		return core.ResultWin, payoutUnits(Vig)
	case pred.RecommendedSide == core.SideAway && coverMargin < 0:
		return core.ResultWin, payoutUnits(Vig)
	default:
		return core.ResultLoss, -1.0
	}
}

// payoutUnits converts an American price to the profit, in stake units,
// of a winning bet of size one unit.
func payoutUnits(americanPrice int) float64 {
	if americanPrice < 0 {
		return 100.0 / float64(-americanPrice)
	}
	return float64(americanPrice) / 100.0
}

// clvFromLines looks up the closing (most recent) line for the game
// and compares it to the line recorded at bet time, sign-corrected so
// that a positive value always favors the bettor's recorded side.
func (c *Checker) clvFromLines(ctx context.Context, pred core.Prediction, game core.Game) (float64, error) {
	closing, err := c.odds.Latest(ctx, game.GameID)
	if err != nil {
		if core.IsNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("load closing line: %w", err)
	}

	return clvFromLines(pred.OddsSnapshot.HomeSpread, closing.HomeSpread, pred.RecommendedSide), nil
}

// clvFromLines is the pure CLV computation. Both lines are in
// home-spread convention (negative favors home). A home bettor benefits
// when the closing line drifts further toward home (more negative, a
// worse price for anyone backing home after them); an away bettor
// benefits from the opposite drift.
func clvFromLines(betLine, closeLine float64, side core.Side) float64 {
	delta := closeLine - betLine
	if side == core.SideHome {
		delta = -delta
	}
	return delta
}
