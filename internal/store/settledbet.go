package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/edgeline/edge-engine/internal/core"
)

// SettledBetRepository persists settlement outcomes. Insert is a strict
// ON CONFLICT DO NOTHING on prediction_id: once a bet is settled, a
// re-run of the results checker must be a no-op, never a silent
// overwrite (P7 monotonicity).
type SettledBetRepository struct {
	db *sql.DB
}

func NewSettledBetRepository(db *sql.DB) *SettledBetRepository {
	return &SettledBetRepository{db: db}
}

// Insert returns (inserted=false, nil) when the prediction was already
// settled, so callers can distinguish "no-op" from "error".
func (r *SettledBetRepository) Insert(ctx context.Context, b core.SettledBet) (bool, error) {
	query := `
		INSERT INTO settled_bets (prediction_id, game_id, result, profit, clv, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (prediction_id) DO NOTHING
	`
	result, err := r.db.ExecContext(ctx, query, b.PredictionID, string(b.GameID), string(b.Result), b.Profit, b.CLV, b.SettledAt)
	if err != nil {
		return false, fmt.Errorf("insert settled bet: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check settled bet insert: %w", err)
	}
	return n > 0, nil
}

func (r *SettledBetRepository) Get(ctx context.Context, predictionID string) (*core.SettledBet, error) {
	query := `SELECT prediction_id, game_id, result, profit, clv, settled_at FROM settled_bets WHERE prediction_id = $1`

	var b core.SettledBet
	var gameID, result string
	err := r.db.QueryRowContext(ctx, query, predictionID).Scan(&b.PredictionID, &gameID, &result, &b.Profit, &b.CLV, &b.SettledAt)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("settled_bet", predictionID)
	}
	if err != nil {
		return nil, fmt.Errorf("get settled bet: %w", err)
	}
	b.GameID = core.GameID(gameID)
	b.Result = core.BetResult(result)
	return &b, nil
}

// RunningRecord summarizes win/loss/push/void counts, net profit and
// average CLV across a set of settled bets, used for the CLV-tracking
// report.
type RunningRecord struct {
	Wins, Losses, Pushes, Voids int
	NetProfit                   float64
	AverageCLV                  float64
}

func (r *SettledBetRepository) Record(ctx context.Context, league core.League) (RunningRecord, error) {
	query := `
		SELECT b.result, b.profit, b.clv
		FROM settled_bets b
		JOIN games g ON g.game_id = b.game_id
		WHERE g.league = $1
	`

	rows, err := r.db.QueryContext(ctx, query, string(league))
	if err != nil {
		return RunningRecord{}, fmt.Errorf("get running record: %w", err)
	}
	defer rows.Close()

	var rec RunningRecord
	var clvSum float64
	var n int

	for rows.Next() {
		var result string
		var profit, clv float64
		if err := rows.Scan(&result, &profit, &clv); err != nil {
			return RunningRecord{}, fmt.Errorf("scan running record row: %w", err)
		}
		switch core.BetResult(result) {
		case core.ResultWin:
			rec.Wins++
		case core.ResultLoss:
			rec.Losses++
		case core.ResultPush:
			rec.Pushes++
		case core.ResultVoid:
			rec.Voids++
		}
		rec.NetProfit += profit
		clvSum += clv
		n++
	}
	if n > 0 {
		rec.AverageCLV = clvSum / float64(n)
	}
	return rec, rows.Err()
}
