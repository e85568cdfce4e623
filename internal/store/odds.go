package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/edgeline/edge-engine/internal/core"
)

// OddsRepository persists one book's line per (game, sportsbook, capture
// timestamp) — every capture is retained, never overwritten, so the
// normalizer's Suspect flag and the CLV tracker both have full history.
type OddsRepository struct {
	db *sql.DB
}

func NewOddsRepository(db *sql.DB) *OddsRepository {
	return &OddsRepository{db: db}
}

func (r *OddsRepository) Insert(ctx context.Context, o core.Odds) error {
	query := `
		INSERT INTO odds (
			game_id, sportsbook, captured_at, home_spread, away_spread,
			total, home_ml, away_ml, suspect
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (game_id, sportsbook, captured_at) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		string(o.GameID), o.Sportsbook, o.CapturedAt, o.HomeSpread, o.AwaySpread,
		o.Total, o.HomeML, o.AwayML, o.Suspect,
	)
	if err != nil {
		return fmt.Errorf("insert odds: %w", err)
	}
	return nil
}

// Latest returns the most recently captured non-suspect line for a game,
// across all sportsbooks, for use as the market line in edge detection.
func (r *OddsRepository) Latest(ctx context.Context, gameID core.GameID) (*core.Odds, error) {
	query := `
		SELECT game_id, sportsbook, captured_at, home_spread, away_spread,
			total, home_ml, away_ml, suspect
		FROM odds WHERE game_id = $1 AND suspect = FALSE
		ORDER BY captured_at DESC LIMIT 1
	`

	var o core.Odds
	var gameID_ string
	err := r.db.QueryRowContext(ctx, query, string(gameID)).Scan(
		&gameID_, &o.Sportsbook, &o.CapturedAt, &o.HomeSpread, &o.AwaySpread,
		&o.Total, &o.HomeML, &o.AwayML, &o.Suspect,
	)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("odds", string(gameID))
	}
	if err != nil {
		return nil, fmt.Errorf("get latest odds: %w", err)
	}
	o.GameID = core.GameID(gameID_)
	return &o, nil
}

// Recent returns every capture for a game within the last window, across
// all sportsbooks including suspect ones, so edge.Latest can take the
// latest-per-book reduction itself and the caller can see what got
// filtered out.
func (r *OddsRepository) Recent(ctx context.Context, gameID core.GameID, window time.Duration) ([]core.Odds, error) {
	query := `
		SELECT game_id, sportsbook, captured_at, home_spread, away_spread,
			total, home_ml, away_ml, suspect
		FROM odds WHERE game_id = $1 AND captured_at >= $2
		ORDER BY captured_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, string(gameID), time.Now().UTC().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("list recent odds: %w", err)
	}
	defer rows.Close()

	var out []core.Odds
	for rows.Next() {
		var o core.Odds
		var gameID_ string
		if err := rows.Scan(&gameID_, &o.Sportsbook, &o.CapturedAt, &o.HomeSpread, &o.AwaySpread,
			&o.Total, &o.HomeML, &o.AwayML, &o.Suspect); err != nil {
			return nil, fmt.Errorf("scan odds: %w", err)
		}
		o.GameID = core.GameID(gameID_)
		out = append(out, o)
	}
	return out, rows.Err()
}

// Opening returns the earliest captured non-suspect line for a game, the
// anchor for closing-line-value comparisons.
func (r *OddsRepository) Opening(ctx context.Context, gameID core.GameID) (*core.Odds, error) {
	query := `
		SELECT game_id, sportsbook, captured_at, home_spread, away_spread,
			total, home_ml, away_ml, suspect
		FROM odds WHERE game_id = $1 AND suspect = FALSE
		ORDER BY captured_at ASC LIMIT 1
	`

	var o core.Odds
	var gameID_ string
	err := r.db.QueryRowContext(ctx, query, string(gameID)).Scan(
		&gameID_, &o.Sportsbook, &o.CapturedAt, &o.HomeSpread, &o.AwaySpread,
		&o.Total, &o.HomeML, &o.AwayML, &o.Suspect,
	)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("odds", string(gameID))
	}
	if err != nil {
		return nil, fmt.Errorf("get opening odds: %w", err)
	}
	o.GameID = core.GameID(gameID_)
	return &o, nil
}
