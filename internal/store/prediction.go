package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/edgeline/edge-engine/internal/core"
)

// PredictionRepository persists one row per model run. Historical
// predictions are retained, never overwritten — Insert fails loudly on a
// (game_id, model_version, generated_at) collision rather than silently
// upserting over a prior run.
type PredictionRepository struct {
	db *sql.DB
}

func NewPredictionRepository(db *sql.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

func (r *PredictionRepository) Insert(ctx context.Context, p core.Prediction) error {
	ratingSnapshot, err := json.Marshal(p.RatingSnapshot)
	if err != nil {
		return fmt.Errorf("marshal rating snapshot: %w", err)
	}
	oddsSnapshot, err := json.Marshal(p.OddsSnapshot)
	if err != nil {
		return fmt.Errorf("marshal odds snapshot: %w", err)
	}

	query := `
		INSERT INTO predictions (
			prediction_id, game_id, model_version, generated_at,
			predicted_spread, predicted_total, market_spread, market_total,
			edge_points, edge_percentage, edge_category, stars_rating,
			recommended_side, stake_units, kelly_fraction, confidence_score,
			reasoning_text, status, rating_snapshot, odds_snapshot, factor_summary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`
	_, err = r.db.ExecContext(ctx, query,
		p.PredictionID, string(p.GameID), p.ModelVersion, p.GeneratedAt,
		p.PredictedSpread, p.PredictedTotal, p.MarketSpread, p.MarketTotal,
		p.EdgePoints, p.EdgePercentage, string(p.EdgeCategory), float64(p.StarsRating),
		string(p.RecommendedSide), p.StakeUnits, p.KellyFraction, p.ConfidenceScore,
		p.ReasoningText, string(p.Status), ratingSnapshot, oddsSnapshot, p.FactorSummary,
	)
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// LatestForGame returns the newest prediction for a game under the given
// model version, used by the edge detector to check P3 idempotency before
// writing a fresh run.
func (r *PredictionRepository) LatestForGame(ctx context.Context, gameID core.GameID, modelVersion string) (*core.Prediction, error) {
	query := `
		SELECT prediction_id, game_id, model_version, generated_at,
			predicted_spread, predicted_total, market_spread, market_total,
			edge_points, edge_percentage, edge_category, stars_rating,
			recommended_side, stake_units, kelly_fraction, confidence_score,
			reasoning_text, status, rating_snapshot, odds_snapshot, factor_summary
		FROM predictions WHERE game_id = $1 AND model_version = $2
		ORDER BY generated_at DESC LIMIT 1
	`

	p, err := scanPrediction(r.db.QueryRowContext(ctx, query, string(gameID), modelVersion))
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("prediction", string(gameID))
	}
	if err != nil {
		return nil, fmt.Errorf("get latest prediction: %w", err)
	}
	return p, nil
}

// PendingSettlement returns every open prediction for games at or before a
// given week, candidates for the results checker.
func (r *PredictionRepository) PendingSettlement(ctx context.Context, league core.League, throughWeek int) ([]core.Prediction, error) {
	query := `
		SELECT p.prediction_id, p.game_id, p.model_version, p.generated_at,
			p.predicted_spread, p.predicted_total, p.market_spread, p.market_total,
			p.edge_points, p.edge_percentage, p.edge_category, p.stars_rating,
			p.recommended_side, p.stake_units, p.kelly_fraction, p.confidence_score,
			p.reasoning_text, p.status, p.rating_snapshot, p.odds_snapshot, p.factor_summary
		FROM predictions p
		JOIN games g ON g.game_id = p.game_id
		WHERE g.league = $1 AND g.week <= $2 AND p.status IN ($3, $4)
		ORDER BY g.kickoff
	`

	rows, err := r.db.QueryContext(ctx, query, string(league), throughWeek, string(core.PredictionPending), string(core.PredictionOpen))
	if err != nil {
		return nil, fmt.Errorf("list pending settlement: %w", err)
	}
	defer rows.Close()

	var predictions []core.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		predictions = append(predictions, *p)
	}
	return predictions, rows.Err()
}

// MarkSettled transitions a prediction to settled status.
func (r *PredictionRepository) MarkSettled(ctx context.Context, predictionID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE predictions SET status = $1 WHERE prediction_id = $2`, string(core.PredictionSettled), predictionID)
	if err != nil {
		return fmt.Errorf("mark prediction settled: %w", err)
	}
	return nil
}

func scanPrediction(row rowScanner) (*core.Prediction, error) {
	var p core.Prediction
	var gameID, edgeCategory, side, status string
	var stars float64
	var ratingSnapshot, oddsSnapshot []byte

	err := row.Scan(
		&p.PredictionID, &gameID, &p.ModelVersion, &p.GeneratedAt,
		&p.PredictedSpread, &p.PredictedTotal, &p.MarketSpread, &p.MarketTotal,
		&p.EdgePoints, &p.EdgePercentage, &edgeCategory, &stars,
		&side, &p.StakeUnits, &p.KellyFraction, &p.ConfidenceScore,
		&p.ReasoningText, &status, &ratingSnapshot, &oddsSnapshot, &p.FactorSummary,
	)
	if err != nil {
		return nil, err
	}

	p.GameID = core.GameID(gameID)
	p.EdgeCategory = core.EdgeCategory(edgeCategory)
	p.StarsRating = core.StarsRating(stars)
	p.RecommendedSide = core.Side(side)
	p.Status = core.PredictionStatus(status)

	if len(ratingSnapshot) > 0 {
		if err := json.Unmarshal(ratingSnapshot, &p.RatingSnapshot); err != nil {
			return nil, fmt.Errorf("unmarshal rating snapshot: %w", err)
		}
	}
	if len(oddsSnapshot) > 0 {
		if err := json.Unmarshal(oddsSnapshot, &p.OddsSnapshot); err != nil {
			return nil, fmt.Errorf("unmarshal odds snapshot: %w", err)
		}
	}

	return &p, nil
}
