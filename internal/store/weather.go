package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/edgeline/edge-engine/internal/core"
)

// WeatherRepository persists one forecast snapshot per (game, capture
// timestamp), retaining every capture since forecasts tighten as kickoff
// approaches.
type WeatherRepository struct {
	db *sql.DB
}

func NewWeatherRepository(db *sql.DB) *WeatherRepository {
	return &WeatherRepository{db: db}
}

func (r *WeatherRepository) Insert(ctx context.Context, w core.WeatherReport) error {
	query := `
		INSERT INTO weather_reports (
			game_id, captured_at, temp_f, wind_mph,
			precipitation_kind, precipitation_probability, indoor
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (game_id, captured_at) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		string(w.GameID), w.CapturedAt, w.TempF, w.WindMPH,
		string(w.PrecipitationKind), w.PrecipitationProbability, w.Indoor,
	)
	if err != nil {
		return fmt.Errorf("insert weather report: %w", err)
	}
	return nil
}

func (r *WeatherRepository) Latest(ctx context.Context, gameID core.GameID) (*core.WeatherReport, error) {
	query := `
		SELECT game_id, captured_at, temp_f, wind_mph,
			precipitation_kind, precipitation_probability, indoor
		FROM weather_reports WHERE game_id = $1
		ORDER BY captured_at DESC LIMIT 1
	`

	var w core.WeatherReport
	var gameID_, kind string
	err := r.db.QueryRowContext(ctx, query, string(gameID)).Scan(
		&gameID_, &w.CapturedAt, &w.TempF, &w.WindMPH, &kind, &w.PrecipitationProbability, &w.Indoor,
	)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("weather_report", string(gameID))
	}
	if err != nil {
		return nil, fmt.Errorf("get latest weather: %w", err)
	}
	w.GameID = core.GameID(gameID_)
	w.PrecipitationKind = core.PrecipitationKind(kind)
	return &w, nil
}
