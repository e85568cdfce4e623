package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/edgeline/edge-engine/internal/core"
)

// GameResultRepository persists the team-perspective rows rating.UpdateWeek
// consumes: one row per (game, team), since a single final score produces
// two independent perspectives (team vs opponent, opponent vs team).
type GameResultRepository struct {
	db *sql.DB
}

func NewGameResultRepository(db *sql.DB) *GameResultRepository {
	return &GameResultRepository{db: db}
}

// Insert writes a result row, a no-op if this (game, team) pair is already
// recorded — settling the same week twice must not double-count a result
// UpdateWeek has already folded into a rating.
func (r *GameResultRepository) Insert(ctx context.Context, res core.GameResult) error {
	query := `
		INSERT INTO game_results (
			game_id, team, opponent, team_score, opponent_score, is_home,
			league, game_date, injury_differential
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (game_id, team) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query,
		string(res.GameID), string(res.Team), string(res.Opponent), res.TeamScore, res.OpponentScore,
		res.IsHome, string(res.League), res.Date, res.InjuryDifferential,
	)
	if err != nil {
		return fmt.Errorf("insert game result: %w", err)
	}
	return nil
}

// ListByGameIDs loads every team-perspective row for the given games,
// ordered ascending by (date, game_id) — the precondition
// rating.UpdateWeek requires of its input slice.
func (r *GameResultRepository) ListByGameIDs(ctx context.Context, gameIDs []core.GameID) ([]core.GameResult, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(gameIDs))
	for i, id := range gameIDs {
		ids[i] = string(id)
	}

	query := `
		SELECT game_id, team, opponent, team_score, opponent_score, is_home,
			league, game_date, injury_differential
		FROM game_results WHERE game_id = ANY($1)
		ORDER BY game_date ASC, game_id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list game results: %w", err)
	}
	defer rows.Close()

	var results []core.GameResult
	for rows.Next() {
		var res core.GameResult
		var gameID, team, opponent, league string
		if err := rows.Scan(&gameID, &team, &opponent, &res.TeamScore, &res.OpponentScore,
			&res.IsHome, &league, &res.Date, &res.InjuryDifferential); err != nil {
			return nil, fmt.Errorf("scan game result: %w", err)
		}
		res.GameID = core.GameID(gameID)
		res.Team = core.TeamID(team)
		res.Opponent = core.TeamID(opponent)
		res.League = core.League(league)
		results = append(results, res)
	}
	return results, rows.Err()
}
