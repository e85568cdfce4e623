package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/edgeline/edge-engine/internal/core"
)

// TeamStatsRepository persists per-team season-aggregate stats on the
// (league, season, team_id) natural key, the same upsert-on-conflict shape
// as TeamRepository.
type TeamStatsRepository struct {
	db *sql.DB
}

func NewTeamStatsRepository(db *sql.DB) *TeamStatsRepository {
	return &TeamStatsRepository{db: db}
}

func (r *TeamStatsRepository) Upsert(ctx context.Context, s core.TeamStats) error {
	query := `
		INSERT INTO team_stats (
			league, season, team_id, points_per_game, points_against_per_game,
			yards_per_game, turnover_margin, third_down_pct, source, captured_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (league, season, team_id) DO UPDATE SET
			points_per_game = EXCLUDED.points_per_game,
			points_against_per_game = EXCLUDED.points_against_per_game,
			yards_per_game = EXCLUDED.yards_per_game,
			turnover_margin = EXCLUDED.turnover_margin,
			third_down_pct = EXCLUDED.third_down_pct,
			source = EXCLUDED.source,
			captured_at = EXCLUDED.captured_at
	`
	_, err := r.db.ExecContext(ctx, query,
		string(s.League), s.Season, string(s.Team), s.PointsPerGame, s.PointsAgainstPerGame,
		s.YardsPerGame, s.TurnoverMargin, s.ThirdDownPct, s.Source, s.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert team stats: %w", err)
	}
	return nil
}

func (r *TeamStatsRepository) Latest(ctx context.Context, league core.League, season int, team core.TeamID) (*core.TeamStats, error) {
	query := `
		SELECT league, season, team_id, points_per_game, points_against_per_game,
			yards_per_game, turnover_margin, third_down_pct, source, captured_at
		FROM team_stats WHERE league = $1 AND season = $2 AND team_id = $3
	`

	var s core.TeamStats
	var league_, team_ string
	err := r.db.QueryRowContext(ctx, query, string(league), season, string(team)).Scan(
		&league_, &s.Season, &team_, &s.PointsPerGame, &s.PointsAgainstPerGame,
		&s.YardsPerGame, &s.TurnoverMargin, &s.ThirdDownPct, &s.Source, &s.CapturedAt,
	)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("team_stats", string(team))
	}
	if err != nil {
		return nil, fmt.Errorf("get team stats: %w", err)
	}
	s.League = core.League(league_)
	s.Team = core.TeamID(team_)
	return &s, nil
}
