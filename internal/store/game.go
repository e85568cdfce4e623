package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/edgeline/edge-engine/internal/core"
)

// GameRepository persists scheduling records on their natural key
// (league, season, away, home, kickoff).
type GameRepository struct {
	db *sql.DB
}

func NewGameRepository(db *sql.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) Upsert(ctx context.Context, g core.Game) error {
	query := `
		INSERT INTO games (
			game_id, league, season, week, away_team, home_team, kickoff,
			venue, indoor, status, away_score, home_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (league, season, away_team, home_team, kickoff) DO UPDATE SET
			week = EXCLUDED.week,
			venue = EXCLUDED.venue,
			indoor = EXCLUDED.indoor,
			status = EXCLUDED.status,
			away_score = EXCLUDED.away_score,
			home_score = EXCLUDED.home_score
	`
	_, err := r.db.ExecContext(ctx, query,
		string(g.GameID), string(g.League), g.Season, g.Week,
		string(g.AwayTeam), string(g.HomeTeam), g.Kickoff,
		g.Venue, g.Indoor, string(g.Status), g.AwayScore, g.HomeScore,
	)
	if err != nil {
		return fmt.Errorf("upsert game: %w", err)
	}
	return nil
}

func (r *GameRepository) Get(ctx context.Context, gameID core.GameID) (*core.Game, error) {
	query := `
		SELECT game_id, league, season, week, away_team, home_team, kickoff,
			venue, indoor, status, away_score, home_score
		FROM games WHERE game_id = $1
	`

	g, err := scanGame(r.db.QueryRowContext(ctx, query, string(gameID)))
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("game", string(gameID))
	}
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	return g, nil
}

// ListByWeek returns every game scheduled for a league/season/week,
// ordered by kickoff.
func (r *GameRepository) ListByWeek(ctx context.Context, league core.League, season, week int) ([]core.Game, error) {
	query := `
		SELECT game_id, league, season, week, away_team, home_team, kickoff,
			venue, indoor, status, away_score, home_score
		FROM games WHERE league = $1 AND season = $2 AND week = $3
		ORDER BY kickoff
	`

	rows, err := r.db.QueryContext(ctx, query, string(league), season, week)
	if err != nil {
		return nil, fmt.Errorf("list games by week: %w", err)
	}
	defer rows.Close()

	var games []core.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

// ListFinalSince returns games with status=final at or after since,
// used by the results checker to find settleable games.
func (r *GameRepository) ListFinalSince(ctx context.Context, league core.League, sinceWeek int) ([]core.Game, error) {
	query := `
		SELECT game_id, league, season, week, away_team, home_team, kickoff,
			venue, indoor, status, away_score, home_score
		FROM games WHERE league = $1 AND week >= $2 AND status = $3
		ORDER BY kickoff
	`

	rows, err := r.db.QueryContext(ctx, query, string(league), sinceWeek, string(core.GameFinal))
	if err != nil {
		return nil, fmt.Errorf("list final games: %w", err)
	}
	defer rows.Close()

	var games []core.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

// LastPlayed returns a team's most recent game strictly before the given
// kickoff, the anchor for rest-day computation. Returns NotFoundError for
// a team's first game of a season (opening week has no rest differential).
func (r *GameRepository) LastPlayed(ctx context.Context, league core.League, season int, team core.TeamID, before time.Time) (*core.Game, error) {
	query := `
		SELECT game_id, league, season, week, away_team, home_team, kickoff,
			venue, indoor, status, away_score, home_score
		FROM games
		WHERE league = $1 AND season = $2 AND kickoff < $3 AND (away_team = $4 OR home_team = $4)
		ORDER BY kickoff DESC LIMIT 1
	`

	g, err := scanGame(r.db.QueryRowContext(ctx, query, string(league), season, before, string(team)))
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("game", fmt.Sprintf("%s/%d prior to %s", team, season, before.Format(time.RFC3339)))
	}
	if err != nil {
		return nil, fmt.Errorf("last played for %s: %w", team, err)
	}
	return g, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*core.Game, error) {
	var g core.Game
	var league, gameID, awayTeam, homeTeam, status string
	err := row.Scan(
		&gameID, &league, &g.Season, &g.Week, &awayTeam, &homeTeam, &g.Kickoff,
		&g.Venue, &g.Indoor, &status, &g.AwayScore, &g.HomeScore,
	)
	if err != nil {
		return nil, err
	}
	g.GameID = core.GameID(gameID)
	g.League = core.League(league)
	g.AwayTeam = core.TeamID(awayTeam)
	g.HomeTeam = core.TeamID(homeTeam)
	g.Status = core.GameStatus(status)
	return &g, nil
}
