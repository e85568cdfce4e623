package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edgeline/edge-engine/internal/core"
)

// RatingRepository persists power ratings on (league, season, team, week).
// Weekly updates are written as one atomic unit via CommitWeek, since a
// torn write would leave some teams rated against a newer week than
// others.
type RatingRepository struct {
	db *DB
}

func NewRatingRepository(db *DB) *RatingRepository {
	return &RatingRepository{db: db}
}

func (r *RatingRepository) Get(ctx context.Context, league core.League, season int, team core.TeamID, week int) (*core.TeamRating, error) {
	query := `
		SELECT league, season, team_id, as_of_week, rating, games_played, history
		FROM team_ratings WHERE league = $1 AND season = $2 AND team_id = $3 AND as_of_week = $4
	`

	var tr core.TeamRating
	var league_, team_ string
	err := r.db.QueryRowContext(ctx, query, string(league), season, string(team), week).Scan(
		&league_, &tr.Season, &team_, &tr.AsOfWeek, &tr.Rating, &tr.GamesPlayed, &tr.History,
	)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("team_rating", fmt.Sprintf("%s/%d/%s/%d", league, season, team, week))
	}
	if err != nil {
		return nil, fmt.Errorf("get team rating: %w", err)
	}
	tr.League = core.League(league_)
	tr.Team = core.TeamID(team_)
	return &tr, nil
}

// Latest returns a team's most recent rating within a season, the prior a
// fresh week's update starts from.
func (r *RatingRepository) Latest(ctx context.Context, league core.League, season int, team core.TeamID) (*core.TeamRating, error) {
	query := `
		SELECT league, season, team_id, as_of_week, rating, games_played, history
		FROM team_ratings WHERE league = $1 AND season = $2 AND team_id = $3
		ORDER BY as_of_week DESC LIMIT 1
	`

	var tr core.TeamRating
	var league_, team_ string
	err := r.db.QueryRowContext(ctx, query, string(league), season, string(team)).Scan(
		&league_, &tr.Season, &team_, &tr.AsOfWeek, &tr.Rating, &tr.GamesPlayed, &tr.History,
	)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("team_rating", fmt.Sprintf("%s/%d/%s", league, season, team))
	}
	if err != nil {
		return nil, fmt.Errorf("get latest team rating: %w", err)
	}
	tr.League = core.League(league_)
	tr.Team = core.TeamID(team_)
	return &tr, nil
}

// CommitWeek writes every team's rating for one (league, season, week) as a
// single pgx.CopyFrom batch inside one transaction, then folds duplicates
// on the natural key via an UPSERT from a staging table, since COPY itself
// cannot express ON CONFLICT.
func (r *RatingRepository) CommitWeek(ctx context.Context, league core.League, season, week int, ratings []core.TeamRating) error {
	if len(ratings) == 0 {
		return nil
	}

	return r.db.WithPgxTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			CREATE TEMP TABLE team_ratings_staging (
				league TEXT, season INT, team_id TEXT, as_of_week INT,
				rating DOUBLE PRECISION, games_played INT, history DOUBLE PRECISION[]
			) ON COMMIT DROP
		`); err != nil {
			return fmt.Errorf("create staging table: %w", err)
		}

		rows := make([][]any, 0, len(ratings))
		for _, tr := range ratings {
			rows = append(rows, []any{
				string(league), season, string(tr.Team), week, tr.Rating, tr.GamesPlayed, tr.History,
			})
		}

		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"team_ratings_staging"},
			[]string{"league", "season", "team_id", "as_of_week", "rating", "games_played", "history"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("copy team ratings: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO team_ratings (league, season, team_id, as_of_week, rating, games_played, history)
			SELECT league, season, team_id, as_of_week, rating, games_played, history
			FROM team_ratings_staging
			ON CONFLICT (league, season, team_id, as_of_week) DO UPDATE SET
				rating = EXCLUDED.rating,
				games_played = EXCLUDED.games_played,
				history = EXCLUDED.history
		`); err != nil {
			return fmt.Errorf("upsert team ratings from staging: %w", err)
		}

		return nil
	})
}
