package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/edgeline/edge-engine/internal/core"
)

// TeamRepository persists team metadata on the (league, team_id) natural
// key. Grounded on the teacher's repository/team.go query shape
// (QueryRowContext + explicit column list).
type TeamRepository struct {
	db *sql.DB
}

func NewTeamRepository(db *sql.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Upsert(ctx context.Context, t core.Team) error {
	query := `
		INSERT INTO teams (league, team_id, name, abbreviation, conference, division)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (league, team_id) DO UPDATE SET
			name = EXCLUDED.name,
			abbreviation = EXCLUDED.abbreviation,
			conference = EXCLUDED.conference,
			division = EXCLUDED.division
	`
	_, err := r.db.ExecContext(ctx, query, string(t.League), string(t.TeamID), t.Name, t.Abbreviation, t.Conference, t.Division)
	if err != nil {
		return fmt.Errorf("upsert team: %w", err)
	}
	return nil
}

func (r *TeamRepository) Get(ctx context.Context, league core.League, teamID core.TeamID) (*core.Team, error) {
	query := `
		SELECT league, team_id, name, abbreviation, conference, division
		FROM teams WHERE league = $1 AND team_id = $2
	`

	var t core.Team
	var league_, teamID_ string
	err := r.db.QueryRowContext(ctx, query, string(league), string(teamID)).Scan(
		&league_, &teamID_, &t.Name, &t.Abbreviation, &t.Conference, &t.Division,
	)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("team", string(teamID))
	}
	if err != nil {
		return nil, fmt.Errorf("get team: %w", err)
	}
	t.League = core.League(league_)
	t.TeamID = core.TeamID(teamID_)
	return &t, nil
}

func (r *TeamRepository) ListByLeague(ctx context.Context, league core.League) ([]core.Team, error) {
	query := `SELECT league, team_id, name, abbreviation, conference, division FROM teams WHERE league = $1 ORDER BY team_id`

	rows, err := r.db.QueryContext(ctx, query, string(league))
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []core.Team
	for rows.Next() {
		var t core.Team
		var league_, teamID_ string
		if err := rows.Scan(&league_, &teamID_, &t.Name, &t.Abbreviation, &t.Conference, &t.Division); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		t.League = core.League(league_)
		t.TeamID = core.TeamID(teamID_)
		teams = append(teams, t)
	}
	return teams, rows.Err()
}
