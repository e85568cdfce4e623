package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/edgeline/edge-engine/internal/core"
)

// InjuryRepository persists per-player injury status, one row per
// (team, player, capture timestamp).
type InjuryRepository struct {
	db *sql.DB
}

func NewInjuryRepository(db *sql.DB) *InjuryRepository {
	return &InjuryRepository{db: db}
}

func (r *InjuryRepository) Insert(ctx context.Context, i core.InjuryReport) error {
	query := `
		INSERT INTO injury_reports (
			team, player_name, position, status, captured_at,
			point_value, replacement_value, severity, confidence, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (team, player_name, captured_at) DO UPDATE SET
			status = EXCLUDED.status,
			point_value = EXCLUDED.point_value,
			replacement_value = EXCLUDED.replacement_value,
			severity = EXCLUDED.severity,
			confidence = EXCLUDED.confidence
	`
	_, err := r.db.ExecContext(ctx, query,
		string(i.Team), i.PlayerName, i.Position, i.Status, i.CapturedAt,
		i.PointValue, i.ReplacementValue, string(i.Severity), i.Confidence, i.Source,
	)
	if err != nil {
		return fmt.Errorf("insert injury report: %w", err)
	}
	return nil
}

// Current returns the most recent report per player for a team, excluding
// reports older than core.StaleAfter relative to the current time.
func (r *InjuryRepository) Current(ctx context.Context, team core.TeamID) ([]core.InjuryReport, error) {
	query := `
		SELECT DISTINCT ON (player_name)
			team, player_name, position, status, captured_at,
			point_value, replacement_value, severity, confidence, source
		FROM injury_reports WHERE team = $1
		ORDER BY player_name, captured_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, string(team))
	if err != nil {
		return nil, fmt.Errorf("list current injuries: %w", err)
	}
	defer rows.Close()

	now := time.Now().UTC()
	var reports []core.InjuryReport
	for rows.Next() {
		var rep core.InjuryReport
		var teamID, severity string
		if err := rows.Scan(&teamID, &rep.PlayerName, &rep.Position, &rep.Status, &rep.CapturedAt,
			&rep.PointValue, &rep.ReplacementValue, &severity, &rep.Confidence, &rep.Source); err != nil {
			return nil, fmt.Errorf("scan injury report: %w", err)
		}
		rep.Team = core.TeamID(teamID)
		rep.Severity = core.Severity(severity)
		if rep.Stale(now) {
			continue
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}
