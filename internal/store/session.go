package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/edgeline/edge-engine/internal/core"
)

// SessionRepository persists CollectionSession headers and their per-source
// step metrics.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Start(ctx context.Context, s core.CollectionSession) error {
	query := `
		INSERT INTO collection_sessions (session_id, league, started_at, status)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, s.SessionID, string(s.League), s.StartedAt, string(s.Status))
	if err != nil {
		return fmt.Errorf("start collection session: %w", err)
	}
	return nil
}

// Finish sets the terminal status and finish time, then records every step
// metric accumulated during the run.
func (r *SessionRepository) Finish(ctx context.Context, s core.CollectionSession) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE collection_sessions SET finished_at = $1, status = $2 WHERE session_id = $3
	`, s.FinishedAt, string(s.Status), s.SessionID)
	if err != nil {
		return fmt.Errorf("finish collection session: %w", err)
	}

	for _, step := range s.Steps {
		if err := r.recordStep(ctx, s.SessionID, step); err != nil {
			return err
		}
	}
	return nil
}

func (r *SessionRepository) recordStep(ctx context.Context, sessionID string, step core.SourceStepMetric) error {
	query := `
		INSERT INTO source_step_metrics (session_id, source, started_at, ended_at, ok, records, errors, critical)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id, source) DO UPDATE SET
			ended_at = EXCLUDED.ended_at,
			ok = EXCLUDED.ok,
			records = EXCLUDED.records,
			errors = EXCLUDED.errors,
			critical = EXCLUDED.critical
	`
	_, err := r.db.ExecContext(ctx, query,
		sessionID, step.Source, step.StartedAt, step.EndedAt, step.OK, step.Records,
		step.Errors, step.Critical,
	)
	if err != nil {
		return fmt.Errorf("record source step metric: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*core.CollectionSession, error) {
	query := `SELECT session_id, league, started_at, finished_at, status FROM collection_sessions WHERE session_id = $1`

	var s core.CollectionSession
	var league, status string
	var finishedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&s.SessionID, &league, &s.StartedAt, &finishedAt, &status)
	if err == sql.ErrNoRows {
		return nil, core.NewNotFoundError("collection_session", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("get collection session: %w", err)
	}
	s.League = core.League(league)
	s.Status = core.SessionStatus(status)
	if finishedAt.Valid {
		s.FinishedAt = finishedAt.Time
	}

	steps, err := r.stepsFor(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.Steps = steps
	return &s, nil
}

func (r *SessionRepository) stepsFor(ctx context.Context, sessionID string) ([]core.SourceStepMetric, error) {
	query := `SELECT source, started_at, ended_at, ok, records, errors, critical FROM source_step_metrics WHERE session_id = $1`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list source step metrics: %w", err)
	}
	defer rows.Close()

	var steps []core.SourceStepMetric
	for rows.Next() {
		var step core.SourceStepMetric
		var endedAt sql.NullTime
		if err := rows.Scan(&step.Source, &step.StartedAt, &endedAt, &step.OK, &step.Records, &step.Errors, &step.Critical); err != nil {
			return nil, fmt.Errorf("scan source step metric: %w", err)
		}
		if endedAt.Valid {
			step.EndedAt = endedAt.Time
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}
