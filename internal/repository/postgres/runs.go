package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/SophieEDesign/fibi-lifecycle/internal/domain"
)

// RunRepo implements lifecycle.RunStore against PostgreSQL. Error lists are
// stored as a jsonb column.
type RunRepo struct{ db *sql.DB }

// NewRunRepo creates a Postgres-backed run record store.
func NewRunRepo(db *sql.DB) *RunRepo { return &RunRepo{db: db} }

func (r *RunRepo) Open(ctx context.Context, rec domain.RunRecord) (string, error) {
	id := rec.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_automation_runs
			(id, started_at, sent, skipped, failed, status, errors)
		VALUES ($1, $2, 0, 0, 0, $3, '[]')
	`, id, rec.StartedAt, string(domain.RunRunning))
	if err != nil {
		return "", fmt.Errorf("open run record: %w", err)
	}
	return id, nil
}

func (r *RunRepo) Close(ctx context.Context, rec domain.RunRecord) error {
	errsJSON, err := json.Marshal(rec.Errors)
	if err != nil {
		return fmt.Errorf("encode run errors: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE email_automation_runs
		SET finished_at = $1, sent = $2, skipped = $3, failed = $4, status = $5, errors = $6
		WHERE id = $7
	`, rec.FinishedAt, rec.Sent, rec.Skipped, rec.Failed, string(rec.Status), errsJSON, rec.ID)
	if err != nil {
		return fmt.Errorf("close run record: %w", err)
	}
	return nil
}

func (r *RunRepo) List(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, sent, skipped, failed, status, errors
		FROM email_automation_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []domain.RunRecord
	for rows.Next() {
		var rec domain.RunRecord
		var errsJSON []byte
		if err := rows.Scan(&rec.ID, &rec.StartedAt, &rec.FinishedAt,
			&rec.Sent, &rec.Skipped, &rec.Failed, &rec.Status, &errsJSON); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		if len(errsJSON) > 0 {
			if err := json.Unmarshal(errsJSON, &rec.Errors); err != nil {
				return nil, fmt.Errorf("decode run errors: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
