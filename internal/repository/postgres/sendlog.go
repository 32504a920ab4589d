package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SophieEDesign/fibi-lifecycle/internal/domain"
)

// SendLogRepo implements lifecycle.SendLogStore against PostgreSQL. The
// table is append-only: no update or delete statement exists here.
type SendLogRepo struct{ db *sql.DB }

// NewSendLogRepo creates a Postgres-backed send log.
func NewSendLogRepo(db *sql.DB) *SendLogRepo { return &SendLogRepo{db: db} }

func (r *SendLogRepo) Append(ctx context.Context, e *domain.SendLogEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_send_log (id, user_id, template_slug, automation_id, sent_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ID, e.UserID, e.TemplateSlug, e.AutomationID, e.SentAt, string(e.Status))
	if err != nil {
		return fmt.Errorf("append send log: %w", err)
	}
	return nil
}

func (r *SendLogRepo) RecentSince(ctx context.Context, since time.Time) ([]domain.SendLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, template_slug, automation_id, sent_at, status
		FROM email_send_log
		WHERE sent_at >= $1
		ORDER BY sent_at
	`, since)
	if err != nil {
		return nil, fmt.Errorf("recent sends: %w", err)
	}
	defer rows.Close()

	var out []domain.SendLogEntry
	for rows.Next() {
		var e domain.SendLogEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.TemplateSlug, &e.AutomationID, &e.SentAt, &e.Status); err != nil {
			return nil, fmt.Errorf("scan send log: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
