package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SophieEDesign/fibi-lifecycle/internal/domain"
	"github.com/SophieEDesign/fibi-lifecycle/internal/service/lifecycle"
)

// TemplateRepo implements lifecycle.TemplateStore against PostgreSQL.
type TemplateRepo struct{ db *sql.DB }

// NewTemplateRepo creates a Postgres-backed template store.
func NewTemplateRepo(db *sql.DB) *TemplateRepo { return &TemplateRepo{db: db} }

func (r *TemplateRepo) GetBySlug(ctx context.Context, slug string) (*domain.EmailTemplate, error) {
	t := &domain.EmailTemplate{}
	err := r.db.QueryRowContext(ctx, `
		SELECT slug, subject, html_body, is_active, created_at, updated_at
		FROM email_templates
		WHERE slug = $1
	`, slug).Scan(&t.Slug, &t.Subject, &t.HTMLBody, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, lifecycle.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}
