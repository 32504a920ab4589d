package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/SophieEDesign/fibi-lifecycle/internal/domain"
	"github.com/SophieEDesign/fibi-lifecycle/internal/service/lifecycle"
)

// RuleRepo implements lifecycle.RuleStore against PostgreSQL. Conditions
// are stored as a jsonb column.
type RuleRepo struct{ db *sql.DB }

// NewRuleRepo creates a Postgres-backed rule store.
func NewRuleRepo(db *sql.DB) *RuleRepo { return &RuleRepo{db: db} }

const ruleColumns = `id, name, template_slug, trigger_type, conditions, delay_hours, is_active, created_at, updated_at`

func scanRule(scan func(...any) error) (domain.AutomationRule, error) {
	var r domain.AutomationRule
	var condJSON []byte
	err := scan(&r.ID, &r.Name, &r.TemplateSlug, &r.Trigger, &condJSON,
		&r.DelayHours, &r.IsActive, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return r, err
	}
	if len(condJSON) > 0 {
		if err := json.Unmarshal(condJSON, &r.Conditions); err != nil {
			return r, fmt.Errorf("decode conditions for rule %s: %w", r.ID, err)
		}
	}
	return r, nil
}

func (r *RuleRepo) Get(ctx context.Context, id string) (*domain.AutomationRule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM email_automations WHERE id = $1`, id)
	rule, err := scanRule(row.Scan)
	if err == sql.ErrNoRows {
		return nil, lifecycle.ErrRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get automation: %w", err)
	}
	return &rule, nil
}

func (r *RuleRepo) ListActiveScheduled(ctx context.Context) ([]domain.AutomationRule, error) {
	return r.list(ctx,
		`SELECT `+ruleColumns+` FROM email_automations
		 WHERE is_active AND trigger_type <> $1
		 ORDER BY created_at, id`, string(domain.TriggerManual))
}

func (r *RuleRepo) List(ctx context.Context) ([]domain.AutomationRule, error) {
	return r.list(ctx,
		`SELECT `+ruleColumns+` FROM email_automations ORDER BY created_at, id`)
}

func (r *RuleRepo) list(ctx context.Context, query string, args ...any) ([]domain.AutomationRule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list automations: %w", err)
	}
	defer rows.Close()

	var out []domain.AutomationRule
	for rows.Next() {
		rule, err := scanRule(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan automation: %w", err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *RuleRepo) Create(ctx context.Context, rule *domain.AutomationRule) (string, error) {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	condJSON, err := json.Marshal(rule.Conditions)
	if err != nil {
		return "", fmt.Errorf("encode conditions: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO email_automations
			(id, name, template_slug, trigger_type, conditions, delay_hours, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`, rule.ID, rule.Name, rule.TemplateSlug, string(rule.Trigger), condJSON,
		rule.DelayHours, rule.IsActive)
	if err != nil {
		return "", fmt.Errorf("create automation: %w", err)
	}
	return rule.ID, nil
}
