package lifecycle

import (
	"context"
	"time"

	"github.com/SophieEDesign/fibi-lifecycle/internal/domain"
)

// UserStore reads the user population and its child tables.
// Implementations must be safe for concurrent use.
type UserStore interface {
	// ListUsers returns one page of user accounts. page is zero-based.
	// A page shorter than pageSize marks the end of the population.
	ListUsers(ctx context.Context, page, pageSize int) ([]domain.UserAccount, error)

	// CountChildRows returns rows-per-owner for the given child table
	// ("places" or "itineraries"). Returns ErrUnknownChildTable otherwise.
	CountChildRows(ctx context.Context, table string) (map[string]int, error)
}

// RuleStore reads and writes admin-managed automation rules.
type RuleStore interface {
	// ListActiveScheduled returns active rules whose trigger is not manual,
	// in listing order. Manual rules are only ever run by explicit request.
	ListActiveScheduled(ctx context.Context) ([]domain.AutomationRule, error)

	// Get returns a single rule. Returns ErrRuleNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.AutomationRule, error)

	// List returns all rules in listing order.
	List(ctx context.Context) ([]domain.AutomationRule, error)

	// Create inserts a new rule and returns its ID.
	Create(ctx context.Context, r *domain.AutomationRule) (string, error)
}

// TemplateStore resolves email templates by slug.
type TemplateStore interface {
	// GetBySlug returns a template. Returns ErrTemplateNotFound if absent.
	GetBySlug(ctx context.Context, slug string) (*domain.EmailTemplate, error)
}

// SendLogStore is the append-only per-attempt send log. It is the durable
// source of truth for throttling and dedup; entries are never mutated.
type SendLogStore interface {
	// RecentSince returns every entry with sent_at >= since, any status.
	RecentSince(ctx context.Context, since time.Time) ([]domain.SendLogEntry, error)

	// Append writes one attempt row.
	Append(ctx context.Context, e *domain.SendLogEntry) error
}

// RunStore persists run audit records.
type RunStore interface {
	// Open inserts a record with status running and returns its ID.
	Open(ctx context.Context, rec domain.RunRecord) (string, error)

	// Close updates the record identified by rec.ID with final counters,
	// status, errors, and finished_at.
	Close(ctx context.Context, rec domain.RunRecord) error

	// List returns the most recent records, newest first.
	List(ctx context.Context, limit int) ([]domain.RunRecord, error)
}

// MailSender is the external mail collaborator. A returned error means the
// attempt failed; the engine performs no retries within a run.
type MailSender interface {
	Send(ctx context.Context, to, subject, html, from string) error
}
