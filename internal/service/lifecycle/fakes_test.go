package lifecycle_test

import (
	"context"
	"fmt"
	"time"

	"github.com/SophieEDesign/fibi-lifecycle/internal/domain"
	"github.com/SophieEDesign/fibi-lifecycle/internal/service/lifecycle"
)

// In-memory collaborators for engine tests, in the spirit of the real
// stores: the send log filters by sent_at, the user store pages.

type memUserStore struct {
	accounts    []domain.UserAccount
	places      map[string]int
	itineraries map[string]int
	listErr     error
}

func (m *memUserStore) ListUsers(_ context.Context, page, pageSize int) ([]domain.UserAccount, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	start := page * pageSize
	if start >= len(m.accounts) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(m.accounts) {
		end = len(m.accounts)
	}
	return m.accounts[start:end], nil
}

func (m *memUserStore) CountChildRows(_ context.Context, table string) (map[string]int, error) {
	switch table {
	case "places":
		return m.places, nil
	case "itineraries":
		return m.itineraries, nil
	}
	return nil, lifecycle.ErrUnknownChildTable
}

type memRuleStore struct {
	rules []domain.AutomationRule
	err   error
}

func (m *memRuleStore) ListActiveScheduled(context.Context) ([]domain.AutomationRule, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.AutomationRule
	for _, r := range m.rules {
		if r.IsActive && r.Trigger != domain.TriggerManual {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRuleStore) Get(_ context.Context, id string) (*domain.AutomationRule, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, r := range m.rules {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, lifecycle.ErrRuleNotFound
}

func (m *memRuleStore) List(context.Context) ([]domain.AutomationRule, error) {
	return m.rules, m.err
}

func (m *memRuleStore) Create(_ context.Context, r *domain.AutomationRule) (string, error) {
	m.rules = append(m.rules, *r)
	return r.ID, nil
}

type memTemplateStore struct {
	templates map[string]domain.EmailTemplate
	err       error
}

func (m *memTemplateStore) GetBySlug(_ context.Context, slug string) (*domain.EmailTemplate, error) {
	if m.err != nil {
		return nil, m.err
	}
	t, ok := m.templates[slug]
	if !ok {
		return nil, lifecycle.ErrTemplateNotFound
	}
	return &t, nil
}

type memSendLog struct {
	entries []domain.SendLogEntry
	err     error
}

func (m *memSendLog) RecentSince(_ context.Context, since time.Time) ([]domain.SendLogEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.SendLogEntry
	for _, e := range m.entries {
		if !e.SentAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memSendLog) Append(_ context.Context, e *domain.SendLogEntry) error {
	m.entries = append(m.entries, *e)
	return nil
}

type memRunStore struct {
	opened   []domain.RunRecord
	closed   []domain.RunRecord
	openErr  error
	closeErr error
}

func (m *memRunStore) Open(_ context.Context, rec domain.RunRecord) (string, error) {
	if m.openErr != nil {
		return "", m.openErr
	}
	rec.ID = fmt.Sprintf("run-%d", len(m.opened)+1)
	m.opened = append(m.opened, rec)
	return rec.ID, nil
}

func (m *memRunStore) Close(_ context.Context, rec domain.RunRecord) error {
	if m.closeErr != nil {
		return m.closeErr
	}
	m.closed = append(m.closed, rec)
	return nil
}

func (m *memRunStore) List(context.Context, int) ([]domain.RunRecord, error) {
	return m.closed, nil
}

// fakeMailer records recipients and fails the addresses listed in failFor.
type fakeMailer struct {
	sent    []string
	failFor map[string]error
}

func (f *fakeMailer) Send(_ context.Context, to, _, _, _ string) error {
	if err, ok := f.failFor[to]; ok {
		return err
	}
	f.sent = append(f.sent, to)
	return nil
}

// Shorthand builders used across the engine tests.

func strptr(s string) *string        { return &s }
func intptr(n int) *int              { return &n }
func boolptr(b bool) *bool           { return &b }
func timeptr(t time.Time) *time.Time { return &t }

func confirmedUser(id, email string, createdAt time.Time) domain.UserAccount {
	return domain.UserAccount{
		ID:             id,
		Email:          strptr(email),
		CreatedAt:      createdAt,
		ConfirmedAt:    timeptr(createdAt),
		MarketingOptIn: true,
	}
}
