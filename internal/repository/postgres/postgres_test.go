package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/SophieEDesign/fibi-lifecycle/internal/domain"
	"github.com/SophieEDesign/fibi-lifecycle/internal/service/lifecycle"
)

func setupMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestUserRepoListUsers(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewUserRepo(db)

	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "email", "created_at", "last_sign_in_at",
		"email_confirmed_at", "verified_at",
		"marketing_opt_in", "founding_followup_sent",
	}).
		AddRow("u1", "u1@example.com", created, nil, created, nil, true, false).
		AddRow("u2", nil, created, nil, nil, nil, false, false)

	mock.ExpectQuery(`SELECT id, email, created_at, last_sign_in_at`).
		WithArgs(100, 200).
		WillReturnRows(rows)

	// page 2 of size 100 translates to OFFSET 200
	users, err := repo.ListUsers(context.Background(), 2, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 {
		t.Fatalf("got %d users", len(users))
	}
	if users[0].Email == nil || *users[0].Email != "u1@example.com" {
		t.Fatalf("user 1 email %v", users[0].Email)
	}
	if users[1].Email != nil {
		t.Fatal("null email must scan to nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUserRepoCountChildRows(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id, COUNT(*) FROM places GROUP BY user_id`)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "count"}).
			AddRow("u1", 3).
			AddRow("u2", 1))

	counts, err := repo.CountChildRows(context.Background(), "places")
	if err != nil {
		t.Fatal(err)
	}
	if counts["u1"] != 3 || counts["u2"] != 1 {
		t.Fatalf("counts %v", counts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUserRepoCountChildRowsRejectsUnknownTable(t *testing.T) {
	db, _ := setupMock(t)
	repo := NewUserRepo(db)

	_, err := repo.CountChildRows(context.Background(), "users; DROP TABLE users")
	if !errors.Is(err, lifecycle.ErrUnknownChildTable) {
		t.Fatalf("got %v", err)
	}
}

func TestRuleRepoGetNotFound(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewRuleRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM email_automations WHERE id`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	if err != lifecycle.ErrRuleNotFound {
		t.Fatalf("got %v", err)
	}
}

func TestRuleRepoGetDecodesConditions(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewRuleRepo(db)

	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM email_automations WHERE id`).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "template_slug", "trigger_type", "conditions",
			"delay_hours", "is_active", "created_at", "updated_at",
		}).AddRow("r1", "Welcome", "welcome", "user_confirmed",
			[]byte(`{"places_count_gt": 0, "confirmed": true}`),
			24, true, created, created))

	rule, err := repo.Get(context.Background(), "r1")
	if err != nil {
		t.Fatal(err)
	}
	if rule.Trigger != domain.TriggerUserConfirmed || rule.DelayHours != 24 {
		t.Fatalf("rule %+v", rule)
	}
	if rule.Conditions.PlacesCountGt == nil || *rule.Conditions.PlacesCountGt != 0 {
		t.Fatalf("conditions %+v", rule.Conditions)
	}
	if rule.Conditions.Confirmed == nil || !*rule.Conditions.Confirmed {
		t.Fatalf("conditions %+v", rule.Conditions)
	}
	if rule.Conditions.CreatedDaysGt != nil {
		t.Fatal("absent clause must stay nil")
	}
}

func TestRuleRepoListActiveScheduledExcludesManual(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewRuleRepo(db)

	mock.ExpectQuery(`WHERE is_active AND trigger_type <>`).
		WithArgs("manual").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "template_slug", "trigger_type", "conditions",
			"delay_hours", "is_active", "created_at", "updated_at",
		}))

	rules, err := repo.ListActiveScheduled(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 0 {
		t.Fatalf("got %v", rules)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRuleRepoCreate(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewRuleRepo(db)

	mock.ExpectExec(`INSERT INTO email_automations`).
		WithArgs(sqlmock.AnyArg(), "Welcome", "welcome", "user_confirmed",
			[]byte(`{"confirmed":true}`), 0, true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	confirmed := true
	id, err := repo.Create(context.Background(), &domain.AutomationRule{
		Name:         "Welcome",
		TemplateSlug: "welcome",
		Trigger:      domain.TriggerUserConfirmed,
		Conditions:   domain.RuleConditions{Confirmed: &confirmed},
		IsActive:     true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("create must assign an id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestTemplateRepoNotFound(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewTemplateRepo(db)

	mock.ExpectQuery(`SELECT slug, subject, html_body`).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetBySlug(context.Background(), "nope")
	if err != lifecycle.ErrTemplateNotFound {
		t.Fatalf("got %v", err)
	}
}

func TestSendLogRoundTrip(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewSendLogRepo(db)

	sentAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO email_send_log`).
		WithArgs(sqlmock.AnyArg(), "u1", "welcome", nil, sentAt, "sent").
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &domain.SendLogEntry{
		UserID: "u1", TemplateSlug: "welcome",
		SentAt: sentAt, Status: domain.SendSent,
	}
	if err := repo.Append(context.Background(), entry); err != nil {
		t.Fatal(err)
	}
	if entry.ID == "" {
		t.Fatal("append must assign an id")
	}

	since := sentAt.Add(-48 * time.Hour)
	mock.ExpectQuery(`WHERE sent_at >=`).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "template_slug", "automation_id", "sent_at", "status",
		}).AddRow(entry.ID, "u1", "welcome", nil, sentAt, "sent"))

	entries, err := repo.RecentSince(context.Background(), since)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].AutomationID != nil || entries[0].Status != domain.SendSent {
		t.Fatalf("entries %+v", entries)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRunRepoOpenClose(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewRunRepo(db)

	started := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO email_automation_runs`).
		WithArgs(sqlmock.AnyArg(), started, "running").
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.Open(context.Background(), domain.RunRecord{StartedAt: started})
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("open must assign an id")
	}

	finished := started.Add(time.Minute)
	mock.ExpectExec(`UPDATE email_automation_runs`).
		WithArgs(finished, 5, 2, 1, "failure", []byte(`["send to user u9 failed"]`), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Close(context.Background(), domain.RunRecord{
		ID: id, StartedAt: started, FinishedAt: &finished,
		Sent: 5, Skipped: 2, Failed: 1,
		Status: domain.RunFailure,
		Errors: []string{"send to user u9 failed"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
