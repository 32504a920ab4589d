package lifecycle_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/SophieEDesign/fibi-lifecycle/internal/domain"
	"github.com/SophieEDesign/fibi-lifecycle/internal/pkg/distlock"
	"github.com/SophieEDesign/fibi-lifecycle/internal/service/lifecycle"
)

type fakeLock struct {
	acquired   bool
	acquireErr error
	released   int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) { return f.acquired, f.acquireErr }
func (f *fakeLock) Release(context.Context) error         { f.released++; return nil }

func newTestRunner(users *memUserStore, rules *memRuleStore, runs *memRunStore, lock *fakeLock) (*lifecycle.Runner, *fakeMailer) {
	mail := &fakeMailer{}
	exec := lifecycle.NewExecutor(users, rules, welcomeTemplates(), &memSendLog{}, mail, testFrom)
	exec.SetNow(func() time.Time { return now })
	runner := lifecycle.NewRunner(exec, lifecycle.NewAuditor(runs), func() distlock.DistLock { return lock })
	return runner, mail
}

func TestRunnerRecordsRun(t *testing.T) {
	created := now.Add(-10 * 24 * time.Hour)
	users := &memUserStore{accounts: []domain.UserAccount{
		confirmedUser("u1", "u1@example.com", created),
	}}
	rules := &memRuleStore{rules: []domain.AutomationRule{activeRule("r1", "welcome", domain.TriggerUserConfirmed)}}
	runs := &memRunStore{}
	lock := &fakeLock{acquired: true}
	runner, _ := newTestRunner(users, rules, runs, lock)

	res := runner.RunScheduled(context.Background())

	if res.Sent != 1 {
		t.Fatalf("sent %d", res.Sent)
	}
	if len(runs.opened) != 1 || runs.opened[0].Status != domain.RunRunning {
		t.Fatalf("opened records %+v", runs.opened)
	}
	if len(runs.closed) != 1 {
		t.Fatalf("closed records %+v", runs.closed)
	}
	rec := runs.closed[0]
	if rec.Status != domain.RunSuccess || rec.Sent != 1 || rec.FinishedAt == nil {
		t.Fatalf("closed record %+v", rec)
	}
	if lock.released != 1 {
		t.Fatalf("lock released %d times", lock.released)
	}
}

// The losing side of a lock race returns a no-op result and writes no run
// record.
func TestRunnerLockContention(t *testing.T) {
	runs := &memRunStore{}
	runner, mail := newTestRunner(&memUserStore{}, &memRuleStore{}, runs, &fakeLock{acquired: false})

	res := runner.RunScheduled(context.Background())

	if res.Sent != 0 || len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "already in progress") {
		t.Fatalf("got %+v", res)
	}
	if len(mail.sent) != 0 {
		t.Fatal("the losing run must not send")
	}
	if len(runs.opened) != 0 {
		t.Fatal("the losing run must not open a record")
	}
}

// An unreachable lock backend degrades to an unguarded run rather than
// blocking sends.
func TestRunnerLockErrorProceeds(t *testing.T) {
	created := now.Add(-10 * 24 * time.Hour)
	users := &memUserStore{accounts: []domain.UserAccount{
		confirmedUser("u1", "u1@example.com", created),
	}}
	rules := &memRuleStore{rules: []domain.AutomationRule{activeRule("r1", "welcome", domain.TriggerUserConfirmed)}}
	lock := &fakeLock{acquireErr: errors.New("redis down")}
	runner, _ := newTestRunner(users, rules, &memRunStore{}, lock)

	res := runner.RunScheduled(context.Background())
	if res.Sent != 1 {
		t.Fatalf("unguarded run sent %d", res.Sent)
	}
	if lock.released != 0 {
		t.Fatal("a lock never acquired must not be released")
	}
}

// An aborted run still closes its record, with status failure and the
// error carried over.
func TestRunnerClosesRecordOnAbort(t *testing.T) {
	users := &memUserStore{listErr: errors.New("connection refused")}
	rules := &memRuleStore{rules: []domain.AutomationRule{activeRule("r1", "welcome", domain.TriggerUserConfirmed)}}
	runs := &memRunStore{}
	runner, _ := newTestRunner(users, rules, runs, &fakeLock{acquired: true})

	runner.RunScheduled(context.Background())

	if len(runs.closed) != 1 {
		t.Fatal("aborted run must still close its record")
	}
	rec := runs.closed[0]
	if rec.Status != domain.RunFailure || len(rec.Errors) != 1 {
		t.Fatalf("closed record %+v", rec)
	}
}

// A failed record open does not stop the run; the close is a no-op on the
// nil handle.
func TestRunnerProceedsWithoutAudit(t *testing.T) {
	created := now.Add(-10 * 24 * time.Hour)
	users := &memUserStore{accounts: []domain.UserAccount{
		confirmedUser("u1", "u1@example.com", created),
	}}
	rules := &memRuleStore{rules: []domain.AutomationRule{activeRule("r1", "welcome", domain.TriggerUserConfirmed)}}
	runs := &memRunStore{openErr: errors.New("table missing")}
	runner, _ := newTestRunner(users, rules, runs, &fakeLock{acquired: true})

	res := runner.RunScheduled(context.Background())
	if res.Sent != 1 {
		t.Fatalf("sent %d, audit failure must not block sending", res.Sent)
	}
	if len(runs.closed) != 0 {
		t.Fatal("nothing to close without an open record")
	}
}

func TestRunnerTargetedAndBlastPaths(t *testing.T) {
	created := now.Add(-10 * 24 * time.Hour)
	users := &memUserStore{accounts: []domain.UserAccount{
		confirmedUser("u1", "u1@example.com", created),
	}}
	rules := &memRuleStore{rules: []domain.AutomationRule{activeRule("manual-rule", "welcome", domain.TriggerManual)}}
	runs := &memRunStore{}
	runner, _ := newTestRunner(users, rules, runs, &fakeLock{acquired: true})

	if res := runner.RunAutomation(context.Background(), "manual-rule"); res.Sent != 1 {
		t.Fatalf("targeted run sent %d", res.Sent)
	}
	// The same user is now inside the throttle window via the in-run log.
	if res := runner.RunBlast(context.Background(), "digest", domain.RuleConditions{}); res.Sent != 0 || res.Skipped != 1 {
		t.Fatalf("blast after targeted run got %+v", res)
	}
	if len(runs.closed) != 2 {
		t.Fatalf("expected 2 closed records, got %d", len(runs.closed))
	}
}
