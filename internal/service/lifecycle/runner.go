package lifecycle

import (
	"context"
	"fmt"

	"github.com/SophieEDesign/fibi-lifecycle/internal/domain"
	"github.com/SophieEDesign/fibi-lifecycle/internal/pkg/distlock"
	"github.com/SophieEDesign/fibi-lifecycle/internal/pkg/logger"
)

// Runner composes the executor with the advisory run lock and the audit
// recorder. Every entry point is single-flight: two runs invoked
// concurrently (one cron-triggered, one manual) contend on the lock and the
// loser returns a no-op result instead of double-sending inside the
// throttle window.
type Runner struct {
	exec    *Executor
	audit   *Auditor
	newLock func() distlock.DistLock
}

// NewRunner creates a runner. newLock is called once per run so each run
// holds its own lock instance.
func NewRunner(exec *Executor, audit *Auditor, newLock func() distlock.DistLock) *Runner {
	return &Runner{exec: exec, audit: audit, newLock: newLock}
}

// RunScheduled executes all active non-manual automations.
func (r *Runner) RunScheduled(ctx context.Context) domain.RunResult {
	return r.guarded(ctx, r.exec.RunAll)
}

// RunAutomation executes one automation by id, regardless of trigger type.
func (r *Runner) RunAutomation(ctx context.Context, ruleID string) domain.RunResult {
	return r.guarded(ctx, func(ctx context.Context) domain.RunResult {
		return r.exec.RunOne(ctx, ruleID)
	})
}

// RunBlast sends one template to an ad-hoc filtered audience.
func (r *Runner) RunBlast(ctx context.Context, templateSlug string, conds domain.RuleConditions) domain.RunResult {
	return r.guarded(ctx, func(ctx context.Context) domain.RunResult {
		return r.exec.RunBlast(ctx, templateSlug, conds)
	})
}

// guarded takes the run lock, opens the audit record, executes, and closes
// the record in a defer so it happens even if the execution panics.
func (r *Runner) guarded(ctx context.Context, fn func(context.Context) domain.RunResult) (res domain.RunResult) {
	lock := r.newLock()
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		// The lock is advisory; an unreachable lock backend must not
		// block sending. Accept the duplicate-send risk and say so.
		logger.Warn("run lock unavailable, proceeding unguarded", "error", err.Error())
	} else if !acquired {
		return domain.RunResult{Errors: []string{"another run is already in progress"}}
	} else {
		defer func() {
			if relErr := lock.Release(ctx); relErr != nil {
				logger.Warn("run lock release failed", "error", relErr.Error())
			}
		}()
	}

	handle := r.audit.Open(ctx)
	defer func() {
		if p := recover(); p != nil {
			res.Aborted = true
			res.Errors = append(res.Errors, fmt.Sprintf("run panicked: %v", p))
		}
		// Close must land even when the run context was cancelled by a
		// caller timeout, or the dashboard shows a ghost running record.
		r.audit.Close(context.WithoutCancel(ctx), handle, res)
	}()

	res = fn(ctx)
	return res
}
