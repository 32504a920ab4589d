package lifecycle

import (
	"context"
	"time"

	"github.com/SophieEDesign/fibi-lifecycle/internal/domain"
	"github.com/SophieEDesign/fibi-lifecycle/internal/pkg/logger"
)

// RunHandle identifies an open run record. A nil handle is valid and means
// the open failed; Close no-ops on it.
type RunHandle struct {
	id        string
	startedAt time.Time
}

// Auditor records run outcomes. Auditability is best-effort and never a
// blocker to sending: if the open insert fails the run proceeds without a
// record, and the failure is only logged.
type Auditor struct {
	runs RunStore
	now  func() time.Time
}

// NewAuditor creates an auditor over the given run store.
func NewAuditor(runs RunStore) *Auditor {
	return &Auditor{runs: runs, now: time.Now}
}

// Open inserts a run record with status running and returns its handle, or
// nil if the insert failed.
func (a *Auditor) Open(ctx context.Context) *RunHandle {
	startedAt := a.now()
	id, err := a.runs.Open(ctx, domain.RunRecord{
		StartedAt: startedAt,
		Status:    domain.RunRunning,
	})
	if err != nil {
		logger.Warn("run record open failed, proceeding without audit", "error", err.Error())
		return nil
	}
	return &RunHandle{id: id, startedAt: startedAt}
}

// Close finalizes the record behind the handle: finished_at, counters,
// resolved status, and the executor's error list (or a synthesized message
// when the run aborted without producing one). Must be called even when the
// run aborts; callers defer it.
func (a *Auditor) Close(ctx context.Context, h *RunHandle, res domain.RunResult) {
	if h == nil {
		return
	}

	status := domain.RunSuccess
	if res.Failed > 0 || res.Aborted {
		status = domain.RunFailure
	}
	errs := res.Errors
	if res.Aborted && len(errs) == 0 {
		errs = []string{"run aborted before completing"}
	}

	finished := a.now()
	err := a.runs.Close(ctx, domain.RunRecord{
		ID:         h.id,
		StartedAt:  h.startedAt,
		FinishedAt: &finished,
		Sent:       res.Sent,
		Skipped:    res.Skipped,
		Failed:     res.Failed,
		Status:     status,
		Errors:     errs,
	})
	if err != nil {
		logger.Warn("run record close failed", "run", h.id, "error", err.Error())
	}
}
