package domain

import "time"

// RunStatus is the lifecycle state of a run record.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailure RunStatus = "failure"
)

// RunRecord is the persisted audit row for one engine execution. It is
// opened with status running before any work happens and closed with final
// counters even when the run aborts, so the dashboard never shows a
// permanently running ghost record short of true process death.
type RunRecord struct {
	ID         string     `json:"id" db:"id"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at" db:"finished_at"`
	Sent       int        `json:"sent" db:"sent"`
	Skipped    int        `json:"skipped" db:"skipped"`
	Failed     int        `json:"failed" db:"failed"`
	Status     RunStatus  `json:"status" db:"status"`
	Errors     []string   `json:"errors" db:"errors"`
}

// RunResult is the aggregate outcome of one engine execution, returned by
// every run entry point in the same shape.
//
// Aborted marks an infrastructure failure that stopped the whole run; it
// feeds the persisted status but is not part of the caller-facing JSON,
// which represents hard failure the same way as partial failure (Failed > 0
// plus populated Errors).
type RunResult struct {
	Sent         int      `json:"sent"`
	Skipped      int      `json:"skipped"`
	Failed       int      `json:"failed"`
	LimitReached bool     `json:"limit_reached"`
	Errors       []string `json:"errors"`
	Aborted      bool     `json:"-"`
}
