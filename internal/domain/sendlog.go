package domain

import "time"

// SendStatus is the outcome of a single send attempt.
type SendStatus string

const (
	SendSent   SendStatus = "sent"
	SendFailed SendStatus = "failed"
)

// SendLogEntry is one row of the append-only send log, written for every
// attempt (success or failure). The log is the durable source of truth for
// throttling, dedup, and reporting; rows are never mutated.
type SendLogEntry struct {
	ID           string     `json:"id" db:"id"`
	UserID       string     `json:"user_id" db:"user_id"`
	TemplateSlug string     `json:"template_slug" db:"template_slug"`
	AutomationID *string    `json:"automation_id" db:"automation_id"`
	SentAt       time.Time  `json:"sent_at" db:"sent_at"`
	Status       SendStatus `json:"status" db:"status"`
}
