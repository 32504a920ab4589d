package domain

import "time"

// EmailTemplate is the content sent by an automation. The engine treats the
// body as opaque: no substitution or rendering happens at send time.
type EmailTemplate struct {
	Slug      string    `json:"slug" db:"slug"`
	Subject   string    `json:"subject" db:"subject"`
	HTMLBody  string    `json:"html_body" db:"html_body"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
