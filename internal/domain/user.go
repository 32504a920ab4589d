package domain

import "time"

// UserAccount is one row of the user population as read from the store,
// before fact derivation. Confirmation may come from two upstream sources:
// ConfirmedAt is the provider-level timestamp, VerifiedAt the app-level
// fallback.
type UserAccount struct {
	ID                   string     `json:"id" db:"id"`
	Email                *string    `json:"email" db:"email"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	LastSignInAt         *time.Time `json:"last_sign_in_at" db:"last_sign_in_at"`
	ConfirmedAt          *time.Time `json:"email_confirmed_at" db:"email_confirmed_at"`
	VerifiedAt           *time.Time `json:"verified_at" db:"verified_at"`
	MarketingOptIn       bool       `json:"marketing_opt_in" db:"marketing_opt_in"`
	FoundingFollowupSent bool       `json:"founding_followup_sent" db:"founding_followup_sent"`
}

// UserFacts is the flat per-user snapshot the rule engine evaluates against.
// Facts are rebuilt fresh on every run and never cached across runs.
type UserFacts struct {
	ID                   string     `json:"id"`
	Email                *string    `json:"email"`
	CreatedAt            time.Time  `json:"created_at"`
	LastSignInAt         *time.Time `json:"last_sign_in_at"`
	EmailConfirmedAt     *time.Time `json:"email_confirmed_at"`
	PlacesCount          int        `json:"places_count"`
	ItinerariesCount     int        `json:"itineraries_count"`
	FoundingFollowupSent bool       `json:"founding_followup_sent"`
	MarketingOptIn       bool       `json:"marketing_opt_in"`
}

// Confirmed reports whether the user has a confirmation timestamp from
// either upstream source.
func (u UserFacts) Confirmed() bool { return u.EmailConfirmedAt != nil }

// HasEmail reports whether the user can receive mail at all.
func (u UserFacts) HasEmail() bool { return u.Email != nil && *u.Email != "" }
