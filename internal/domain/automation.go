package domain

import "time"

// TriggerType is the coarse event category an automation fires on.
type TriggerType string

const (
	TriggerUserConfirmed    TriggerType = "user_confirmed"
	TriggerUserInactive     TriggerType = "user_inactive"
	TriggerPlaceAdded       TriggerType = "place_added"
	TriggerItineraryCreated TriggerType = "itinerary_created"
	TriggerManual           TriggerType = "manual"
)

// Valid reports whether t is one of the known trigger types. Rule creation
// must reject invalid triggers so the engine's permissive unknown-trigger
// fallback is never exercised by real data.
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerUserConfirmed, TriggerUserInactive, TriggerPlaceAdded,
		TriggerItineraryCreated, TriggerManual:
		return true
	}
	return false
}

// RuleConditions is the optional fine-grained predicate attached to an
// automation. Each field is independently optional; nil means the clause is
// absent and passes. Present clauses are ANDed. The comparison operator is
// part of the field, not inferred from naming.
type RuleConditions struct {
	Confirmed            *bool `json:"confirmed,omitempty"`
	PlacesCountGt        *int  `json:"places_count_gt,omitempty"`
	PlacesCountLt        *int  `json:"places_count_lt,omitempty"`
	ItinerariesCountGt   *int  `json:"itineraries_count_gt,omitempty"`
	LastLoginDaysGt      *int  `json:"last_login_days_gt,omitempty"`
	CreatedDaysGt        *int  `json:"created_days_gt,omitempty"`
	CreatedDaysLt        *int  `json:"created_days_lt,omitempty"`
	FoundingFollowupSent *bool `json:"founding_followup_sent,omitempty"`
}

// AutomationRule is an admin-managed lifecycle automation: which template to
// send, to whom (trigger + conditions), and how old an account must be.
type AutomationRule struct {
	ID           string         `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	TemplateSlug string         `json:"template_slug" db:"template_slug"`
	Trigger      TriggerType    `json:"trigger_type" db:"trigger_type"`
	Conditions   RuleConditions `json:"conditions" db:"conditions"`
	DelayHours   int            `json:"delay_hours" db:"delay_hours"`
	IsActive     bool           `json:"is_active" db:"is_active"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}
