package lifecycle

import (
	"time"

	"github.com/SophieEDesign/fibi-lifecycle/internal/domain"
)

// daysSince returns whole elapsed days, floor((now-t)/24h). A user created
// 23h59m ago has age 0, not 1.
func daysSince(now, t time.Time) int {
	return int(now.Sub(t) / (24 * time.Hour))
}

// MatchesConditions evaluates the rule's fine-grained predicate against one
// user's facts. Absent clauses pass; present clauses are ANDed. Pure.
func MatchesConditions(u domain.UserFacts, c domain.RuleConditions, now time.Time) bool {
	if c.Confirmed != nil && u.Confirmed() != *c.Confirmed {
		return false
	}
	if c.PlacesCountGt != nil && !(u.PlacesCount > *c.PlacesCountGt) {
		return false
	}
	if c.PlacesCountLt != nil && !(u.PlacesCount < *c.PlacesCountLt) {
		return false
	}
	if c.ItinerariesCountGt != nil && !(u.ItinerariesCount > *c.ItinerariesCountGt) {
		return false
	}
	if c.LastLoginDaysGt != nil {
		// A user who has never signed in cannot be "inactive longer than
		// N days" -- there is no baseline, so the clause fails.
		if u.LastSignInAt == nil {
			return false
		}
		if !(daysSince(now, *u.LastSignInAt) > *c.LastLoginDaysGt) {
			return false
		}
	}
	if c.CreatedDaysGt != nil && !(daysSince(now, u.CreatedAt) > *c.CreatedDaysGt) {
		return false
	}
	if c.CreatedDaysLt != nil && !(daysSince(now, u.CreatedAt) < *c.CreatedDaysLt) {
		return false
	}
	if c.FoundingFollowupSent != nil && u.FoundingFollowupSent != *c.FoundingFollowupSent {
		return false
	}
	return true
}
