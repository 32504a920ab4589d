package lifecycle

import (
	"time"

	"github.com/SophieEDesign/fibi-lifecycle/internal/domain"
	"github.com/SophieEDesign/fibi-lifecycle/internal/pkg/logger"
)

// MatchesTrigger is the coarse per-user filter for a trigger category,
// independent of the rule's fine-grained conditions.
//
// An unknown trigger value matches everyone. That keeps a typo'd trigger
// from silently dropping an automation, at the price of turning it into
// "all users" -- which is why rule creation rejects unknown triggers at
// write time (see domain.TriggerType.Valid).
func MatchesTrigger(u domain.UserFacts, trigger domain.TriggerType, now time.Time) bool {
	switch trigger {
	case domain.TriggerUserConfirmed:
		return u.Confirmed()
	case domain.TriggerUserInactive:
		return u.LastSignInAt != nil && daysSince(now, *u.LastSignInAt) > 0
	case domain.TriggerPlaceAdded:
		return u.PlacesCount > 0
	case domain.TriggerItineraryCreated:
		return u.ItinerariesCount > 0
	case domain.TriggerManual:
		// Fine-grained filtering is left entirely to the conditions.
		return true
	default:
		logger.Warn("unknown trigger type, matching all users", "trigger", string(trigger))
		return true
	}
}
