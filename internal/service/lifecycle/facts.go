package lifecycle

import (
	"context"
	"fmt"

	"github.com/SophieEDesign/fibi-lifecycle/internal/domain"
)

// userPageSize bounds each user-list query. The aggregator keeps paging
// until a page comes back short.
const userPageSize = 1000

// BuildUserFacts reads the full user population and derives the flat fact
// snapshot the rule engine evaluates against. Read-only; facts are rebuilt
// on every run.
//
// Child-table counts come from grouped scans of the whole table. If the
// store caps rows per query, counts for very large accounts can under-count;
// that is a known limitation of the collaborator, not corrected here.
func BuildUserFacts(ctx context.Context, store UserStore) ([]domain.UserFacts, error) {
	var accounts []domain.UserAccount
	for page := 0; ; page++ {
		batch, err := store.ListUsers(ctx, page, userPageSize)
		if err != nil {
			return nil, fmt.Errorf("list users page %d: %w", page, err)
		}
		accounts = append(accounts, batch...)
		if len(batch) < userPageSize {
			break
		}
	}

	places, err := store.CountChildRows(ctx, "places")
	if err != nil {
		return nil, fmt.Errorf("count places: %w", err)
	}
	itineraries, err := store.CountChildRows(ctx, "itineraries")
	if err != nil {
		return nil, fmt.Errorf("count itineraries: %w", err)
	}

	facts := make([]domain.UserFacts, 0, len(accounts))
	for _, a := range accounts {
		// The provider-level confirmation timestamp wins; the app-level
		// verification timestamp is only a fallback.
		confirmedAt := a.ConfirmedAt
		if confirmedAt == nil {
			confirmedAt = a.VerifiedAt
		}

		facts = append(facts, domain.UserFacts{
			ID:                   a.ID,
			Email:                a.Email,
			CreatedAt:            a.CreatedAt,
			LastSignInAt:         a.LastSignInAt,
			EmailConfirmedAt:     confirmedAt,
			PlacesCount:          places[a.ID],
			ItinerariesCount:     itineraries[a.ID],
			FoundingFollowupSent: a.FoundingFollowupSent,
			MarketingOptIn:       a.MarketingOptIn,
		})
	}
	return facts, nil
}
