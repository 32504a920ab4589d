package lifecycle_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/SophieEDesign/fibi-lifecycle/internal/domain"
	"github.com/SophieEDesign/fibi-lifecycle/internal/service/lifecycle"
)

func TestBuildUserFactsCounts(t *testing.T) {
	created := now.Add(-10 * 24 * time.Hour)
	users := &memUserStore{
		accounts: []domain.UserAccount{
			confirmedUser("a", "a@example.com", created),
			confirmedUser("b", "b@example.com", created),
		},
		places:      map[string]int{"a": 3},
		itineraries: map[string]int{"a": 1, "b": 4},
	}

	facts, err := lifecycle.BuildUserFacts(context.Background(), users)
	if err != nil {
		t.Fatal(err)
	}
	if len(facts) != 2 {
		t.Fatalf("got %d facts", len(facts))
	}
	if facts[0].PlacesCount != 3 || facts[0].ItinerariesCount != 1 {
		t.Fatalf("user a counts %d/%d", facts[0].PlacesCount, facts[0].ItinerariesCount)
	}
	// Users with no child rows get zero, not a missing entry.
	if facts[1].PlacesCount != 0 || facts[1].ItinerariesCount != 4 {
		t.Fatalf("user b counts %d/%d", facts[1].PlacesCount, facts[1].ItinerariesCount)
	}
}

// Paging stops at the first short page; a population of exactly one full
// page plus a remainder is read completely.
func TestBuildUserFactsPaging(t *testing.T) {
	created := now.Add(-24 * time.Hour)
	users := &memUserStore{}
	for i := 0; i < 1005; i++ {
		users.accounts = append(users.accounts,
			confirmedUser(fmt.Sprintf("u%04d", i), fmt.Sprintf("u%04d@example.com", i), created))
	}

	facts, err := lifecycle.BuildUserFacts(context.Background(), users)
	if err != nil {
		t.Fatal(err)
	}
	if len(facts) != 1005 {
		t.Fatalf("got %d facts, want the whole population", len(facts))
	}
}

func TestBuildUserFactsConfirmationFallback(t *testing.T) {
	provider := now.Add(-5 * 24 * time.Hour)
	app := now.Add(-3 * 24 * time.Hour)
	users := &memUserStore{accounts: []domain.UserAccount{
		{ID: "both", ConfirmedAt: timeptr(provider), VerifiedAt: timeptr(app)},
		{ID: "app-only", VerifiedAt: timeptr(app)},
		{ID: "neither"},
	}}

	facts, err := lifecycle.BuildUserFacts(context.Background(), users)
	if err != nil {
		t.Fatal(err)
	}

	if !facts[0].EmailConfirmedAt.Equal(provider) {
		t.Fatal("provider timestamp must win when both are present")
	}
	if !facts[1].EmailConfirmedAt.Equal(app) {
		t.Fatal("app verification must serve as fallback")
	}
	if facts[2].Confirmed() {
		t.Fatal("no timestamp means unconfirmed")
	}
}
