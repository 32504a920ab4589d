package lifecycle

import (
	"time"

	"github.com/SophieEDesign/fibi-lifecycle/internal/domain"
)

// SelectCandidates returns the users eligible for one automation rule: a
// deliverable email address, the marketing opt-in (a hard gate no rule can
// override), the coarse trigger match, an account at least DelayHours old,
// and the rule's conditions. The cheap gates run first.
func SelectCandidates(rule domain.AutomationRule, facts []domain.UserFacts, now time.Time) []domain.UserFacts {
	minAge := time.Duration(rule.DelayHours) * time.Hour

	var out []domain.UserFacts
	for _, u := range facts {
		if !u.MarketingOptIn || !u.HasEmail() {
			continue
		}
		if !MatchesTrigger(u, rule.Trigger, now) {
			continue
		}
		if now.Sub(u.CreatedAt) < minAge {
			continue
		}
		if !MatchesConditions(u, rule.Conditions, now) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// SelectAudience is the ad-hoc variant used by one-off sends outside the
// rule system: the same email and opt-in gates and conditions, but no
// trigger or account-age requirement.
func SelectAudience(conds domain.RuleConditions, facts []domain.UserFacts, now time.Time) []domain.UserFacts {
	var out []domain.UserFacts
	for _, u := range facts {
		if !u.MarketingOptIn || !u.HasEmail() {
			continue
		}
		if !MatchesConditions(u, conds, now) {
			continue
		}
		out = append(out, u)
	}
	return out
}
