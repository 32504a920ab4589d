package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/SophieEDesign/fibi-lifecycle/internal/domain"
	"github.com/SophieEDesign/fibi-lifecycle/internal/pkg/logger"
)

const (
	// SendCap is the hard ceiling on send attempts per run. When it is hit
	// the run stops entirely; remaining candidates are abandoned, counted
	// neither sent nor skipped.
	SendCap = 200

	// ThrottleWindow is the lookback for the global throttle and the
	// per-template dedup: at most one lifecycle email per user per window.
	ThrottleWindow = 48 * time.Hour
)

// Executor runs automations against the user population. All iteration is
// sequential; a run never fans out. The executor never returns a Go error:
// infrastructure failures are folded into the result so every caller gets
// the same well-formed shape.
type Executor struct {
	users     UserStore
	rules     RuleStore
	templates TemplateStore
	sendLog   SendLogStore
	mail      MailSender
	from      string
	now       func() time.Time
}

// NewExecutor creates an executor sending from the given fixed address.
func NewExecutor(users UserStore, rules RuleStore, templates TemplateStore, sendLog SendLogStore, mail MailSender, from string) *Executor {
	return &Executor{
		users:     users,
		rules:     rules,
		templates: templates,
		sendLog:   sendLog,
		mail:      mail,
		from:      from,
		now:       time.Now,
	}
}

// RunAll executes every active non-manual automation, in listing order.
// This is the scheduled/cron path; manual-trigger rules are never selected
// by it.
func (e *Executor) RunAll(ctx context.Context) domain.RunResult {
	rules, err := e.rules.ListActiveScheduled(ctx)
	if err != nil {
		return aborted(fmt.Errorf("load automations: %w", err))
	}
	if len(rules) == 0 {
		return domain.RunResult{Errors: []string{}}
	}
	return e.run(ctx, rules)
}

// RunOne executes exactly one automation by id, regardless of trigger type.
// A missing or inactive automation is a configuration error, not a run
// failure: it is recorded as an error string and nothing is sent.
func (e *Executor) RunOne(ctx context.Context, ruleID string) domain.RunResult {
	rule, err := e.rules.Get(ctx, ruleID)
	if err == ErrRuleNotFound {
		return domain.RunResult{Errors: []string{fmt.Sprintf("automation %s not found", ruleID)}}
	}
	if err != nil {
		return aborted(fmt.Errorf("load automation %s: %w", ruleID, err))
	}
	if !rule.IsActive {
		return domain.RunResult{Errors: []string{fmt.Sprintf("automation %q is not active", rule.Name)}}
	}
	return e.run(ctx, []domain.AutomationRule{*rule})
}

// RunBlast sends one template to an ad-hoc conditions-filtered audience
// outside the automation-rule system. The eligibility and opt-in gates and
// the global 48h throttle still apply; per-template dedup does not, since
// there is no rule id. Log entries carry a nil automation id.
func (e *Executor) RunBlast(ctx context.Context, templateSlug string, conds domain.RuleConditions) domain.RunResult {
	res := domain.RunResult{Errors: []string{}}

	tpl, err := e.resolveTemplate(ctx, templateSlug, &res)
	if err != nil {
		return aborted(err)
	}
	if tpl == nil {
		return res
	}

	facts, state, err := e.prepare(ctx)
	if err != nil {
		return aborted(err)
	}

	for _, u := range SelectAudience(conds, facts, e.now()) {
		if res.Sent+res.Failed >= SendCap {
			e.capReached(&res)
			return res
		}
		if state.GloballyThrottled(u.ID) {
			res.Skipped++
			continue
		}
		e.attempt(ctx, &res, state, u, tpl, nil)
	}
	return res
}

// run executes the given automations against a fresh fact snapshot and a
// throttle state seeded from the recent send log. The facts and the global
// set are computed once for the whole run; the per-template sets live in
// the same state and are consulted per automation.
func (e *Executor) run(ctx context.Context, rules []domain.AutomationRule) domain.RunResult {
	res := domain.RunResult{Errors: []string{}}

	facts, state, err := e.prepare(ctx)
	if err != nil {
		return aborted(err)
	}

	for _, rule := range rules {
		tpl, err := e.resolveTemplate(ctx, rule.TemplateSlug, &res)
		if err != nil {
			res.Aborted = true
			res.Errors = append(res.Errors, err.Error())
			return res
		}
		if tpl == nil {
			// Missing template aborts only this automation.
			continue
		}

		for _, u := range SelectCandidates(rule, facts, e.now()) {
			if res.Sent+res.Failed >= SendCap {
				e.capReached(&res)
				return res
			}
			if state.GloballyThrottled(u.ID) || state.TemplateThrottled(u.ID, rule.TemplateSlug) {
				res.Skipped++
				continue
			}
			ruleID := rule.ID
			e.attempt(ctx, &res, state, u, tpl, &ruleID)
		}
	}
	return res
}

// prepare builds the per-run fact snapshot and throttle state.
func (e *Executor) prepare(ctx context.Context) ([]domain.UserFacts, *ThrottleState, error) {
	facts, err := BuildUserFacts(ctx, e.users)
	if err != nil {
		return nil, nil, fmt.Errorf("aggregate user facts: %w", err)
	}
	entries, err := e.sendLog.RecentSince(ctx, e.now().Add(-ThrottleWindow))
	if err != nil {
		return nil, nil, fmt.Errorf("load recent sends: %w", err)
	}
	return facts, NewThrottleState(entries), nil
}

// resolveTemplate loads an active template. A missing or inactive template
// is recorded in the result and reported as (nil, nil) so the caller skips
// just that automation; any other error is infrastructure and bubbles up.
func (e *Executor) resolveTemplate(ctx context.Context, slug string, res *domain.RunResult) (*domain.EmailTemplate, error) {
	tpl, err := e.templates.GetBySlug(ctx, slug)
	if err == ErrTemplateNotFound {
		res.Errors = append(res.Errors, fmt.Sprintf("template %q not found", slug))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load template %q: %w", slug, err)
	}
	if !tpl.IsActive {
		res.Errors = append(res.Errors, fmt.Sprintf("template %q is not active", slug))
		return nil, nil
	}
	return tpl, nil
}

// attempt sends one email and logs the attempt. A failure is counted and
// recorded but never aborts processing of later candidates or automations.
func (e *Executor) attempt(ctx context.Context, res *domain.RunResult, state *ThrottleState, u domain.UserFacts, tpl *domain.EmailTemplate, automationID *string) {
	if !u.HasEmail() {
		// The selectors already filter these out.
		res.Skipped++
		return
	}

	err := e.mail.Send(ctx, *u.Email, tpl.Subject, tpl.HTMLBody, e.from)

	entry := &domain.SendLogEntry{
		UserID:       u.ID,
		TemplateSlug: tpl.Slug,
		AutomationID: automationID,
		SentAt:       e.now(),
		Status:       domain.SendSent,
	}
	if err != nil {
		entry.Status = domain.SendFailed
	}
	// Failed attempts are logged too, and they gate the throttle window.
	if logErr := e.sendLog.Append(ctx, entry); logErr != nil {
		logger.Warn("send log append failed", "user", u.ID, "error", logErr.Error())
	}

	if err != nil {
		res.Failed++
		res.Errors = append(res.Errors, fmt.Sprintf("send to user %s failed: %v", u.ID, err))
		return
	}

	state.MarkSent(u.ID, tpl.Slug)
	res.Sent++
}

func (e *Executor) capReached(res *domain.RunResult) {
	res.LimitReached = true
	res.Errors = append(res.Errors, fmt.Sprintf("send cap of %d reached; remaining candidates abandoned", SendCap))
}

// aborted wraps an infrastructure error into a well-formed result. The run
// stops, but the caller still gets counters and a single error string.
func aborted(err error) domain.RunResult {
	return domain.RunResult{Aborted: true, Errors: []string{err.Error()}}
}
