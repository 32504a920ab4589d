package lifecycle

import "github.com/SophieEDesign/fibi-lifecycle/internal/domain"

// ThrottleState holds the in-run skip sets derived from the recent send
// log: who received any lifecycle email inside the window (global throttle)
// and who received a specific template inside it (per-template dedup).
//
// It is an explicit value threaded through one run, never ambient state.
// Successful sends are marked back into it so a later automation in the
// same run does not also mail a fresh recipient. Dedup is time-windowed,
// not permanent: the state is built only from entries inside the window,
// so a user can legitimately receive the same template again once the
// window elapses.
type ThrottleState struct {
	global     map[string]struct{}
	byTemplate map[string]map[string]struct{}
}

// NewThrottleState indexes send-log entries already filtered to the
// lookback window. Both sent and failed attempts count: operators chose to
// gate on attempts so a flapping provider cannot hammer one inbox.
func NewThrottleState(entries []domain.SendLogEntry) *ThrottleState {
	s := &ThrottleState{
		global:     make(map[string]struct{}),
		byTemplate: make(map[string]map[string]struct{}),
	}
	for _, e := range entries {
		s.mark(e.UserID, e.TemplateSlug)
	}
	return s
}

// GloballyThrottled reports whether the user had any send logged inside the
// window. Checked before the per-template set is even consulted.
func (s *ThrottleState) GloballyThrottled(userID string) bool {
	_, ok := s.global[userID]
	return ok
}

// TemplateThrottled reports whether the user had a send of this specific
// template logged inside the window.
func (s *ThrottleState) TemplateThrottled(userID, templateSlug string) bool {
	_, ok := s.byTemplate[templateSlug][userID]
	return ok
}

// MarkSent records an in-run successful send in both sets.
func (s *ThrottleState) MarkSent(userID, templateSlug string) {
	s.mark(userID, templateSlug)
}

func (s *ThrottleState) mark(userID, templateSlug string) {
	s.global[userID] = struct{}{}
	byUser, ok := s.byTemplate[templateSlug]
	if !ok {
		byUser = make(map[string]struct{})
		s.byTemplate[templateSlug] = byUser
	}
	byUser[userID] = struct{}{}
}
