// Package lifecycle implements the email automation engine: it decides, for
// the whole user population, which users should receive which lifecycle
// email right now, sends those emails at most once per throttle window, and
// produces an auditable run outcome.
//
// The engine is deliberately sequential: one run iterates automations and
// candidates in order, which bounds load on the mail collaborator and keeps
// the in-run throttle state race-free without locking. Cross-run exclusion
// is the caller's job (see Runner, which takes an advisory lock).
//
// The service layer depends only on the repository interfaces defined in
// this package and never imports from api/. Repository implementations live
// in repository/postgres/.
package lifecycle
