package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/SophieEDesign/fibi-lifecycle/internal/domain"
	"github.com/SophieEDesign/fibi-lifecycle/internal/pkg/httputil"
	"github.com/SophieEDesign/fibi-lifecycle/internal/service/lifecycle"
)

// Handlers bundles the HTTP handlers for the engine's caller surface: the
// scheduled trigger, the operator run endpoints, and the dashboard reads.
type Handlers struct {
	runner    *lifecycle.Runner
	rules     lifecycle.RuleStore
	templates lifecycle.TemplateStore
	runs      lifecycle.RunStore
}

// NewHandlers creates the handler set.
func NewHandlers(runner *lifecycle.Runner, rules lifecycle.RuleStore, templates lifecycle.TemplateStore, runs lifecycle.RunStore) *Handlers {
	return &Handlers{runner: runner, rules: rules, templates: templates, runs: runs}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// RunScheduled executes all active non-manual automations. Shared by the
// cron trigger and the operator run-all endpoint; every run endpoint
// returns the same result shape so the dashboard never special-cases
// "crashed" vs "finished with failures".
func (h *Handlers) RunScheduled(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, h.runner.RunScheduled(r.Context()))
}

// RunAutomation executes exactly one automation, regardless of trigger type.
func (h *Handlers) RunAutomation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	httputil.OK(w, h.runner.RunAutomation(r.Context(), id))
}

// blastRequest is the body of the ad-hoc one-off send endpoint.
type blastRequest struct {
	TemplateSlug string                `json:"template_slug"`
	Conditions   domain.RuleConditions `json:"conditions"`
}

// RunBlast sends one template to an ad-hoc filtered audience outside the
// automation-rule system.
func (h *Handlers) RunBlast(w http.ResponseWriter, r *http.Request) {
	var req blastRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.TemplateSlug == "" {
		httputil.BadRequest(w, "template_slug is required")
		return
	}
	httputil.OK(w, h.runner.RunBlast(r.Context(), req.TemplateSlug, req.Conditions))
}

// ListAutomations returns all rules for the dashboard.
func (h *Handlers) ListAutomations(w http.ResponseWriter, r *http.Request) {
	rules, err := h.rules.List(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if rules == nil {
		rules = []domain.AutomationRule{}
	}
	httputil.OK(w, rules)
}

// createAutomationRequest is the body of the rule-creation endpoint.
type createAutomationRequest struct {
	Name         string                `json:"name"`
	TemplateSlug string                `json:"template_slug"`
	Trigger      domain.TriggerType    `json:"trigger_type"`
	Conditions   domain.RuleConditions `json:"conditions"`
	DelayHours   int                   `json:"delay_hours"`
	IsActive     bool                  `json:"is_active"`
}

// CreateAutomation creates a rule. Unknown trigger types are rejected here,
// at write time, so the engine's permissive unknown-trigger fallback is
// never exercised by real data.
func (h *Handlers) CreateAutomation(w http.ResponseWriter, r *http.Request) {
	var req createAutomationRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.BadRequest(w, "name is required")
		return
	}
	if req.TemplateSlug == "" {
		httputil.BadRequest(w, "template_slug is required")
		return
	}
	if !req.Trigger.Valid() {
		httputil.BadRequest(w, "unknown trigger type: "+string(req.Trigger))
		return
	}
	if req.DelayHours < 0 {
		httputil.BadRequest(w, "delay_hours must be >= 0")
		return
	}

	// The referenced template must exist before the rule can.
	if _, err := h.templates.GetBySlug(r.Context(), req.TemplateSlug); err != nil {
		if errors.Is(err, lifecycle.ErrTemplateNotFound) {
			httputil.BadRequest(w, "template not found: "+req.TemplateSlug)
			return
		}
		httputil.InternalError(w, err)
		return
	}

	rule := &domain.AutomationRule{
		Name:         req.Name,
		TemplateSlug: req.TemplateSlug,
		Trigger:      req.Trigger,
		Conditions:   req.Conditions,
		DelayHours:   req.DelayHours,
		IsActive:     req.IsActive,
	}
	id, err := h.rules.Create(r.Context(), rule)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	rule.ID = id
	httputil.Created(w, rule)
}

// ListRuns returns recent run records for the dashboard.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.runs.List(r.Context(), 50)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if runs == nil {
		runs = []domain.RunRecord{}
	}
	httputil.OK(w, runs)
}
