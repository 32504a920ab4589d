package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/SophieEDesign/fibi-lifecycle/internal/config"
	"github.com/SophieEDesign/fibi-lifecycle/internal/pkg/httputil"
)

// Run timeouts per caller: the cron trigger is expected to be quick and
// frequent; operator-triggered runs get more headroom. The audit record is
// still closed on timeout because the executor observes context
// cancellation as an infrastructure error, not a crash.
const (
	cronRunTimeout  = 60 * time.Second
	adminRunTimeout = 300 * time.Second
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, auth config.AuthConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://fibi.app", "http://localhost:5173"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		// Scheduled trigger for external cron services
		r.With(bearerAuth(auth.CronSecret), runTimeout(cronRunTimeout)).
			Post("/cron/run", h.RunScheduled)

		// Operator surface consumed by the admin dashboard
		r.Route("/admin", func(r chi.Router) {
			r.Use(bearerAuth(auth.AdminToken))

			r.With(runTimeout(adminRunTimeout)).Post("/automations/run", h.RunScheduled)
			r.With(runTimeout(adminRunTimeout)).Post("/automations/{id}/run", h.RunAutomation)
			r.With(runTimeout(adminRunTimeout)).Post("/blast", h.RunBlast)

			r.Get("/automations", h.ListAutomations)
			r.Post("/automations", h.CreateAutomation)
			r.Get("/runs", h.ListRuns)
		})
	})

	return r
}

// bearerAuth guards a route group with a static bearer token. An empty
// configured token rejects everything: a misconfigured deployment must not
// expose the trigger endpoints.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if token == "" || subtle.ConstantTimeCompare(
				[]byte(req.Header.Get("Authorization")),
				[]byte("Bearer "+token)) != 1 {
				httputil.Unauthorized(w)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

// runTimeout caps a run's wall-clock time via the request context.
func runTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx, cancel := context.WithTimeout(req.Context(), d)
			defer cancel()
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}
