// Package scheduler runs the scheduled automation path on an in-process
// cron. Deployments that prefer an external scheduler can leave it disabled
// and hit the cron HTTP endpoint instead.
package scheduler

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/SophieEDesign/fibi-lifecycle/internal/pkg/logger"
	"github.com/SophieEDesign/fibi-lifecycle/internal/service/lifecycle"
)

// tickTimeout matches the timeout on the HTTP cron trigger.
const tickTimeout = 60 * time.Second

// Scheduler triggers scheduled runs on a cron expression.
type Scheduler struct {
	cron   *cron.Cron
	runner *lifecycle.Runner
	spec   string
}

// New creates a scheduler with the given cron spec (e.g. "@hourly").
func New(runner *lifecycle.Runner, spec string) *Scheduler {
	return &Scheduler{cron: cron.New(), runner: runner, spec: spec}
}

// Start registers the tick and starts the cron in its own goroutine.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.tick); err != nil {
		return err
	}
	s.cron.Start()
	logger.Info("scheduler started", "cron", s.spec)
	return nil
}

// Stop stops the cron and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	res := s.runner.RunScheduled(ctx)
	logger.Info("scheduled run finished",
		"sent", res.Sent,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"limit_reached", res.LimitReached,
		"errors", strings.Join(res.Errors, "; "),
	)
}
