// Package scheduler drives periodic pipeline runs. Concurrent runs against
// the same store are not safe, so overlapping triggers are skipped rather
// than queued.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps a cron runner configured to serialize job executions.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger
}

// New creates a Scheduler. Jobs whose previous invocation is still running
// are skipped, guaranteeing at most one active run.
func New(log *slog.Logger) *Scheduler {
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cl))),
		log:  log,
	}
}

// Register adds run under the given cron spec (standard 5-field format).
func (s *Scheduler) Register(spec string, run func() error) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := run(); err != nil {
			s.log.Error("scheduled run failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("registering cron spec %q: %w", spec, err)
	}
	return nil
}

// Start begins triggering registered jobs in a background goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the trigger loop and returns a context that is done once any
// in-flight job completes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	log *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Info(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error(msg, append(keysAndValues, "err", err)...)
}
