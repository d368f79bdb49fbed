// Package scheduler fires named tasks on cron schedules.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"jobportal-engine/internal/logger"
)

type Task func(ctx context.Context) error

type Scheduler struct {
	c   *cron.Cron
	log logger.Logger
	ctx context.Context
}

// New returns a scheduler whose tasks run with ctx. Overlapping runs of the
// same task are skipped.
func New(ctx context.Context, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewNop()
	}
	cl := cronLogger{log: log}
	return &Scheduler{
		c: cron.New(
			cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
			cron.WithLogger(cl),
		),
		log: log,
		ctx: ctx,
	}
}

// Add registers task under spec, e.g. "*/30 * * * *" or "@every 30m".
func (s *Scheduler) Add(spec, name string, task Task) error {
	_, err := s.c.AddFunc(spec, func() {
		if err := task(s.ctx); err != nil {
			s.log.Warn("scheduled task failed", logger.String("task", name), logger.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, spec, err)
	}
	return nil
}

func (s *Scheduler) Start() { s.c.Start() }

// Stop prevents new runs and waits for running tasks to return.
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()
}

func (s *Scheduler) Entries() int { return len(s.c.Entries()) }

type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, kv ...any) {
	l.log.Debug("cron: "+msg, logger.Any("kv", kv))
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Error("cron: "+msg, logger.Error(err), logger.Any("kv", kv))
}
