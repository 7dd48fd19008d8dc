// Package cron triggers periodic page reloads.
//
// The Trigger type calls a Func according to a cron schedule. It is started once and runs until
// the context is cancelled.
//
// Example usage:
//
//	trigger, err := cron.NewTrigger("*/15 * * * *", srv.Reload, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	trigger.Start(ctx)  // Returns immediately, runs in background
//	<-ctx.Done()        // Wait for shutdown signal
package cron

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidCronSpec is returned when the cron specification cannot be parsed.
var ErrInvalidCronSpec = errors.New("invalid cron spec")

// Func is the work a Trigger runs on each tick.
type Func func(ctx context.Context) error

// Trigger calls a Func according to a cron schedule.
type Trigger struct {
	spec     string
	schedule cron.Schedule
	fn       Func
	logger   *slog.Logger
}

// NewTrigger creates a Trigger for spec. The spec is either the standard 5 field cron format
// (minute, hour, day, month, weekday) or a descriptor such as @hourly or @every 10m.
// Returns ErrInvalidCronSpec if the specification cannot be parsed.
func NewTrigger(spec string, fn Func, logger *slog.Logger) (*Trigger, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, errors.Join(ErrInvalidCronSpec, err)
	}

	return &Trigger{
		spec:     spec,
		schedule: schedule,
		fn:       fn,
		logger:   logger,
	}, nil
}

// Start launches a goroutine that runs the Func according to the schedule.
// Returns immediately. The goroutine exits when ctx is cancelled.
func (t *Trigger) Start(ctx context.Context) {
	go t.loop(ctx)
}

// Spec returns the schedule the trigger was created with.
func (t *Trigger) Spec() string {
	return t.spec
}

// NextRun returns the next scheduled run time from now.
func (t *Trigger) NextRun() time.Time {
	return t.schedule.Next(time.Now())
}

func (t *Trigger) loop(ctx context.Context) {
	for {
		nextRun := t.schedule.Next(time.Now())
		wait := time.Until(nextRun)

		t.logger.Debug("waiting for next scheduled reload",
			"next_run", nextRun,
			"wait_duration", wait,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			t.logger.Info("cron trigger shutting down")
			return
		case <-timer.C:
			t.execute(ctx)
		}
	}
}

func (t *Trigger) execute(ctx context.Context) {
	t.logger.Info("starting scheduled reload", "spec", t.spec)

	if err := t.fn(ctx); err != nil {
		t.logger.Warn("scheduled reload completed with error", "error", err)
	} else {
		t.logger.Info("scheduled reload completed successfully")
	}
}
