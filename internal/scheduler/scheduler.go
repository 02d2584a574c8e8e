// Package scheduler drives the poll loop of the long-running watcher.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/JakeFAU/league-watcher/internal/league"
)

// Config selects the cycle schedule.
type Config struct {
	// Interval is the fixed delay between cycles. Ignored when Cron is set.
	Interval time.Duration
	// Cron is an optional cron expression (seconds field optional).
	Cron string
	// Warmup is the pause between the ready signal and the first cycle.
	Warmup time.Duration
	// Location is the zone cron expressions are evaluated in. Defaults to UTC.
	Location *time.Location
}

// Runner runs cycles one after another on a schedule.
type Runner struct {
	schedule cron.Schedule
	warmup   time.Duration
	loc      *time.Location
	clock    league.Clock
	logger   *zap.Logger
}

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New validates cfg and builds a Runner.
func New(cfg Config, clock league.Clock, logger *zap.Logger) (*Runner, error) {
	if clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	var sched cron.Schedule
	if expr := strings.TrimSpace(cfg.Cron); expr != "" {
		parsed, err := parser.Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("parse scheduler.cron %q: %w", expr, err)
		}
		sched = parsed
	} else {
		if cfg.Interval < time.Second {
			return nil, fmt.Errorf("scheduler.interval must be at least 1s")
		}
		sched = cron.Every(cfg.Interval)
	}
	if cfg.Warmup < 0 {
		return nil, fmt.Errorf("scheduler.warmup must be >= 0")
	}

	return &Runner{
		schedule: sched,
		warmup:   cfg.Warmup,
		loc:      loc,
		clock:    clock,
		logger:   logger.Named("scheduler"),
	}, nil
}

// Next returns the delay until the activation after now.
func (r *Runner) Next(now time.Time) time.Duration {
	next := r.schedule.Next(now.In(r.loc))
	if d := next.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Run waits for ready, sleeps the warm-up delay, then alternates between
// running cycle and sleeping until the next activation. A cycle always
// finishes before the next wait starts, so cycles never overlap and missed
// activations are not caught up. Run returns nil once ctx is done. A nil
// ready channel counts as already signalled.
func (r *Runner) Run(ctx context.Context, ready <-chan struct{}, cycle func(context.Context)) error {
	if ready != nil {
		r.logger.Info("waiting for connection")
		select {
		case <-ctx.Done():
			return nil
		case <-ready:
		}
	}
	if r.warmup > 0 {
		r.logger.Info("warming up", zap.Duration("delay", r.warmup))
		if err := r.clock.Sleep(ctx, r.warmup); err != nil {
			return nil //nolint:nilerr // cancellation ends the loop
		}
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		cycle(ctx)

		wait := r.Next(r.clock.Now())
		r.logger.Debug("sleeping until next cycle", zap.Duration("wait", wait))
		if err := r.clock.Sleep(ctx, wait); err != nil {
			r.logger.Info("scheduler stopped")
			return nil //nolint:nilerr // cancellation ends the loop
		}
	}
}
