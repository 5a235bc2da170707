package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc is invoked once per loop iteration with the tick start time.
type TickFunc func(ctx context.Context, at time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	// Interval is the fixed delay between the end of one tick and the start
	// of the next. Ticks are not aligned and drift is not corrected.
	Interval     time.Duration
	StartupDelay time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Scheduler drives a fixed-delay polling loop.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Run blocks, invoking tick immediately and then Interval after each tick
// returns, until ctx is cancelled. Tick errors are logged and never stop the loop.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if err := wait(ctx, s.opts.StartupDelay); err != nil {
		return err
	}

	for {
		at := s.opts.Now().UTC()
		if err := tick(ctx, at); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error().Err(err).Time("tick", at).Msg("tick execution failed")
		}

		s.logger.Trace().Dur("delay", s.opts.Interval).Msg("waiting for next tick")
		if err := wait(ctx, s.opts.Interval); err != nil {
			return err
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
