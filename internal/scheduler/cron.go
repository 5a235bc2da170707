package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a unit of periodic work registered on the cron runner.
type Job func(ctx context.Context)

// Cron runs jobs on cron or "@every" schedules, independent of the polling loop.
type Cron struct {
	cron   *cron.Cron
	logger zerolog.Logger
	ctx    context.Context
}

var specParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewCron constructs a cron runner. Specs take six fields, seconds first, or a descriptor.
func NewCron(logger zerolog.Logger) *Cron {
	return &Cron{
		cron:   cron.New(cron.WithParser(specParser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger.With().Str("component", "cron").Logger(),
		ctx:    context.Background(),
	}
}

// ValidateSpec reports whether spec parses as a schedule.
func ValidateSpec(spec string) error {
	if _, err := specParser.Parse(spec); err != nil {
		return fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return nil
}

// Register adds job under spec. name is used for logging only.
func (c *Cron) Register(name, spec string, job Job) error {
	if _, err := c.cron.AddFunc(spec, func() {
		c.logger.Debug().Str("job", name).Msg("running scheduled job")
		job(c.ctx)
	}); err != nil {
		return fmt.Errorf("register %s job: %w", name, err)
	}
	c.logger.Info().Str("job", name).Str("schedule", spec).Msg("job registered")
	return nil
}

// Len returns the number of registered jobs.
func (c *Cron) Len() int {
	return len(c.cron.Entries())
}

// Run starts the runner and blocks until ctx is cancelled, then waits for
// running jobs to finish.
func (c *Cron) Run(ctx context.Context) error {
	c.ctx = ctx
	c.cron.Start()
	c.logger.Info().Msg("cron started")

	<-ctx.Done()
	<-c.cron.Stop().Done()
	c.logger.Info().Msg("cron stopped")
	return ctx.Err()
}
