// Package donation broadcasts the periodic donation message.
package donation

import (
	"context"

	"github.com/rs/zerolog"

	"pump-alerts/internal/alerting"
)

// Job enqueues the donation broadcast. It touches nothing but the outbox.
type Job struct {
	outbox alerting.Outbox
	text   string
	logger zerolog.Logger
}

// NewJob constructs a donation job. An empty text selects the default broadcast.
func NewJob(outbox alerting.Outbox, text string, logger zerolog.Logger) *Job {
	return &Job{
		outbox: outbox,
		text:   text,
		logger: logger.With().Str("component", "donation").Logger(),
	}
}

// Fire enqueues one broadcast. Failures are logged and never propagate.
func (j *Job) Fire(ctx context.Context) {
	if err := j.outbox.Enqueue(ctx, alerting.DonationMessage(j.text)); err != nil {
		j.logger.Warn().Err(err).Msg("donation broadcast not queued")
		return
	}
	j.logger.Info().Msg("donation broadcast queued")
}
