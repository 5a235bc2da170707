package alerting

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Outbox accepts messages for ordered delivery.
type Outbox interface {
	Enqueue(ctx context.Context, msg Message) error
}

// Observer receives delivery outcomes. Implementations must tolerate
// concurrent calls.
type Observer interface {
	AlertDelivered(kind string)
	AlertDropped(kind string)
	AlertRateLimited(kind string)
}

// DispatcherOptions tune delivery behaviour.
type DispatcherOptions struct {
	QueueSize    int
	SendInterval time.Duration
	Observer     Observer
	// Sleep waits for d or until ctx is done. Defaults to a timer based wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Dispatcher serialises every outbound message through a single consumer so
// that messages reach the destination in enqueue order.
type Dispatcher struct {
	notifier Notifier
	opts     DispatcherOptions
	queue    chan Message
	logger   zerolog.Logger
}

// NewDispatcher constructs a dispatcher delivering through notifier.
func NewDispatcher(notifier Notifier, opts DispatcherOptions, logger zerolog.Logger) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	return &Dispatcher{
		notifier: notifier,
		opts:     opts,
		queue:    make(chan Message, opts.QueueSize),
		logger:   logger.With().Str("component", "alert_dispatcher").Logger(),
	}
}

// Enqueue adds msg to the queue, blocking while the queue is full.
func (d *Dispatcher) Enqueue(ctx context.Context, msg Message) error {
	select {
	case d.queue <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued messages.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Run consumes the queue until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-d.queue:
			if err := d.Deliver(ctx, msg); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

// Deliver sends msg, retrying the identical message after every rate-limit
// wait. Any other failure is logged and the message dropped. A successful
// send is followed by the configured send interval.
func (d *Dispatcher) Deliver(ctx context.Context, msg Message) error {
	for {
		err := d.notifier.Send(ctx, msg)
		if err == nil {
			d.observe(func(o Observer) { o.AlertDelivered(string(msg.Kind)) })
			if d.opts.SendInterval > 0 {
				return d.opts.Sleep(ctx, d.opts.SendInterval)
			}
			return nil
		}

		var retry *RetryAfterError
		if errors.As(err, &retry) {
			d.observe(func(o Observer) { o.AlertRateLimited(string(msg.Kind)) })
			d.logger.Warn().Str("kind", string(msg.Kind)).Str("pair", msg.Pair).
				Dur("retry_after", retry.Wait).Msg("flood control exceeded, retrying")
			if err := d.opts.Sleep(ctx, retry.Wait); err != nil {
				return err
			}
			continue
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.observe(func(o Observer) { o.AlertDropped(string(msg.Kind)) })
		d.logger.Error().Err(err).Str("kind", string(msg.Kind)).Str("pair", msg.Pair).Msg("alert delivery failed, message dropped")
		return err
	}
}

func (d *Dispatcher) observe(fn func(Observer)) {
	if d.opts.Observer != nil {
		fn(d.opts.Observer)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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

var _ Outbox = (*Dispatcher)(nil)
