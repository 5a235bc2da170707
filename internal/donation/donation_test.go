package donation

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"pump-alerts/internal/alerting"
)

type fakeOutbox struct {
	msgs []alerting.Message
	err  error
}

func (f *fakeOutbox) Enqueue(_ context.Context, msg alerting.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func TestFireQueuesDonation(t *testing.T) {
	out := &fakeOutbox{}
	job := NewJob(out, "", zerolog.Nop())

	job.Fire(context.Background())
	job.Fire(context.Background())

	if len(out.msgs) != 2 {
		t.Fatalf("expected 2 broadcasts, got %d", len(out.msgs))
	}
	if out.msgs[0].Kind != alerting.KindDonation || out.msgs[0].Text != alerting.DefaultDonationText {
		t.Fatalf("unexpected message: %+v", out.msgs[0])
	}
}

func TestFireSwallowsErrors(t *testing.T) {
	out := &fakeOutbox{err: errors.New("queue closed")}
	NewJob(out, "custom", zerolog.Nop()).Fire(context.Background())
	if len(out.msgs) != 0 {
		t.Fatal("nothing should be queued")
	}
}
