package alerting

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"pump-alerts/internal/model"
)

func TestTransitionMessageBuy(t *testing.T) {
	msg := TransitionMessage(model.Transition{
		Pair:            "SOL-USDT",
		Side:            model.SideBuy,
		Price:           decimal.RequireFromString("142.5"),
		Variation:       decimal.RequireFromString("3.14159"),
		SeriesVariation: decimal.RequireFromString("-1"),
	})

	if msg.Kind != KindBuy || msg.Pair != "SOL-USDT" {
		t.Fatalf("unexpected message header: %+v", msg)
	}
	for _, want := range []string{"STRONG PUMP DETECTED", "$SOL-USDT", "142.50000000 $USDT", "3.14%"} {
		if !strings.Contains(msg.Text, want) {
			t.Fatalf("buy text missing %q:\n%s", want, msg.Text)
		}
	}
}

func TestTransitionMessageSellUsesSeriesVariation(t *testing.T) {
	msg := TransitionMessage(model.Transition{
		Pair:            "SOL-USDT",
		Side:            model.SideSell,
		Price:           decimal.RequireFromString("96"),
		Variation:       decimal.RequireFromString("9.99"),
		SeriesVariation: decimal.RequireFromString("-4"),
	})

	if msg.Kind != KindSell {
		t.Fatalf("kind = %s", msg.Kind)
	}
	if !strings.Contains(msg.Text, "MOMENTUM DUMPING") || !strings.Contains(msg.Text, "-4.00%") {
		t.Fatalf("unexpected sell text:\n%s", msg.Text)
	}
	if strings.Contains(msg.Text, "9.99") {
		t.Fatal("sell text must not show the evaluation variation")
	}
}

func TestFetchFailureMessageEscapesHTML(t *testing.T) {
	msg := FetchFailureMessage(errors.New("bad <html> response"))
	if !strings.Contains(msg.Text, "bad &lt;html&gt; response") {
		t.Fatalf("error text not escaped: %q", msg.Text)
	}
}

func TestDonationMessageDefault(t *testing.T) {
	if DonationMessage("  ").Text != DefaultDonationText {
		t.Fatal("blank donation text should fall back to the default")
	}
	if DonationMessage("custom").Text != "custom" {
		t.Fatal("custom donation text should be kept")
	}
}
