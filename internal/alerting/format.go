package alerting

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"pump-alerts/internal/model"
)

const (
	monitoringText = "📊 <b>MONITORING FOR PUMP ENTRIES</b> 📊\n\n" +
		"🏄 Once an optimal wave pattern emerges\n\n" +
		"🔔 You'll be instantly notified to ride the momentum..."

	// DefaultDonationText is broadcast when no custom donation message is configured.
	DefaultDonationText = "💚 Help us push the boundaries of AI-driven analysis! " +
		"Your contributions fuel our relentless pursuit of innovative trading strategies:\n\n" +
		"🤲 <b>Every donation propels us forward.</b>\n\n" +
		"<b>$USDT (TRC-20):</b>\nTGpiWetnYK2VQpxNGPR27D9vfM6Mei5vNA\n\n" +
		"🫶 <b>Designed to help you.</b>\n🫶 <b>From AIs to human-beans.</b>"
)

// TransitionMessage renders a buy or sell alert for a signal transition.
// Buy alerts carry the evaluation variation, sell alerts the whole-series one.
func TransitionMessage(t model.Transition) Message {
	if t.Side == model.SideSell {
		return Message{Kind: KindSell, Pair: t.Pair, Text: sellText(t.Pair, t.Price, t.SeriesVariation)}
	}
	return Message{Kind: KindBuy, Pair: t.Pair, Text: buyText(t.Pair, t.Price, t.Variation)}
}

func buyText(pair string, price, variation decimal.Decimal) string {
	var b strings.Builder
	b.WriteString("🟢️ <b>STRONG PUMP DETECTED</b> 🟢️\n\n")
	b.WriteString(fmt.Sprintf("🧧 <b>$%s</b>\n\n", pair))
	b.WriteString(fmt.Sprintf("🐋 <b>Price:</b> %s $USDT\n\n", price.StringFixed(8)))
	b.WriteString(fmt.Sprintf("📈 <b>Variation:</b> %s%%\n\n", variation.StringFixed(2)))
	b.WriteString("🏄‍♂️ RSI, MACD, and Histogram indicate strong upward momentum\n\n")
	b.WriteString("💠 This is an excellent buying opportunity!")
	return b.String()
}

func sellText(pair string, price, variation decimal.Decimal) string {
	var b strings.Builder
	b.WriteString("🔴 <b>MOMENTUM DUMPING BELOW</b> 🔴\n\n")
	b.WriteString(fmt.Sprintf("🧧 <b>$%s</b>\n\n", pair))
	b.WriteString(fmt.Sprintf("🦈 <b>Price:</b> %s $USDT\n\n", price.StringFixed(8)))
	b.WriteString(fmt.Sprintf("📉 <b>Variation:</b> %s%%\n\n", variation.StringFixed(2)))
	b.WriteString("🏄‍♀️ RSI, MACD, and Histogram indicate weakening upward momentum\n\n")
	b.WriteString("💠 Consider selling to mitigate risk!")
	return b.String()
}

// MonitoringMessage is sent once after the first cycle without transitions.
func MonitoringMessage() Message {
	return Message{Kind: KindMonitoring, Text: monitoringText}
}

// FetchFailureMessage reports a failed ticker snapshot.
func FetchFailureMessage(err error) Message {
	return Message{Kind: KindFetchFailure, Text: "Error fetching data: " + html.EscapeString(err.Error())}
}

// DonationMessage wraps the broadcast text, falling back to the default.
func DonationMessage(text string) Message {
	if strings.TrimSpace(text) == "" {
		text = DefaultDonationText
	}
	return Message{Kind: KindDonation, Text: text}
}
