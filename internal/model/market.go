package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticker is one entry of an exchange ticker snapshot. Last is nil when the
// exchange reports no trade for the symbol.
type Ticker struct {
	Symbol string
	Last   *string
}

// Sample is a single recorded price observation.
type Sample struct {
	Price decimal.Decimal
	Time  time.Time
}

// Prices extracts the float prices of samples in order.
func Prices(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Price.InexactFloat64()
	}
	return out
}

// Window is an inclusive time range.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t lies within [From, To].
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// Horizon holds the two look-back lengths used for momentum checks.
type Horizon struct {
	Evaluation time.Duration
	Trend      time.Duration
}

// IndicatorWindows returns the evaluation and trend windows used for RSI/MACD.
// The trend window reaches from now-(evaluation+trend) up to now and therefore
// contains the evaluation period.
func (h Horizon) IndicatorWindows(now time.Time) (evaluation, trend Window) {
	evaluation = Window{From: now.Add(-h.Evaluation), To: now}
	trend = Window{From: now.Add(-(h.Evaluation + h.Trend)), To: now}
	return evaluation, trend
}

// VariationWindows returns the windows used for percentage variation. Unlike
// IndicatorWindows, the trend window ends where the evaluation window begins.
func (h Horizon) VariationWindows(now time.Time) (evaluation, trend Window) {
	start := now.Add(-(h.Evaluation + h.Trend))
	evaluation = Window{From: now.Add(-h.Evaluation), To: now}
	trend = Window{From: start, To: start.Add(h.Trend)}
	return evaluation, trend
}
