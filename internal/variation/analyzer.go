// Package variation measures percentage price change over the evaluation
// window and the trend window that precedes it.
package variation

import (
	"time"

	"github.com/shopspring/decimal"

	"pump-alerts/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Percent returns (last-first)/first*100 for samples. ok is false for an
// empty slice or a zero first price.
func Percent(samples []model.Sample) (pct decimal.Decimal, ok bool) {
	if len(samples) == 0 {
		return decimal.Zero, false
	}
	first := samples[0].Price
	if first.IsZero() {
		return decimal.Zero, false
	}
	last := samples[len(samples)-1].Price
	return last.Sub(first).Div(first).Mul(hundred), true
}

// SeriesSource exposes windowed reads of tracked price series.
type SeriesSource interface {
	Pairs() []string
	Window(pair string, w model.Window) []model.Sample
}

// Analyzer reports pairs trending up in both windows.
type Analyzer struct {
	horizon model.Horizon
}

// NewAnalyzer builds an analyzer for the given horizon.
func NewAnalyzer(horizon model.Horizon) *Analyzer {
	return &Analyzer{horizon: horizon}
}

// Batch returns, for each pair whose evaluation and trend variations are both
// strictly positive, the evaluation variation.
func (a *Analyzer) Batch(src SeriesSource, now time.Time) map[string]decimal.Decimal {
	evalWindow, trendWindow := a.horizon.VariationWindows(now)

	out := make(map[string]decimal.Decimal)
	for _, pair := range src.Pairs() {
		evaluation, ok := Percent(src.Window(pair, evalWindow))
		if !ok || !evaluation.IsPositive() {
			continue
		}
		trend, ok := Percent(src.Window(pair, trendWindow))
		if !ok || !trend.IsPositive() {
			continue
		}
		out[pair] = evaluation
	}
	return out
}
