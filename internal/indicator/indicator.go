// Package indicator computes momentum readings (RSI, EMA, MACD) over price
// slices. Undefined values are NaN; every comparison against NaN is false, so
// an indicator that is not ready never satisfies a threshold.
package indicator

import (
	"math"
	"time"

	"pump-alerts/internal/model"
)

const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// Compute returns the latest RSI, MACD, signal and histogram of prices.
// prices must not be empty.
func Compute(prices []float64) model.IndicatorSnapshot {
	macd, signal, hist := MACD(prices)
	last := len(prices) - 1
	return model.IndicatorSnapshot{
		RSI:       RSI(prices),
		MACD:      macd[last],
		Signal:    signal[last],
		Histogram: hist[last],
	}
}

// Ready reports whether every value of the snapshot is defined.
func Ready(s model.IndicatorSnapshot) bool {
	return !math.IsNaN(s.RSI) && !math.IsNaN(s.MACD) && !math.IsNaN(s.Signal) && !math.IsNaN(s.Histogram)
}

// SeriesSource exposes windowed reads of tracked price series.
type SeriesSource interface {
	Pairs() []string
	Window(pair string, w model.Window) []model.Sample
}

// Engine computes indicators over the evaluation and trend windows of every pair.
type Engine struct {
	horizon model.Horizon
}

// NewEngine builds an engine for the given horizon.
func NewEngine(horizon model.Horizon) *Engine {
	return &Engine{horizon: horizon}
}

// Batch computes indicators for every pair with at least one sample in both
// windows. Pairs lacking data in either window are left out.
func (e *Engine) Batch(src SeriesSource, now time.Time) map[string]model.PairIndicators {
	evalWindow, trendWindow := e.horizon.IndicatorWindows(now)

	out := make(map[string]model.PairIndicators)
	for _, pair := range src.Pairs() {
		evaluation := src.Window(pair, evalWindow)
		trend := src.Window(pair, trendWindow)
		if len(evaluation) == 0 || len(trend) == 0 {
			continue
		}
		out[pair] = model.PairIndicators{
			Evaluation: Compute(model.Prices(evaluation)),
			Trend:      Compute(model.Prices(trend)),
		}
	}
	return out
}
