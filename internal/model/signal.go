package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// IndicatorSnapshot holds the latest momentum readings for one window.
// Values that cannot be computed yet are NaN.
type IndicatorSnapshot struct {
	RSI       float64
	MACD      float64
	Signal    float64
	Histogram float64
}

// PairIndicators pairs the evaluation and trend snapshots of one symbol.
type PairIndicators struct {
	Evaluation IndicatorSnapshot
	Trend      IndicatorSnapshot
}

// Side is the direction of a signal transition.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Transition is a NEUTRAL->OPEN (buy) or OPEN->NEUTRAL (sell) change for a pair.
type Transition struct {
	Pair            string
	Side            Side
	Price           decimal.Decimal
	Variation       decimal.Decimal // percentage the decision was based on
	SeriesVariation decimal.Decimal // first vs last retained sample
	Indicators      PairIndicators
	At              time.Time
}
