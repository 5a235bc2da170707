package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"pump-alerts/internal/model"
)

// SignalRecord captures an emitted buy or sell transition for auditing.
type SignalRecord struct {
	ID                  int64
	Pair                string
	Side                model.Side
	Price               decimal.Decimal
	VariationPct        decimal.Decimal
	SeriesVariationPct  decimal.Decimal
	RSIEvaluation       float64
	RSITrend            float64
	HistogramEvaluation float64
	SignalAt            time.Time
	CreatedAt           time.Time
}

// RecordFromTransition builds the audit record of a signal transition.
func RecordFromTransition(t model.Transition) SignalRecord {
	return SignalRecord{
		Pair:                t.Pair,
		Side:                t.Side,
		Price:               t.Price,
		VariationPct:        t.Variation,
		SeriesVariationPct:  t.SeriesVariation,
		RSIEvaluation:       t.Indicators.Evaluation.RSI,
		RSITrend:            t.Indicators.Trend.RSI,
		HistogramEvaluation: t.Indicators.Evaluation.Histogram,
		SignalAt:            t.At,
	}
}
