// Package signal owns the per-pair NEUTRAL/OPEN state and decides buy and sell
// transitions from indicator and variation readings.
package signal

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"pump-alerts/internal/model"
	"pump-alerts/internal/variation"
)

// Fixed decision thresholds.
const (
	BuyMinRSI        = 45.0
	SellMinRSI       = 90.0
	BuyMinVariation  = 2  // percent, evaluation window
	SellMaxVariation = -3 // percent, whole retained series
)

var (
	buyMinVariation  = decimal.NewFromInt(BuyMinVariation)
	sellMaxVariation = decimal.NewFromInt(SellMaxVariation)
)

// Input bundles what the engine needs to judge one pair in one cycle.
type Input struct {
	Pair       string
	Indicators model.PairIndicators
	// Variation is the evaluation variation of a pair trending up in both
	// variation windows; Qualifies is false for every other pair.
	Variation decimal.Decimal
	Qualifies bool
	// Series is the full retained history of the pair, oldest first.
	Series []model.Sample
}

// Engine tracks which pairs currently have an open position.
type Engine struct {
	mu   sync.Mutex
	open map[string]struct{}
}

// NewEngine returns an engine with every pair NEUTRAL.
func NewEngine() *Engine {
	return &Engine{open: make(map[string]struct{})}
}

// IsOpen reports whether pair is OPEN.
func (e *Engine) IsOpen(pair string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.open[pair]
	return ok
}

// Open lists OPEN pairs in lexical order.
func (e *Engine) Open() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	pairs := make([]string, 0, len(e.open))
	for pair := range e.open {
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)
	return pairs
}

// Evaluate applies the buy rule, then the sell rule, and updates the state
// when one of them fires. At most one transition is returned per call.
func (e *Engine) Evaluate(in Input, at time.Time) (model.Transition, bool) {
	if len(in.Series) == 0 {
		return model.Transition{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	_, isOpen := e.open[in.Pair]
	price := in.Series[len(in.Series)-1].Price
	seriesVariation, _ := variation.Percent(in.Series)

	transition := model.Transition{
		Pair:            in.Pair,
		Price:           price,
		SeriesVariation: seriesVariation,
		Indicators:      in.Indicators,
		At:              at,
	}

	switch {
	case !isOpen && shouldBuy(in):
		e.open[in.Pair] = struct{}{}
		transition.Side = model.SideBuy
		transition.Variation = in.Variation
		return transition, true
	case isOpen && shouldSell(in.Indicators, seriesVariation):
		delete(e.open, in.Pair)
		transition.Side = model.SideSell
		transition.Variation = seriesVariation
		return transition, true
	}
	return model.Transition{}, false
}

func shouldBuy(in Input) bool {
	ev, tr := in.Indicators.Evaluation, in.Indicators.Trend
	return ev.RSI > BuyMinRSI &&
		ev.MACD > ev.Signal &&
		ev.Histogram > 0 &&
		tr.RSI > BuyMinRSI &&
		tr.MACD > tr.Signal &&
		tr.Histogram > 0 &&
		in.Qualifies &&
		in.Variation.GreaterThan(buyMinVariation)
}

func shouldSell(ind model.PairIndicators, seriesVariation decimal.Decimal) bool {
	ev, tr := ind.Evaluation, ind.Trend
	if !(ev.RSI > SellMinRSI) {
		return false
	}
	dropped := seriesVariation.LessThan(sellMaxVariation)
	reversing := ev.MACD < ev.Signal && tr.MACD < tr.Signal
	return dropped || reversing
}
