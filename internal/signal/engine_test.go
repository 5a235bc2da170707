package signal

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pump-alerts/internal/model"
)

func series(prices ...string) []model.Sample {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	out := make([]model.Sample, len(prices))
	for i, p := range prices {
		out[i] = model.Sample{Price: decimal.RequireFromString(p), Time: base.Add(time.Duration(i) * time.Second)}
	}
	return out
}

func bullish() model.PairIndicators {
	snap := model.IndicatorSnapshot{RSI: 70, MACD: 2, Signal: 1, Histogram: 1}
	return model.PairIndicators{Evaluation: snap, Trend: snap}
}

func buyInput(pair string) Input {
	return Input{
		Pair:       pair,
		Indicators: bullish(),
		Variation:  decimal.NewFromInt(5),
		Qualifies:  true,
		Series:     series("100", "105"),
	}
}

func TestBuyOpensPair(t *testing.T) {
	e := NewEngine()
	tr, ok := e.Evaluate(buyInput("BTC-USDT"), time.Now())
	if !ok || tr.Side != model.SideBuy {
		t.Fatalf("expected buy, got %+v (ok=%v)", tr, ok)
	}
	if !tr.Variation.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("buy must report the evaluation variation, got %s", tr.Variation)
	}
	if !tr.Price.Equal(decimal.NewFromInt(105)) {
		t.Fatalf("price should be the last sample, got %s", tr.Price)
	}
	if !e.IsOpen("BTC-USDT") {
		t.Fatal("pair should be OPEN after buy")
	}

	if _, ok := e.Evaluate(buyInput("BTC-USDT"), time.Now()); ok {
		t.Fatal("an OPEN pair must not buy again")
	}
}

func TestBuyRequiresEveryCondition(t *testing.T) {
	mutations := map[string]func(*Input){
		"eval rsi":          func(in *Input) { in.Indicators.Evaluation.RSI = 45 },
		"eval macd":         func(in *Input) { in.Indicators.Evaluation.MACD = 1 },
		"eval histogram":    func(in *Input) { in.Indicators.Evaluation.Histogram = 0 },
		"trend rsi":         func(in *Input) { in.Indicators.Trend.RSI = 40 },
		"trend macd":        func(in *Input) { in.Indicators.Trend.MACD = 0.5 },
		"trend histogram":   func(in *Input) { in.Indicators.Trend.Histogram = -1 },
		"not qualifying":    func(in *Input) { in.Qualifies = false },
		"variation too low": func(in *Input) { in.Variation = decimal.NewFromInt(2) },
		"undefined macd":    func(in *Input) { in.Indicators.Trend.MACD = math.NaN() },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			in := buyInput("ETH-USDT")
			mutate(&in)
			e := NewEngine()
			if _, ok := e.Evaluate(in, time.Now()); ok {
				t.Fatal("buy must not fire")
			}
			if e.IsOpen("ETH-USDT") {
				t.Fatal("state must stay NEUTRAL")
			}
		})
	}
}

func TestSellOnDrop(t *testing.T) {
	e := NewEngine()
	if _, ok := e.Evaluate(buyInput("SOL-USDT"), time.Now()); !ok {
		t.Fatal("setup buy failed")
	}

	in := Input{
		Pair:       "SOL-USDT",
		Indicators: bullish(),
		Series:     series("100", "110", "96"),
	}
	in.Indicators.Evaluation.RSI = 95

	tr, ok := e.Evaluate(in, time.Now())
	if !ok || tr.Side != model.SideSell {
		t.Fatalf("expected sell, got %+v (ok=%v)", tr, ok)
	}
	if !tr.Variation.Equal(decimal.NewFromInt(-4)) {
		t.Fatalf("sell must report the series variation, got %s", tr.Variation)
	}
	if e.IsOpen("SOL-USDT") {
		t.Fatal("pair should be NEUTRAL after sell")
	}
}

func TestSellOnReversal(t *testing.T) {
	e := NewEngine()
	e.Evaluate(buyInput("ADA-USDT"), time.Now())

	in := Input{
		Pair: "ADA-USDT",
		Indicators: model.PairIndicators{
			Evaluation: model.IndicatorSnapshot{RSI: 91, MACD: 1, Signal: 2, Histogram: -1},
			Trend:      model.IndicatorSnapshot{RSI: 80, MACD: 1, Signal: 3, Histogram: -2},
		},
		Series: series("100", "120"),
	}
	if tr, ok := e.Evaluate(in, time.Now()); !ok || tr.Side != model.SideSell {
		t.Fatalf("expected reversal sell, got %+v", tr)
	}
}

func TestSellNeedsHighRSI(t *testing.T) {
	e := NewEngine()
	e.Evaluate(buyInput("DOT-USDT"), time.Now())

	in := Input{
		Pair: "DOT-USDT",
		Indicators: model.PairIndicators{
			Evaluation: model.IndicatorSnapshot{RSI: 89, MACD: 1, Signal: 2},
			Trend:      model.IndicatorSnapshot{RSI: 89, MACD: 1, Signal: 2},
		},
		Series: series("100", "50"),
	}
	if _, ok := e.Evaluate(in, time.Now()); ok {
		t.Fatal("sell requires evaluation RSI above 90")
	}
	if !e.IsOpen("DOT-USDT") {
		t.Fatal("pair should remain OPEN")
	}
}

func TestNeutralPairNeverSells(t *testing.T) {
	e := NewEngine()
	in := Input{
		Pair:       "LTC-USDT",
		Indicators: model.PairIndicators{Evaluation: model.IndicatorSnapshot{RSI: 99, MACD: 0, Signal: 1}, Trend: model.IndicatorSnapshot{MACD: 0, Signal: 1}},
		Series:     series("100", "50"),
	}
	if _, ok := e.Evaluate(in, time.Now()); ok {
		t.Fatal("a NEUTRAL pair must not sell")
	}
}

func TestEmptySeriesSkipped(t *testing.T) {
	e := NewEngine()
	in := buyInput("BNB-USDT")
	in.Series = nil
	if _, ok := e.Evaluate(in, time.Now()); ok {
		t.Fatal("pair without samples must be skipped")
	}
}

func TestMembershipInvariantUnderRandomCycles(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	e := NewEngine()
	pairs := []string{"A-USDT", "B-USDT", "C-USDT"}
	open := map[string]bool{}

	for i := 0; i < 5000; i++ {
		pair := pairs[rng.Intn(len(pairs))]
		in := Input{
			Pair: pair,
			Indicators: model.PairIndicators{
				Evaluation: model.IndicatorSnapshot{RSI: rng.Float64() * 100, MACD: rng.NormFloat64(), Signal: rng.NormFloat64(), Histogram: rng.NormFloat64()},
				Trend:      model.IndicatorSnapshot{RSI: rng.Float64() * 100, MACD: rng.NormFloat64(), Signal: rng.NormFloat64(), Histogram: rng.NormFloat64()},
			},
			Variation: decimal.NewFromFloat(rng.Float64() * 10),
			Qualifies: rng.Intn(2) == 0,
			Series:    series("100", decimal.NewFromFloat(80+rng.Float64()*40).StringFixed(4)),
		}

		tr, ok := e.Evaluate(in, time.Now())
		if !ok {
			continue
		}
		switch tr.Side {
		case model.SideBuy:
			if open[pair] {
				t.Fatalf("cycle %d: buy emitted for OPEN pair %s", i, pair)
			}
			open[pair] = true
		case model.SideSell:
			if !open[pair] {
				t.Fatalf("cycle %d: sell emitted for NEUTRAL pair %s", i, pair)
			}
			open[pair] = false
		}
		if e.IsOpen(pair) != open[pair] {
			t.Fatalf("cycle %d: engine state diverged for %s", i, pair)
		}
	}
}
