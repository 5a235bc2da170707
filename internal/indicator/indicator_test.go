package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pump-alerts/internal/model"
	"pump-alerts/internal/pricestore"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f", label, got, want)
	}
}

func TestRSI(t *testing.T) {
	cases := []struct {
		name   string
		prices []float64
		want   float64
	}{
		{"single sample has no losses", []float64{10}, 100},
		{"only gains", []float64{1, 2, 3, 4}, 100},
		{"flat", []float64{5, 5, 5}, 100},
		{"gains and flat", []float64{1, 1, 2, 2, 3}, 100},
		{"only losses", []float64{4, 3, 2, 1}, 0},
		{"losses and flat", []float64{4, 4, 3, 3}, 0},
		{"balanced", []float64{1, 2, 1}, 50},
		{"three to one", []float64{10, 13, 12}, 75},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertClose(t, tc.name, RSI(tc.prices), tc.want, 1e-9)
		})
	}
}

func TestRSIEmptyIsUndefined(t *testing.T) {
	if !math.IsNaN(RSI(nil)) {
		t.Fatal("RSI of an empty slice must be NaN")
	}
}

func TestEMAMinimumPeriods(t *testing.T) {
	got := EMA([]float64{1, 2, 3, 4}, 3)
	for i := 0; i < 2; i++ {
		if !math.IsNaN(got[i]) {
			t.Fatalf("point %d should be undefined, got %f", i, got[i])
		}
	}
	// adjusted weights 1, 0.5, 0.25 over 3, 2, 1
	assertClose(t, "ema[2]", got[2], 4.25/1.75, 1e-9)
	// weights 1, 0.5, 0.25, 0.125 over 4, 3, 2, 1
	assertClose(t, "ema[3]", got[3], (4+1.5+0.5+0.125)/1.875, 1e-9)
}

func TestEMASkipsLeadingNaN(t *testing.T) {
	got := EMA([]float64{math.NaN(), 1, 2}, 2)
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Fatalf("expected two undefined points, got %v", got[:2])
	}
	assertClose(t, "ema[2]", got[2], 1.75, 1e-9)
}

func TestMACDConstantPrice(t *testing.T) {
	prices := make([]float64, 26)
	for i := range prices {
		prices[i] = 42.5
	}
	macd, _, _ := MACD(prices)
	if macd[25] != 0 {
		t.Fatalf("MACD of a constant series must be 0, got %v", macd[25])
	}
	if !math.IsNaN(macd[24]) {
		t.Fatal("MACD must be undefined before 26 points")
	}

	prices = make([]float64, 40)
	for i := range prices {
		prices[i] = 42.5
	}
	snap := Compute(prices)
	if snap.MACD != 0 || snap.Signal != 0 || snap.Histogram != 0 {
		t.Fatalf("constant series should give zero MACD lines, got %+v", snap)
	}
	if !Ready(snap) {
		t.Fatal("snapshot over 40 points should be ready")
	}
}

func TestSignalNeedsThirtyFourPoints(t *testing.T) {
	prices := make([]float64, 34)
	for i := range prices {
		prices[i] = float64(100 + i)
	}

	_, signal, _ := MACD(prices)
	if !math.IsNaN(signal[32]) {
		t.Fatal("signal line needs nine defined MACD points")
	}
	if math.IsNaN(signal[33]) {
		t.Fatal("signal line should be defined at the 34th point")
	}
}

func TestComputeRisingSeries(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 * math.Pow(1.001, float64(i*i))
	}

	snap := Compute(prices)
	if snap.RSI != 100 {
		t.Fatalf("rising series RSI should be 100, got %f", snap.RSI)
	}
	if !(snap.MACD > snap.Signal) || !(snap.Histogram > 0) {
		t.Fatalf("accelerating series should have MACD above signal, got %+v", snap)
	}
}

func TestComputeShortSeriesIsNotReady(t *testing.T) {
	snap := Compute([]float64{1, 2, 3})
	if Ready(snap) {
		t.Fatal("three points cannot produce MACD")
	}
	if snap.MACD > snap.Signal || snap.Histogram > 0 {
		t.Fatal("comparisons against undefined values must be false")
	}
}

func TestEngineBatchWindows(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := pricestore.New(100)

	// only old samples: inside the trend window, outside the evaluation window
	store.Record("OLD-USDT", decimal.NewFromInt(1), now.Add(-30*time.Minute))
	// recent samples: inside both windows
	store.Record("NEW-USDT", decimal.NewFromInt(1), now.Add(-2*time.Minute))
	store.Record("NEW-USDT", decimal.NewFromInt(2), now.Add(-time.Minute))
	// too old for either window
	store.Record("STALE-USDT", decimal.NewFromInt(1), now.Add(-5*time.Hour))

	engine := NewEngine(model.Horizon{Evaluation: 5 * time.Minute, Trend: 4 * time.Hour})
	got := engine.Batch(store, now)

	if _, ok := got["OLD-USDT"]; ok {
		t.Fatal("pair without evaluation samples must be skipped")
	}
	if _, ok := got["STALE-USDT"]; ok {
		t.Fatal("pair without any windowed samples must be skipped")
	}
	ind, ok := got["NEW-USDT"]
	if !ok {
		t.Fatal("pair with samples in both windows must be computed")
	}
	if ind.Evaluation.RSI != 100 || ind.Trend.RSI != 100 {
		t.Fatalf("unexpected RSI values: %+v", ind)
	}
}
