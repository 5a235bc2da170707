package indicator

import "math"

// EMA returns the exponentially weighted mean of values with span window,
// using adjusted (normalised) weights. Points before window observations have
// been seen are NaN. Leading NaN inputs are skipped; later NaNs still decay
// the weight of earlier observations.
func EMA(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	decay := 1 - 2.0/float64(window+1)
	weighted := math.NaN()
	weight := 1.0
	observed := 0

	for i, v := range values {
		isObservation := !math.IsNaN(v)
		if isObservation {
			observed++
		}

		if math.IsNaN(weighted) {
			if isObservation {
				weighted = v
			}
		} else {
			weight *= decay
			if isObservation {
				if weighted != v {
					weighted = (weight*weighted + v) / (weight + 1)
				}
				weight++
			}
		}

		if observed >= window {
			out[i] = weighted
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// MACD evaluates EMA(12)-EMA(26) pointwise, its EMA(9) signal line and the
// histogram between them.
func MACD(prices []float64) (macd, signal, histogram []float64) {
	fast := EMA(prices, MACDFast)
	slow := EMA(prices, MACDSlow)

	macd = make([]float64, len(prices))
	for i := range prices {
		macd[i] = fast[i] - slow[i]
	}

	signal = EMA(macd, MACDSignal)

	histogram = make([]float64, len(prices))
	for i := range prices {
		histogram[i] = macd[i] - signal[i]
	}
	return macd, signal, histogram
}
