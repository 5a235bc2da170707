package indicator

import "math"

// RSI uses plain means of gains and losses over the whole slice rather than
// Wilder smoothing. A slice without losses yields 100.
func RSI(prices []float64) float64 {
	if len(prices) == 0 {
		return math.NaN()
	}

	var gains, losses float64
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains += delta
		} else if delta < 0 {
			losses -= delta
		}
	}

	// both sums share the same divisor, so the ratio of sums equals the ratio of means
	if losses == 0 {
		return 100
	}
	rs := gains / losses
	return 100 - 100/(1+rs)
}
