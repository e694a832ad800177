package indicators

import "math"

// NeutralRSI is returned when there is not enough history to compute the oscillator.
const NeutralRSI = 50.0

// RSI calculates the Relative Strength Index over a price series
type RSI struct {
	period int
}

// NewRSI creates a new RSI instance with the given period
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

// Period returns the lookback in deltas
func (r *RSI) Period() int {
	return r.period
}

// Calculate computes the RSI over the last period deltas of prices.
// Fewer than period+1 prices yield NeutralRSI. A window with no losses
// yields exactly 100.
func (r *RSI) Calculate(prices []float64) float64 {
	if r.period <= 0 || len(prices) < r.period+1 {
		return NeutralRSI
	}

	window := prices[len(prices)-r.period-1:]
	var gainSum, lossSum float64
	for i := 1; i < len(window); i++ {
		change := window[i] - window[i-1]
		if change > 0 {
			gainSum += change
		} else {
			lossSum += math.Abs(change)
		}
	}

	avgGain := gainSum / float64(r.period)
	avgLoss := lossSum / float64(r.period)

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// CalculateRSI is a convenience wrapper around NewRSI(period).Calculate(prices)
func CalculateRSI(prices []float64, period int) float64 {
	return NewRSI(period).Calculate(prices)
}
