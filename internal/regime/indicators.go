package regime

import (
	"math"

	"github.com/ducminhle1904/solana-momentum-bot/internal/indicators"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/types"
)

// trendScore compares the highs and lows of the recent window with the one before it.
// Starts neutral at 0.5; a higher high and a higher low each add 0.25.
func trendScore(recent, previous []types.OHLCV) float64 {
	if len(recent) == 0 || len(previous) == 0 {
		return 0.5
	}

	score := 0.5
	recentHigh, recentLow := closeRange(recent)
	prevHigh, prevLow := closeRange(previous)
	if recentHigh > prevHigh {
		score += 0.25
	}
	if recentLow > prevLow {
		score += 0.25
	}
	return score
}

// volatilityScore inverts the mean absolute relative close-to-close change
func volatilityScore(window []types.OHLCV) float64 {
	if len(window) < 2 {
		return 0.5
	}

	total := 0.0
	n := 0
	for i := 1; i < len(window); i++ {
		prev := window[i-1].Close
		if prev == 0 {
			continue
		}
		total += math.Abs(window[i].Close-prev) / prev
		n++
	}
	if n == 0 {
		return 0.5
	}

	avg := total / float64(n)
	switch {
	case avg < 0.02:
		return 1
	case avg > 0.05:
		return 0
	default:
		return 0.5
	}
}

// momentumScore is the 14-period oscillator scaled to [0,1]
func momentumScore(window []types.OHLCV, period int) float64 {
	return indicators.CalculateRSI(types.Closes(window), period) / 100
}

// volumeScore compares average volume of the recent window with the previous one
func volumeScore(recent, previous []types.OHLCV) float64 {
	recentAvg := indicators.Mean(types.Volumes(recent))
	prevAvg := indicators.Mean(types.Volumes(previous))
	if prevAvg <= 0 {
		return 0.5
	}

	switch ratio := recentAvg / prevAvg; {
	case ratio > 1.2:
		return 1
	case ratio < 0.8:
		return 0
	default:
		return 0.5
	}
}

func closeRange(candles []types.OHLCV) (float64, float64) {
	high := math.Inf(-1)
	low := math.Inf(1)
	for _, c := range candles {
		high = math.Max(high, c.Close)
		low = math.Min(low, c.Close)
	}
	return high, low
}
