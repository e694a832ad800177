package indicators

import "github.com/ducminhle1904/solana-momentum-bot/pkg/types"

// DefaultVolumeLookback is the number of prior candles averaged for surge detection.
const DefaultVolumeLookback = 20

// AverageVolume returns the mean volume of the lookback candles that precede
// current. When fewer than lookback candles are available the current volume
// is returned, so a surge can never fire on a thin history.
func AverageVolume(prior []types.OHLCV, current types.OHLCV, lookback int) float64 {
	if lookback <= 0 || len(prior) < lookback {
		return current.Volume
	}

	sum := 0.0
	for _, c := range prior[len(prior)-lookback:] {
		sum += c.Volume
	}
	return sum / float64(lookback)
}

// Mean returns the arithmetic mean of values, 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
