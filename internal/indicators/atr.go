package indicators

import (
	"errors"
	"math"

	"github.com/ducminhle1904/solana-momentum-bot/pkg/types"
)

// ErrInsufficientData is returned by indicators that cannot fall back to a neutral value
var ErrInsufficientData = errors.New("insufficient data points for calculation")

// ATR represents the Average True Range technical indicator
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

// Calculate returns the simple average of the last period true ranges.
// It needs period+1 candles.
func (a *ATR) Calculate(data []types.OHLCV) (float64, error) {
	if a.period <= 0 || len(data) < a.period+1 {
		return 0, ErrInsufficientData
	}

	sum := 0.0
	for i := len(data) - a.period; i < len(data); i++ {
		sum += trueRange(data[i], data[i-1].Close)
	}
	return sum / float64(a.period), nil
}

// trueRange = max(High-Low, |High-PrevClose|, |Low-PrevClose|)
func trueRange(current types.OHLCV, prevClose float64) float64 {
	hl := current.High - current.Low
	hc := math.Abs(current.High - prevClose)
	lc := math.Abs(current.Low - prevClose)
	return math.Max(hl, math.Max(hc, lc))
}
