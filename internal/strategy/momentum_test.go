package strategy

import (
	"testing"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// oscillatingCandles alternates +3/-2 closes, which pins a 14-period RSI at 60
func oscillatingCandles(n int, volume float64) []types.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	data := make([]types.OHLCV, n)
	price := 100.0
	for i := 0; i < n; i++ {
		if i > 0 {
			if i%2 == 1 {
				price += 3
			} else {
				price -= 2
			}
		}
		data[i] = types.OHLCV{
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    volume,
			Timestamp: start.Add(time.Duration(i) * time.Minute),
		}
	}
	return data
}

// TestMomentumStrategy_BuyOnSurgeInBand tests the BUY path
func TestMomentumStrategy_BuyOnSurgeInBand(t *testing.T) {
	history := oscillatingCandles(30, 1e6)
	history[len(history)-1].Volume = 1.5e6

	decision := NewMomentumStrategy(DefaultParams()).Evaluate(history)

	require.NotNil(t, decision)
	assert.Equal(t, ActionBuy, decision.Action)
	assert.InDelta(t, 60.0, decision.RSI, 1e-9)
	assert.Equal(t, 1e6, decision.AvgVolume)
}

// TestMomentumStrategy_HoldWithoutSurge tests that the volume gate is strict
func TestMomentumStrategy_HoldWithoutSurge(t *testing.T) {
	history := oscillatingCandles(30, 1e6)
	history[len(history)-1].Volume = 1.38e6 // equal to threshold, not above

	assert.Equal(t, ActionHold, Evaluate(history, DefaultParams()))
}

// TestMomentumStrategy_HoldOutsideBand tests the oscillator gate
func TestMomentumStrategy_HoldOutsideBand(t *testing.T) {
	history := oscillatingCandles(30, 1e6)
	history[len(history)-1].Volume = 5e6

	params := DefaultParams().WithEntryBand(61, 70, 1.38)
	assert.Equal(t, ActionHold, Evaluate(history, params))
}

// TestMomentumStrategy_BandIsInclusive tests both band edges
func TestMomentumStrategy_BandIsInclusive(t *testing.T) {
	history := oscillatingCandles(30, 1e6)
	history[len(history)-1].Volume = 5e6

	assert.Equal(t, ActionBuy, Evaluate(history, DefaultParams().WithEntryBand(60, 65, 1.38)))
	assert.Equal(t, ActionBuy, Evaluate(history, DefaultParams().WithEntryBand(55, 60, 1.38)))
}

// TestMomentumStrategy_EmptyHistoryHolds tests the degenerate inputs
func TestMomentumStrategy_EmptyHistoryHolds(t *testing.T) {
	s := NewMomentumStrategy(DefaultParams())

	assert.Equal(t, ActionHold, s.Evaluate(nil).Action)
	assert.Equal(t, ActionHold, s.Evaluate(oscillatingCandles(1, 1e9)).Action)
}

// TestMomentumStrategy_ShortHistoryIsNeutral tests that short windows never reach the band
func TestMomentumStrategy_ShortHistoryIsNeutral(t *testing.T) {
	history := oscillatingCandles(10, 1)
	history[len(history)-1].Volume = 1e9

	decision := NewMomentumStrategy(DefaultParams()).Evaluate(history)
	assert.Equal(t, 50.0, decision.RSI)
	assert.Equal(t, ActionHold, decision.Action)
}

// TestParams_WithEntryBandCopies tests that overlays do not mutate the receiver
func TestParams_WithEntryBandCopies(t *testing.T) {
	base := DefaultParams()
	overlay := base.WithEntryBand(40, 50, 1.5)

	assert.Equal(t, 57.0, base.RSILow)
	assert.Equal(t, 40.0, overlay.RSILow)
	assert.Equal(t, base.RSIPeriod, overlay.RSIPeriod)
}

// TestParams_Validate tests parameter validation
func TestParams_Validate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())

	bad := DefaultParams()
	bad.RSILow, bad.RSIHigh = 70, 60
	assert.Error(t, bad.Validate())

	bad = DefaultParams()
	bad.VolMult = 0
	assert.Error(t, bad.Validate())
}

// TestTradeAction_String tests action names
func TestTradeAction_String(t *testing.T) {
	assert.Equal(t, "HOLD", ActionHold.String())
	assert.Equal(t, "BUY", ActionBuy.String())
	assert.Equal(t, "UNKNOWN", TradeAction(9).String())
}
