package strategy

import (
	"fmt"

	"github.com/ducminhle1904/solana-momentum-bot/internal/indicators"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/types"
)

// MomentumStrategy fires BUY when the oscillator sits inside the configured
// band and the current candle's volume surges over its trailing average.
// It never emits a sell; exits are driven by stop-loss and take-profit.
type MomentumStrategy struct {
	params Params
	rsi    *indicators.RSI
}

// NewMomentumStrategy creates a strategy bound to params
func NewMomentumStrategy(params Params) *MomentumStrategy {
	if params.VolLookback <= 0 {
		params.VolLookback = indicators.DefaultVolumeLookback
	}
	return &MomentumStrategy{
		params: params,
		rsi:    indicators.NewRSI(params.RSIPeriod),
	}
}

// Params returns the parameters the strategy was built with
func (s *MomentumStrategy) Params() Params {
	return s.params
}

func (s *MomentumStrategy) GetName() string {
	return fmt.Sprintf("Momentum RSI(%d) %.0f-%.0f x%.2f", s.params.RSIPeriod, s.params.RSILow, s.params.RSIHigh, s.params.VolMult)
}

// Evaluate returns BUY or HOLD for the last candle of history.
// With no prior candles the result is always HOLD.
func (s *MomentumStrategy) Evaluate(history []types.OHLCV) *TradeDecision {
	if len(history) < 2 {
		return &TradeDecision{Action: ActionHold, RSI: indicators.NeutralRSI, Reason: "no prior history"}
	}

	current := history[len(history)-1]
	prior := history[:len(history)-1]

	rsi := s.rsi.Calculate(types.Closes(history))
	avgVol := indicators.AverageVolume(prior, current, s.params.VolLookback)

	decision := &TradeDecision{
		Action:    ActionHold,
		RSI:       rsi,
		Volume:    current.Volume,
		AvgVolume: avgVol,
		Timestamp: current.Timestamp,
	}

	inBand := rsi >= s.params.RSILow && rsi <= s.params.RSIHigh
	surge := current.Volume > avgVol*s.params.VolMult

	switch {
	case inBand && surge:
		decision.Action = ActionBuy
		decision.Reason = fmt.Sprintf("rsi %.1f in band, volume %.2fx average", rsi, current.Volume/avgVol)
	case !inBand:
		decision.Reason = fmt.Sprintf("rsi %.1f outside %.0f-%.0f", rsi, s.params.RSILow, s.params.RSIHigh)
	default:
		decision.Reason = "no volume surge"
	}

	return decision
}

// Evaluate is a stateless helper for one-off evaluations
func Evaluate(history []types.OHLCV, params Params) TradeAction {
	return NewMomentumStrategy(params).Evaluate(history).Action
}
