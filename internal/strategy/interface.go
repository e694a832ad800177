package strategy

import (
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/pkg/types"
)

// SignalEvaluator turns a candle history into a trading decision
type SignalEvaluator interface {
	// Evaluate inspects history, whose last element is the current candle
	Evaluate(history []types.OHLCV) *TradeDecision

	// GetName returns the name of the strategy
	GetName() string
}

var _ SignalEvaluator = (*MomentumStrategy)(nil)

// TradeDecision represents a trading decision made by a strategy
type TradeDecision struct {
	Action    TradeAction
	RSI       float64
	Volume    float64
	AvgVolume float64
	Reason    string
	Timestamp time.Time
}

// TradeAction represents the type of trading action
type TradeAction int

const (
	ActionHold TradeAction = iota
	ActionBuy
)

func (ta TradeAction) String() string {
	switch ta {
	case ActionHold:
		return "HOLD"
	case ActionBuy:
		return "BUY"
	default:
		return "UNKNOWN"
	}
}
