package optimization

import (
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/internal/backtest"
	"github.com/ducminhle1904/solana-momentum-bot/internal/strategy"
)

// Variant is one candidate parameter set under evaluation
type Variant struct {
	ID           string          `json:"id"`
	Params       strategy.Params `json:"params"`
	WinRate      float64         `json:"win_rate"`
	Trades       int             `json:"trades"`
	Sharpe       float64         `json:"sharpe"`
	PnL          float64         `json:"pnl"`
	CreatedAt    time.Time       `json:"created_at"`
	LastTestedAt *time.Time      `json:"last_tested_at,omitempty"`
}

// RecordResult stores backtest metrics on the variant
func (v *Variant) RecordResult(results *backtest.BacktestResults, testedAt time.Time) {
	if results == nil {
		return
	}
	v.WinRate = results.WinRate
	v.Trades = results.TotalTrades
	v.Sharpe = results.CalculateSharpeRatio()
	v.PnL = results.TotalPnL
	v.LastTestedAt = &testedAt
}

// Tested reports whether a result was ever recorded
func (v *Variant) Tested() bool {
	return v.LastTestedAt != nil
}
