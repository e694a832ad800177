package backtest

import (
	"math"
)

// CalculateWinRate returns winning trades over total trades, 0 when there were none
func (b *BacktestResults) CalculateWinRate() float64 {
	if b.TotalTrades == 0 {
		return 0
	}
	return float64(b.WinningTrades) / float64(b.TotalTrades)
}

// CalculateSharpeRatio returns mean/stddev of per-trade returns net of fees.
// Risk-free rate is taken as 0.
func (b *BacktestResults) CalculateSharpeRatio() float64 {
	var returns []float64
	for _, trade := range b.Trades {
		notional := trade.EntryPrice * trade.Quantity
		if notional > 0 {
			returns = append(returns, trade.PnL/notional)
		}
	}
	if len(returns) < 2 {
		return 0
	}

	avgReturn := 0.0
	for _, r := range returns {
		avgReturn += r
	}
	avgReturn /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += math.Pow(r-avgReturn, 2)
	}
	variance /= float64(len(returns))
	stdDev := math.Sqrt(variance)

	if stdDev < 1e-10 {
		return 0
	}
	return avgReturn / stdDev
}

// CalculateProfitFactor returns gross profit over gross loss
func (b *BacktestResults) CalculateProfitFactor() float64 {
	totalProfit := 0.0
	totalLoss := 0.0
	for _, trade := range b.Trades {
		if trade.PnL > 0 {
			totalProfit += trade.PnL
		} else {
			totalLoss += math.Abs(trade.PnL)
		}
	}

	if totalLoss == 0 {
		if totalProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return totalProfit / totalLoss
}

// CountByExit tallies trades per exit label
func (b *BacktestResults) CountByExit() map[string]int {
	counts := make(map[string]int)
	for _, t := range b.Trades {
		counts[t.ExitType]++
	}
	return counts
}

// ReturnPercent is total PnL relative to initial capital, in percent
func (b *BacktestResults) ReturnPercent() float64 {
	if b.InitialCapital == 0 {
		return 0
	}
	return b.TotalPnL / b.InitialCapital * 100
}
