package portfolio

import (
	"time"
)

// Position is an open long in one token, sized in the quote currency.
// Derived figures are computed by the free functions below.
type Position struct {
	Mint            string  `json:"mint"`
	Symbol          string  `json:"symbol"`
	EntryPrice      float64 `json:"entry_price_usd"`
	EntryTime       float64 `json:"entry_time"` // unix seconds
	SizeQuote       float64 `json:"position_size_usdc"`
	BaseAmount      float64 `json:"token_amount"`
	StopLossPrice   float64 `json:"stop_loss_price"`
	TakeProfitPrice float64 `json:"take_profit_price"`
	CurrentPrice    float64 `json:"current_price_usd"`
	RealizedPnL     float64 `json:"realized_pnl_usd"`
}

// CurrentValue is the marked value of the held tokens
func CurrentValue(p Position) float64 {
	return p.BaseAmount * p.CurrentPrice
}

// UnrealizedPnL is the marked value less the quote spent
func UnrealizedPnL(p Position) float64 {
	return CurrentValue(p) - p.SizeQuote
}

// UnrealizedPnLPercent is UnrealizedPnL relative to the quote spent
func UnrealizedPnLPercent(p Position) float64 {
	if p.SizeQuote == 0 {
		return 0
	}
	return UnrealizedPnL(p) / p.SizeQuote * 100
}

// Age is how long the position has been open at now
func Age(p Position, now time.Time) time.Duration {
	return now.Sub(EntryTime(p))
}

// EntryTime converts the stored epoch seconds back to a time
func EntryTime(p Position) time.Time {
	sec := int64(p.EntryTime)
	nsec := int64((p.EntryTime - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// ShouldStopLoss reports whether the last price is at or below the stop
func ShouldStopLoss(p Position) bool {
	return p.CurrentPrice > 0 && p.CurrentPrice <= p.StopLossPrice
}

// ShouldTakeProfit reports whether the last price is at or above the target
func ShouldTakeProfit(p Position) bool {
	return p.CurrentPrice > 0 && p.CurrentPrice >= p.TakeProfitPrice
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
