package backtest

import (
	"fmt"
	"strings"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/internal/indicators"
	"github.com/ducminhle1904/solana-momentum-bot/internal/strategy"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/types"
)

// ExitMode selects how exit levels are derived at entry
type ExitMode int

const (
	// ExitModeFixed uses the fixed stop/take band regardless of params
	ExitModeFixed ExitMode = iota
	// ExitModeStrategy derives take-profit from TPPercent and stop from StopATRMult x ATR
	ExitModeStrategy
)

func (m ExitMode) String() string {
	switch m {
	case ExitModeFixed:
		return "fixed"
	case ExitModeStrategy:
		return "strategy"
	default:
		return "unknown"
	}
}

// ParseExitMode maps "fixed" or "strategy" to an ExitMode
func ParseExitMode(name string) (ExitMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "fixed":
		return ExitModeFixed, nil
	case "strategy":
		return ExitModeStrategy, nil
	}
	return ExitModeFixed, fmt.Errorf("unknown exit mode %q", name)
}

// Exit labels
const (
	ExitStopLoss   = "SL"
	ExitTakeProfit = "TP"
)

const atrPeriod = 14

// Config holds the simulated execution model
type Config struct {
	InitialCapital   float64
	PositionFraction float64 // share of initial capital per trade, no compounding
	SlippageRate     float64
	SwapFeeRate      float64
	NetworkFee       float64 // flat per-trade fee in quote currency
	StopLossRate     float64 // fixed band: stop = entry * (1 - StopLossRate)
	TakeProfitRate   float64 // fixed band: tp = entry * (1 + TakeProfitRate)
	ExitMode         ExitMode
}

// DefaultConfig returns the standard simulation settings
func DefaultConfig() Config {
	return Config{
		InitialCapital:   1000,
		PositionFraction: 0.10,
		SlippageRate:     0.005,
		SwapFeeRate:      0.003,
		NetworkFee:       0.000005,
		StopLossRate:     0.15,
		TakeProfitRate:   0.30,
		ExitMode:         ExitModeFixed,
	}
}

// BacktestEngine replays candles through the momentum strategy with a
// single Flat -> Long -> Flat position.
type BacktestEngine struct {
	config Config
}

// BacktestResults holds the aggregate outcome of one run
type BacktestResults struct {
	TotalTrades    int
	WinningTrades  int
	LosingTrades   int
	WinRate        float64
	TotalPnL       float64
	InitialCapital float64
	FinalEquity    float64
	MaxDrawdown    float64
	Trades         []Trade
	// OpenTrade is the position still held when the candles ran out. It is
	// not counted in the totals.
	OpenTrade *Trade
}

// Trade is a completed round trip
type Trade struct {
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	StopPrice  float64
	TakePrice  float64
	Quantity   float64
	Fees       float64
	PnL        float64
	ExitType   string
}

// NewBacktestEngine creates an engine. Zero capital, fraction and band fields
// take the DefaultConfig value; slippage and fees are used as given, so a zero
// there simulates free execution.
func NewBacktestEngine(config Config) *BacktestEngine {
	def := DefaultConfig()
	if config.InitialCapital <= 0 {
		config.InitialCapital = def.InitialCapital
	}
	if config.PositionFraction <= 0 {
		config.PositionFraction = def.PositionFraction
	}
	if config.StopLossRate <= 0 {
		config.StopLossRate = def.StopLossRate
	}
	if config.TakeProfitRate <= 0 {
		config.TakeProfitRate = def.TakeProfitRate
	}
	return &BacktestEngine{config: config}
}

// Config returns the engine configuration
func (b *BacktestEngine) Config() Config {
	return b.config
}

// Run simulates params over candles. The entry candle never evaluates an
// exit and the exit candle never re-enters. Stop-loss wins when both levels
// are touched by the same candle.
func (b *BacktestEngine) Run(candles []types.OHLCV, params strategy.Params) *BacktestResults {
	results := &BacktestResults{
		InitialCapital: b.config.InitialCapital,
		FinalEquity:    b.config.InitialCapital,
		Trades:         make([]Trade, 0),
	}

	strat := strategy.NewMomentumStrategy(params)
	equity := b.config.InitialCapital
	peak := equity
	var open *Trade

	for i, candle := range candles {
		if open == nil {
			if strat.Evaluate(candles[:i+1]).Action != strategy.ActionBuy {
				continue
			}
			open = b.enter(candles[:i+1], params)
			continue
		}

		exitPrice, exitType, hit := checkExit(candle, open)
		if !hit {
			continue
		}

		open.ExitTime = candle.Timestamp
		open.ExitPrice = exitPrice
		open.ExitType = exitType
		open.PnL = (exitPrice-open.EntryPrice)*open.Quantity - open.Fees

		equity += open.PnL
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if dd := (peak - equity) / peak; dd > results.MaxDrawdown {
				results.MaxDrawdown = dd
			}
		}

		results.Trades = append(results.Trades, *open)
		open = nil
	}

	results.OpenTrade = open
	results.FinalEquity = equity
	results.TotalPnL = equity - b.config.InitialCapital
	results.TotalTrades = len(results.Trades)
	for _, t := range results.Trades {
		if t.PnL > 0 {
			results.WinningTrades++
		} else {
			results.LosingTrades++
		}
	}
	results.WinRate = results.CalculateWinRate()

	return results
}

// enter opens a long on the last candle of window
func (b *BacktestEngine) enter(window []types.OHLCV, params strategy.Params) *Trade {
	candle := window[len(window)-1]
	entry := candle.Close * (1 + b.config.SlippageRate)
	qty := b.config.InitialCapital * b.config.PositionFraction / entry
	stop, take := b.exitLevels(window, entry, params)

	return &Trade{
		EntryTime:  candle.Timestamp,
		EntryPrice: entry,
		StopPrice:  stop,
		TakePrice:  take,
		Quantity:   qty,
		Fees:       qty*entry*b.config.SwapFeeRate + b.config.NetworkFee,
	}
}

func (b *BacktestEngine) exitLevels(window []types.OHLCV, entry float64, params strategy.Params) (float64, float64) {
	stop := entry * (1 - b.config.StopLossRate)
	take := entry * (1 + b.config.TakeProfitRate)

	if b.config.ExitMode != ExitModeStrategy {
		return stop, take
	}

	if params.TPPercent > 0 {
		take = entry * (1 + params.TPPercent)
	}
	if atr, err := indicators.NewATR(atrPeriod).Calculate(window); err == nil && params.StopATRMult > 0 {
		if s := entry - params.StopATRMult*atr; s > 0 && s < entry {
			stop = s
		}
	}
	return stop, take
}

func checkExit(candle types.OHLCV, open *Trade) (float64, string, bool) {
	if candle.Low <= open.StopPrice {
		return open.StopPrice, ExitStopLoss, true
	}
	if candle.High >= open.TakePrice {
		return open.TakePrice, ExitTakeProfit, true
	}
	return 0, "", false
}
