package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/internal/strategy"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// generateSetup returns n candles whose last one triggers a BUY with default params
func generateSetup(n int) []types.OHLCV {
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
			Open: price, High: price, Low: price, Close: price,
			Volume:    1e6,
			Timestamp: testStart.Add(time.Duration(i) * time.Minute),
		}
	}
	data[n-1].Volume = 1.5e6
	return data
}

func nextCandle(data []types.OHLCV, low, high float64) types.OHLCV {
	last := data[len(data)-1]
	return types.OHLCV{
		Open: last.Close, High: high, Low: low, Close: last.Close,
		Volume:    1e6,
		Timestamp: last.Timestamp.Add(time.Minute),
	}
}

// TestNewBacktestEngine_Defaults tests that missing config fields default
func TestNewBacktestEngine_Defaults(t *testing.T) {
	engine := NewBacktestEngine(Config{})

	cfg := engine.Config()
	assert.Equal(t, 1000.0, cfg.InitialCapital)
	assert.Equal(t, 0.10, cfg.PositionFraction)
	assert.Equal(t, 0.15, cfg.StopLossRate)
	assert.Equal(t, 0.30, cfg.TakeProfitRate)
	assert.Zero(t, cfg.SlippageRate)
	assert.Zero(t, cfg.SwapFeeRate)
	assert.Zero(t, cfg.NetworkFee)
}

// TestBacktestEngine_Run_EmptyData tests running backtest with empty data
func TestBacktestEngine_Run_EmptyData(t *testing.T) {
	results := NewBacktestEngine(DefaultConfig()).Run(nil, strategy.DefaultParams())

	require.NotNil(t, results)
	assert.Equal(t, 0, results.TotalTrades)
	assert.Equal(t, 0.0, results.WinRate)
	assert.Equal(t, 1000.0, results.FinalEquity)
	assert.Equal(t, 0.0, results.TotalPnL)
	assert.Nil(t, results.OpenTrade)
}

// TestBacktestEngine_Run_StopLoss tests the entry/stop-loss round trip
func TestBacktestEngine_Run_StopLoss(t *testing.T) {
	data := generateSetup(30)
	entry := data[29].Close * 1.005
	data = append(data, nextCandle(data, entry*0.80, data[29].Close))

	results := NewBacktestEngine(DefaultConfig()).Run(data, strategy.DefaultParams())

	require.Equal(t, 1, results.TotalTrades)
	trade := results.Trades[0]
	assert.Equal(t, ExitStopLoss, trade.ExitType)
	assert.InDelta(t, entry, trade.EntryPrice, 1e-9)
	assert.InDelta(t, entry*0.85, trade.ExitPrice, 1e-9)
	assert.Less(t, trade.PnL, 0.0)

	qty := 100.0 / entry
	fees := qty*entry*0.003 + 0.000005
	assert.InDelta(t, qty, trade.Quantity, 1e-12)
	assert.InDelta(t, fees, trade.Fees, 1e-12)
	assert.InDelta(t, (entry*0.85-entry)*qty-fees, trade.PnL, 1e-9)

	assert.Equal(t, 0, results.WinningTrades)
	assert.Equal(t, 0.0, results.WinRate)
	assert.InDelta(t, 1000+trade.PnL, results.FinalEquity, 1e-9)
	assert.InDelta(t, trade.PnL, results.TotalPnL, 1e-9)
}

// TestBacktestEngine_Run_TakeProfit tests a winning exit
func TestBacktestEngine_Run_TakeProfit(t *testing.T) {
	data := generateSetup(30)
	entry := data[29].Close * 1.005
	data = append(data, nextCandle(data, entry, entry*1.31))

	results := NewBacktestEngine(DefaultConfig()).Run(data, strategy.DefaultParams())

	require.Equal(t, 1, results.TotalTrades)
	assert.Equal(t, ExitTakeProfit, results.Trades[0].ExitType)
	assert.InDelta(t, entry*1.30, results.Trades[0].ExitPrice, 1e-9)
	assert.Greater(t, results.Trades[0].PnL, 0.0)
	assert.Equal(t, 1, results.WinningTrades)
	assert.Equal(t, 1.0, results.WinRate)
}

// TestBacktestEngine_Run_StopLossWinsTie tests SL precedence when both levels are touched
func TestBacktestEngine_Run_StopLossWinsTie(t *testing.T) {
	engine := NewBacktestEngine(DefaultConfig())
	data := generateSetup(30)

	pending := engine.Run(data, strategy.DefaultParams()).OpenTrade
	require.NotNil(t, pending)
	data = append(data, nextCandle(data, pending.StopPrice, pending.TakePrice))

	results := engine.Run(data, strategy.DefaultParams())

	require.Equal(t, 1, results.TotalTrades)
	assert.Equal(t, ExitStopLoss, results.Trades[0].ExitType)
	assert.Equal(t, pending.StopPrice, results.Trades[0].ExitPrice)
}

// TestBacktestEngine_Run_NoExitOnEntryCandle tests that the entry candle's own range is ignored
func TestBacktestEngine_Run_NoExitOnEntryCandle(t *testing.T) {
	data := generateSetup(30)
	data[29].Low = 1 // would breach any stop if exits were evaluated on entry

	results := NewBacktestEngine(DefaultConfig()).Run(data, strategy.DefaultParams())

	assert.Equal(t, 0, results.TotalTrades)
	require.NotNil(t, results.OpenTrade)
	assert.Equal(t, data[29].Timestamp, results.OpenTrade.EntryTime)
}

// TestBacktestEngine_Run_SinglePosition tests that entries are ignored while long
func TestBacktestEngine_Run_SinglePosition(t *testing.T) {
	data := generateSetup(30)
	entry := data[29].Close * 1.005
	// keep surging while the position is open, without touching either level
	for i := 0; i < 20; i++ {
		c := nextCandle(data, entry*0.95, entry*1.05)
		c.Volume = 5e6
		data = append(data, c)
	}
	data = append(data, nextCandle(data, entry*0.5, entry))

	results := NewBacktestEngine(DefaultConfig()).Run(data, strategy.DefaultParams())

	assert.Equal(t, 1, results.TotalTrades)
	assert.Equal(t, data[29].Timestamp, results.Trades[0].EntryTime)
}

// TestBacktestEngine_Run_TradesNeverOverlap tests the Flat/Long state machine over a long series
func TestBacktestEngine_Run_TradesNeverOverlap(t *testing.T) {
	var data []types.OHLCV
	for round := 0; round < 5; round++ {
		setup := generateSetup(30)
		for i := range setup {
			setup[i].Timestamp = testStart.Add(time.Duration(len(data)+i) * time.Minute)
		}
		data = append(data, setup...)
		entry := setup[29].Close * 1.005
		if round%2 == 0 {
			data = append(data, nextCandle(data, entry*0.5, entry))
		} else {
			data = append(data, nextCandle(data, entry, entry*2))
		}
	}

	results := NewBacktestEngine(DefaultConfig()).Run(data, strategy.DefaultParams())

	require.GreaterOrEqual(t, results.TotalTrades, 2)
	for i := 1; i < len(results.Trades); i++ {
		assert.True(t, results.Trades[i].EntryTime.After(results.Trades[i-1].ExitTime))
	}
	for _, tr := range results.Trades {
		assert.True(t, tr.ExitTime.After(tr.EntryTime))
	}
	assert.Equal(t, results.WinningTrades+results.LosingTrades, results.TotalTrades)
}

// TestBacktestEngine_Run_StrategyExitMode tests the tunable exit band
func TestBacktestEngine_Run_StrategyExitMode(t *testing.T) {
	data := generateSetup(30)
	entry := data[29].Close * 1.005
	data = append(data, nextCandle(data, entry, entry*1.10))

	params := strategy.DefaultParams()
	params.TPPercent = 0.10

	cfg := DefaultConfig()
	cfg.ExitMode = ExitModeStrategy
	results := NewBacktestEngine(cfg).Run(data, params)

	require.Equal(t, 1, results.TotalTrades)
	trade := results.Trades[0]
	assert.Equal(t, ExitTakeProfit, trade.ExitType)
	assert.InDelta(t, entry*1.10, trade.TakePrice, 1e-9)
	// ATR of the +3/-2 series is 2.5
	assert.InDelta(t, entry-1.85*2.5, trade.StopPrice, 1e-9)

	fixed := NewBacktestEngine(DefaultConfig()).Run(data, params)
	assert.Equal(t, 0, fixed.TotalTrades, "fixed band ignores TPPercent")
}

// TestWorkerPool_RunBatch tests parallel variant backtests keep job order
func TestWorkerPool_RunBatch(t *testing.T) {
	data := generateSetup(30)
	entry := data[29].Close * 1.005
	data = append(data, nextCandle(data, entry, entry*1.31))

	jobs := []BacktestJob{
		{ID: "a", Params: strategy.DefaultParams()},
		{ID: "b", Params: strategy.DefaultParams().WithEntryBand(80, 90, 1.38)},
		{ID: "c", Params: strategy.Params{RSIPeriod: 1}},
	}

	pool := NewWorkerPool(2, NewBacktestEngine(DefaultConfig()))
	results := pool.RunBatch(context.Background(), data, jobs)

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, 1, results[0].Results.TotalTrades)
	assert.Equal(t, "b", results[1].ID)
	assert.Equal(t, 0, results[1].Results.TotalTrades)
	assert.Error(t, results[2].Error)
	assert.Nil(t, results[2].Results)
}

// TestWorkerPool_RunBatchCancelled tests that a cancelled context marks unstarted jobs
func TestWorkerPool_RunBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []BacktestJob{{ID: "a", Params: strategy.DefaultParams()}}
	results := NewWorkerPool(1, NewBacktestEngine(DefaultConfig())).RunBatch(ctx, generateSetup(30), jobs)

	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
}

// TestParseExitMode tests exit mode names
func TestParseExitMode(t *testing.T) {
	mode, err := ParseExitMode("Strategy")
	require.NoError(t, err)
	assert.Equal(t, ExitModeStrategy, mode)

	mode, err = ParseExitMode("")
	require.NoError(t, err)
	assert.Equal(t, ExitModeFixed, mode)

	_, err = ParseExitMode("trailing")
	assert.Error(t, err)
}
