package reporting

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/internal/backtest"
	"github.com/ducminhle1904/solana-momentum-bot/internal/portfolio"
	"github.com/ducminhle1904/solana-momentum-bot/internal/regime"
	"github.com/ducminhle1904/solana-momentum-bot/internal/strategy"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/optimization"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleResults() *backtest.BacktestResults {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &backtest.BacktestResults{
		TotalTrades:    2,
		WinningTrades:  1,
		LosingTrades:   1,
		WinRate:        0.5,
		TotalPnL:       14.5,
		InitialCapital: 1000,
		FinalEquity:    1014.5,
		MaxDrawdown:    0.02,
		Trades: []backtest.Trade{
			{EntryTime: start, ExitTime: start.Add(time.Hour), EntryPrice: 1, ExitPrice: 1.3, StopPrice: 0.85, TakePrice: 1.3, Quantity: 100, Fees: 0.5, PnL: 29.5, ExitType: backtest.ExitTakeProfit},
			{EntryTime: start.Add(2 * time.Hour), ExitTime: start.Add(3 * time.Hour), EntryPrice: 1, ExitPrice: 0.85, StopPrice: 0.85, TakePrice: 1.3, Quantity: 100, PnL: -15, ExitType: backtest.ExitStopLoss},
		},
	}
}

// TestPrintResults tests the summary table contents
func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	PrintResults(&buf, "BONK 15m", sampleResults())

	out := buf.String()
	assert.Contains(t, out, "BACKTEST RESULTS")
	assert.Contains(t, strings.ToUpper(out), "BONK 15M")
	assert.Contains(t, out, "$1014.50")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "1 / 1")
}

// TestPrintResultsNil tests the nil guard
func TestPrintResultsNil(t *testing.T) {
	var buf bytes.Buffer
	PrintResults(&buf, "", nil)
	assert.Equal(t, "no backtest results\n", buf.String())
}

// TestPrintTradesLimit tests that only the most recent trades are shown
func TestPrintTradesLimit(t *testing.T) {
	var buf bytes.Buffer
	PrintTrades(&buf, sampleResults(), 1)

	out := buf.String()
	assert.Contains(t, out, "-15.00")
	assert.NotContains(t, out, "+29.50")
}

// TestPrintVariantsAndLeaderboard tests the evolution tables
func TestPrintVariantsAndLeaderboard(t *testing.T) {
	var buf bytes.Buffer
	PrintVariants(&buf, []optimization.Variant{
		{ID: "v_1_0", Params: strategy.DefaultParams(), WinRate: 0.62, Trades: 13},
	})
	assert.Contains(t, buf.String(), "v_1_0")
	assert.Contains(t, buf.String(), "62.0%")

	buf.Reset()
	PrintLeaderboard(&buf, nil)
	assert.Equal(t, "leaderboard is empty\n", buf.String())

	buf.Reset()
	PrintEvolverStatus(&buf, optimization.Status{Base: strategy.DefaultParams(), BestWinRate: 0.55, Generation: 3})
	assert.Contains(t, buf.String(), "57.0 - 63.0")
}

// TestPrintPositions tests the positions footer
func TestPrintPositions(t *testing.T) {
	now := time.Unix(1_700_003_600, 0)
	positions := []portfolio.Position{
		{Mint: "m1", Symbol: "BONK", EntryPrice: 1, EntryTime: 1_700_000_000, SizeQuote: 50, BaseAmount: 50, CurrentPrice: 1.1},
	}
	var buf bytes.Buffer
	PrintPositions(&buf, positions, portfolio.Summary{NumPositions: 1, TotalInvested: 50, TotalPnL: 5, PnLPercent: 10}, now)

	out := buf.String()
	assert.Contains(t, out, "BONK")
	assert.Contains(t, out, "+10.0%")
	assert.Contains(t, out, "1h0m0s")
}

// TestPrintRegime tests that the preset for the regime is shown
func TestPrintRegime(t *testing.T) {
	var buf bytes.Buffer
	PrintRegime(&buf, regime.RegimeSignal{Type: regime.RegimeBull, BullishScore: 0.7})

	out := buf.String()
	assert.Contains(t, out, "bull")
	assert.Contains(t, out, "55 - 65")
	assert.Contains(t, out, "15%")
}

// TestWriteTradesXLSX tests both sheets of the workbook
func TestWriteTradesXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "trades.xlsx")
	require.NoError(t, WriteTradesXLSX(sampleResults(), path))

	fx, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer fx.Close()

	rows, err := fx.GetRows(tradesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Entry Time", rows[0][1])
	assert.Equal(t, "TP", rows[1][11])
	assert.Equal(t, "SL", rows[2][11])

	summary, err := fx.GetRows(summarySheet)
	require.NoError(t, err)
	assert.Equal(t, "Initial Capital", summary[1][0])
}

// TestWriteTradesCSV tests the CSV export and the xlsx delegation
func TestWriteTradesCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trades.csv")
	require.NoError(t, WriteTradesCSV(sampleResults(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "1.3", records[1][4])
	assert.Equal(t, "-15.0000", records[2][9])

	xlsx := filepath.Join(dir, "trades.xlsx")
	require.NoError(t, WriteTradesCSV(sampleResults(), xlsx))
	assert.FileExists(t, xlsx)
}

// TestBestParamsJSON tests the JSON export round trip
func TestBestParamsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "best.json")
	best := BestParams{Params: strategy.DefaultParams(), WinRate: 0.6, Trades: 10, Source: "BONK_15m.csv"}
	require.NoError(t, WriteBestParamsJSON(best, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rsi_low": 57`)

	loaded, err := ReadBestParamsJSON(path)
	require.NoError(t, err)
	assert.Equal(t, best, loaded)

	var buf bytes.Buffer
	require.NoError(t, PrintBestParamsJSON(&buf, best))
	assert.Contains(t, buf.String(), `"win_rate": 0.6`)
}

// TestPaths tests output directory and interval extraction
func TestPaths(t *testing.T) {
	assert.Equal(t, filepath.Join("results", "BONK_15m"), DefaultOutputDir(" bonk ", "15M"))
	assert.Equal(t, filepath.Join("results", "UNKNOWN_unknown"), DefaultOutputDir("", ""))

	assert.Equal(t, "15m", ExtractIntervalFromPath("data/BONK_15m.csv"))
	assert.Equal(t, "1h", ExtractIntervalFromPath("sol-1H.csv"))
	assert.Equal(t, "", ExtractIntervalFromPath("candles.csv"))
}
