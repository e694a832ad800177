package reporting

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/internal/backtest"
	"github.com/ducminhle1904/solana-momentum-bot/internal/portfolio"
	"github.com/ducminhle1904/solana-momentum-bot/internal/regime"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/optimization"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const timeLayout = "2006-01-02 15:04"

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

// PrintResults renders the aggregate figures of one backtest run
func PrintResults(w io.Writer, label string, results *backtest.BacktestResults) {
	if results == nil {
		fmt.Fprintln(w, "no backtest results")
		return
	}

	title := "BACKTEST RESULTS"
	if label != "" {
		title += " - " + label
	}
	t := newTable(w, title)

	exits := results.CountByExit()
	t.AppendRows([]table.Row{
		{"Initial Capital", fmt.Sprintf("$%.2f", results.InitialCapital)},
		{"Final Equity", fmt.Sprintf("$%.2f", results.FinalEquity)},
		{"Total PnL", fmt.Sprintf("$%.2f", results.TotalPnL)},
		{"Return", fmt.Sprintf("%.2f%%", results.ReturnPercent())},
		{"Max Drawdown", fmt.Sprintf("%.2f%%", results.MaxDrawdown*100)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Trades", results.TotalTrades},
		{"Win Rate", fmt.Sprintf("%.1f%%", results.WinRate*100)},
		{"Wins / Losses", fmt.Sprintf("%d / %d", results.WinningTrades, results.LosingTrades)},
		{"Take Profits", exits[backtest.ExitTakeProfit]},
		{"Stop Losses", exits[backtest.ExitStopLoss]},
		{"Sharpe", fmt.Sprintf("%.2f", results.CalculateSharpeRatio())},
		{"Profit Factor", formatRatio(results.CalculateProfitFactor())},
	})
	if open := results.OpenTrade; open != nil {
		t.AppendSeparator()
		t.AppendRow(table.Row{"Open Position", fmt.Sprintf("entry %.6f at %s", open.EntryPrice, open.EntryTime.UTC().Format(timeLayout))})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 16, Align: text.AlignLeft},
		{Number: 2, WidthMin: 20, Align: text.AlignRight},
	})
	t.Render()
}

// PrintTrades renders completed trades; limit <= 0 prints all of them
func PrintTrades(w io.Writer, results *backtest.BacktestResults, limit int) {
	if results == nil || len(results.Trades) == 0 {
		fmt.Fprintln(w, "no trades")
		return
	}

	trades := results.Trades
	if limit > 0 && len(trades) > limit {
		trades = trades[len(trades)-limit:]
	}

	t := newTable(w, "TRADES")
	t.AppendHeader(table.Row{"#", "Entry", "Exit", "Entry Price", "Exit Price", "Qty", "PnL", "Exit"})
	offset := len(results.Trades) - len(trades)
	for i, tr := range trades {
		t.AppendRow(table.Row{
			offset + i + 1,
			tr.EntryTime.UTC().Format(timeLayout),
			tr.ExitTime.UTC().Format(timeLayout),
			fmt.Sprintf("%.6f", tr.EntryPrice),
			fmt.Sprintf("%.6f", tr.ExitPrice),
			fmt.Sprintf("%.4f", tr.Quantity),
			fmt.Sprintf("%+.2f", tr.PnL),
			tr.ExitType,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 7, Align: text.AlignRight},
	})
	t.Render()
}

// PrintVariants renders one generation of evolved variants, best first as given
func PrintVariants(w io.Writer, variants []optimization.Variant) {
	if len(variants) == 0 {
		fmt.Fprintln(w, "no variants tested")
		return
	}
	t := newTable(w, "VARIANTS")
	t.AppendHeader(table.Row{"ID", "Win Rate", "Trades", "Sharpe", "PnL", "Params"})
	for _, v := range variants {
		t.AppendRow(table.Row{
			v.ID,
			fmt.Sprintf("%.1f%%", v.WinRate*100),
			v.Trades,
			fmt.Sprintf("%.2f", v.Sharpe),
			fmt.Sprintf("%+.2f", v.PnL),
			v.Params.String(),
		})
	}
	t.Render()
}

// PrintLeaderboard renders the persisted top variants
func PrintLeaderboard(w io.Writer, entries []optimization.LeaderboardEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "leaderboard is empty")
		return
	}
	t := newTable(w, "LEADERBOARD")
	t.AppendHeader(table.Row{"Rank", "ID", "Win Rate", "Trades", "Sharpe", "Updated"})
	for i, e := range entries {
		t.AppendRow(table.Row{
			i + 1,
			e.ID,
			fmt.Sprintf("%.1f%%", e.WinRate*100),
			e.Trades,
			fmt.Sprintf("%.2f", e.Sharpe),
			e.UpdatedAt.UTC().Format(timeLayout),
		})
	}
	t.Render()
}

// PrintEvolverStatus renders the current base strategy and progress counters
func PrintEvolverStatus(w io.Writer, status optimization.Status) {
	t := newTable(w, "EVOLUTION STATUS")
	p := status.Base
	t.AppendRows([]table.Row{
		{"Generation", status.Generation},
		{"Variants Tested", status.VariantsTested},
		{"Best Win Rate", fmt.Sprintf("%.1f%%", status.BestWinRate*100)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"RSI Period", p.RSIPeriod},
		{"RSI Band", fmt.Sprintf("%.1f - %.1f", p.RSILow, p.RSIHigh)},
		{"Volume Mult", fmt.Sprintf("%.2fx over %d", p.VolMult, p.VolLookback)},
		{"Stop ATR Mult", fmt.Sprintf("%.2f", p.StopATRMult)},
		{"Take Profit", fmt.Sprintf("%.1f%%", p.TPPercent*100)},
	})
	t.Render()
}

// PrintPositions renders the open book with its aggregate line
func PrintPositions(w io.Writer, positions []portfolio.Position, summary portfolio.Summary, now time.Time) {
	t := newTable(w, "POSITIONS")
	t.AppendHeader(table.Row{"Symbol", "Entry", "Current", "Size", "PnL", "PnL %", "Age"})
	for _, p := range positions {
		t.AppendRow(table.Row{
			p.Symbol,
			fmt.Sprintf("%.6f", p.EntryPrice),
			fmt.Sprintf("%.6f", p.CurrentPrice),
			fmt.Sprintf("$%.2f", p.SizeQuote),
			fmt.Sprintf("%+.2f", portfolio.UnrealizedPnL(p)),
			fmt.Sprintf("%+.1f%%", portfolio.UnrealizedPnLPercent(p)),
			portfolio.Age(p, now).Truncate(time.Minute).String(),
		})
	}
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d open", summary.NumPositions),
		"", "",
		fmt.Sprintf("$%.2f", summary.TotalInvested),
		fmt.Sprintf("%+.2f", summary.TotalPnL),
		fmt.Sprintf("%+.1f%%", summary.PnLPercent),
		fmt.Sprintf("realized %+.2f", summary.RealizedPnL),
	})
	t.Render()
}

// PrintRegime renders a classification with its sub-scores and preset
func PrintRegime(w io.Writer, signal regime.RegimeSignal) {
	preset := regime.PresetFor(signal.Type)
	t := newTable(w, "MARKET REGIME")
	t.AppendRows([]table.Row{
		{"Regime", signal.Type.String()},
		{"Bullish Score", fmt.Sprintf("%.3f", signal.BullishScore)},
		{"Confidence", fmt.Sprintf("%.3f", signal.Confidence)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Trend", fmt.Sprintf("%.3f", signal.Signals.Trend)},
		{"Volatility", fmt.Sprintf("%.3f", signal.Signals.Volatility)},
		{"Momentum", fmt.Sprintf("%.3f", signal.Signals.Momentum)},
		{"Volume", fmt.Sprintf("%.3f", signal.Signals.Volume)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Bias", string(preset.Bias)},
		{"RSI Band", fmt.Sprintf("%.0f - %.0f", preset.RSILow, preset.RSIHigh)},
		{"Volume Mult", fmt.Sprintf("%.2fx", preset.VolMult)},
		{"Position Size", fmt.Sprintf("%.0f%%", preset.PositionSize*100)},
	})
	t.Render()
}

func formatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", v)
}
