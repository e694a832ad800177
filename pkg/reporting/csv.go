package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ducminhle1904/solana-momentum-bot/internal/backtest"
)

// WriteTradesCSV writes one row per completed trade. A .xlsx path is
// delegated to WriteTradesXLSX.
func WriteTradesCSV(results *backtest.BacktestResults, path string) error {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return WriteTradesXLSX(results, path)
	}
	if results == nil {
		return fmt.Errorf("no results to export")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"Trade", "Entry_Time", "Exit_Time", "Entry_Price", "Exit_Price",
		"Stop_Price", "Take_Price", "Quantity", "Fees", "PnL", "Exit",
	}); err != nil {
		return err
	}

	float := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for i, t := range results.Trades {
		row := []string{
			strconv.Itoa(i + 1),
			t.EntryTime.UTC().Format("2006-01-02 15:04:05"),
			t.ExitTime.UTC().Format("2006-01-02 15:04:05"),
			float(t.EntryPrice),
			float(t.ExitPrice),
			float(t.StopPrice),
			float(t.TakePrice),
			float(t.Quantity),
			fmt.Sprintf("%.6f", t.Fees),
			fmt.Sprintf("%.4f", t.PnL),
			t.ExitType,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
