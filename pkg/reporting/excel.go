package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ducminhle1904/solana-momentum-bot/internal/backtest"
	"github.com/xuri/excelize/v2"
)

const (
	tradesSheet  = "Trades"
	summarySheet = "Summary"
)

// ExcelStyles holds the cell style ids of one workbook
type ExcelStyles struct {
	HeaderStyle   int
	CurrencyStyle int
	PercentStyle  int
	PriceStyle    int
	GainStyle     int
	LossStyle     int
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "E0E0E0", Style: 1},
	{Type: "right", Color: "E0E0E0", Style: 1},
	{Type: "top", Color: "E0E0E0", Style: 1},
	{Type: "bottom", Color: "E0E0E0", Style: 1},
}

// WriteTradesXLSX writes a Trades sheet and a Summary sheet for results
func WriteTradesXLSX(results *backtest.BacktestResults, path string) error {
	if results == nil {
		return fmt.Errorf("no results to export")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	if err := fx.SetSheetName(fx.GetSheetName(0), tradesSheet); err != nil {
		return err
	}
	if _, err := fx.NewSheet(summarySheet); err != nil {
		return err
	}

	styles, err := createExcelStyles(fx)
	if err != nil {
		return err
	}
	if err := writeTradesSheet(fx, results, styles); err != nil {
		return err
	}
	if err := writeSummarySheet(fx, results, styles); err != nil {
		return err
	}
	return fx.SaveAs(path)
}

func createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	// 7 is the builtin $#,##0.00 format
	styles.CurrencyStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    7,
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    thinBorder,
	})
	if err != nil {
		return styles, err
	}

	// 10 is the builtin 0.00% format
	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    10,
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    thinBorder,
	})
	if err != nil {
		return styles, err
	}

	priceFmt := "0.00000000"
	styles.PriceStyle, err = fx.NewStyle(&excelize.Style{
		CustomNumFmt: &priceFmt,
		Alignment:    &excelize.Alignment{Horizontal: "right"},
		Border:       thinBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.GainStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 7,
		Font:   &excelize.Font{Color: "006100"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
		Border: thinBorder,
	})
	if err != nil {
		return styles, err
	}

	styles.LossStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt: 7,
		Font:   &excelize.Font{Color: "9C0006"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
		Border: thinBorder,
	})
	return styles, err
}

func writeTradesSheet(fx *excelize.File, results *backtest.BacktestResults, styles ExcelStyles) error {
	headers := []string{"#", "Entry Time", "Exit Time", "Entry Price", "Exit Price", "Stop", "Take Profit", "Quantity", "Fees", "PnL", "Return", "Exit"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := fx.SetCellValue(tradesSheet, cell, h); err != nil {
			return err
		}
	}
	if err := fx.SetCellStyle(tradesSheet, "A1", "L1", styles.HeaderStyle); err != nil {
		return err
	}

	for i, t := range results.Trades {
		row := i + 2
		ret := 0.0
		if notional := t.EntryPrice * t.Quantity; notional > 0 {
			ret = t.PnL / notional
		}
		values := []interface{}{
			i + 1,
			t.EntryTime.UTC().Format("2006-01-02 15:04:05"),
			t.ExitTime.UTC().Format("2006-01-02 15:04:05"),
			t.EntryPrice, t.ExitPrice, t.StopPrice, t.TakePrice,
			t.Quantity, t.Fees, t.PnL, ret, t.ExitType,
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := fx.SetSheetRow(tradesSheet, start, &values); err != nil {
			return err
		}

		pnlStyle := styles.GainStyle
		if t.PnL < 0 {
			pnlStyle = styles.LossStyle
		}
		cellStyles := []struct {
			from, to string
			style    int
		}{
			{"D", "G", styles.PriceStyle},
			{"I", "I", styles.CurrencyStyle},
			{"J", "J", pnlStyle},
			{"K", "K", styles.PercentStyle},
		}
		for _, cs := range cellStyles {
			if err := fx.SetCellStyle(tradesSheet, fmt.Sprintf("%s%d", cs.from, row), fmt.Sprintf("%s%d", cs.to, row), cs.style); err != nil {
				return err
			}
		}
	}

	if err := fx.SetColWidth(tradesSheet, "B", "C", 20); err != nil {
		return err
	}
	if err := fx.SetColWidth(tradesSheet, "D", "H", 14); err != nil {
		return err
	}
	return fx.SetPanes(tradesSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeSummarySheet(fx *excelize.File, results *backtest.BacktestResults, styles ExcelStyles) error {
	exits := results.CountByExit()
	rows := []struct {
		label string
		value interface{}
		style int
	}{
		{"Initial Capital", results.InitialCapital, styles.CurrencyStyle},
		{"Final Equity", results.FinalEquity, styles.CurrencyStyle},
		{"Total PnL", results.TotalPnL, styles.CurrencyStyle},
		{"Return", results.ReturnPercent() / 100, styles.PercentStyle},
		{"Max Drawdown", results.MaxDrawdown, styles.PercentStyle},
		{"Total Trades", results.TotalTrades, 0},
		{"Winning Trades", results.WinningTrades, 0},
		{"Losing Trades", results.LosingTrades, 0},
		{"Win Rate", results.WinRate, styles.PercentStyle},
		{"Take Profits", exits[backtest.ExitTakeProfit], 0},
		{"Stop Losses", exits[backtest.ExitStopLoss], 0},
		{"Sharpe", results.CalculateSharpeRatio(), 0},
		{"Profit Factor", formatRatio(results.CalculateProfitFactor()), 0},
	}

	if err := fx.SetCellValue(summarySheet, "A1", "Metric"); err != nil {
		return err
	}
	if err := fx.SetCellValue(summarySheet, "B1", "Value"); err != nil {
		return err
	}
	if err := fx.SetCellStyle(summarySheet, "A1", "B1", styles.HeaderStyle); err != nil {
		return err
	}

	for i, r := range rows {
		row := i + 2
		if err := fx.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), r.label); err != nil {
			return err
		}
		cell := fmt.Sprintf("B%d", row)
		if err := fx.SetCellValue(summarySheet, cell, r.value); err != nil {
			return err
		}
		if r.style != 0 {
			if err := fx.SetCellStyle(summarySheet, cell, cell, r.style); err != nil {
				return err
			}
		}
	}
	return fx.SetColWidth(summarySheet, "A", "B", 18)
}
