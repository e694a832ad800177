package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/cmd/common"
	"github.com/ducminhle1904/solana-momentum-bot/internal/regime"
	"github.com/ducminhle1904/solana-momentum-bot/internal/state"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/reporting"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/types"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
)

const appName = "regime-analyzer"

// AnalysisResult is the classification at one candle
type AnalysisResult struct {
	Timestamp    time.Time         `json:"timestamp"`
	Price        float64           `json:"price"`
	Regime       regime.RegimeType `json:"regime"`
	BullishScore float64           `json:"bullish_score"`
	Confidence   float64           `json:"confidence"`
	Signals      regime.Signals    `json:"signals"`
	Transition   bool              `json:"transition"`
}

// AnalysisSummary aggregates the results of one run
type AnalysisSummary struct {
	TotalPoints       int                           `json:"total_points"`
	Distribution      map[regime.RegimeType]int     `json:"distribution"`
	Percentages       map[regime.RegimeType]float64 `json:"percentages"`
	Transitions       int                           `json:"transitions"`
	TransitionsPerDay float64                       `json:"transitions_per_day"`
	AverageConfidence float64                       `json:"average_confidence"`
	Stability         float64                       `json:"stability"` // % of points without a transition
	From              time.Time                     `json:"from"`
	To                time.Time                     `json:"to"`
}

func main() {
	fs := flag.NewFlagSet(appName, flag.ExitOnError)
	csvFile := fs.String("data", "", "Candle CSV file (timestamp,open,high,low,close,volume)")
	outputDir := fs.String("output", "regime_analysis", "Output directory for results")
	period := fs.String("period", "", "Limit data to a trailing window (e.g. 30d)")
	step := fs.Int("step", 1, "Classify every Nth candle")
	consoleOnly := fs.Bool("console-only", false, "Only display results in console, do not write files")
	flags := common.RegisterCommonFlags(fs)
	_ = fs.Parse(os.Args[1:])

	if *flags.Version {
		common.PrintVersion(os.Stdout, appName)
		return
	}

	v := common.NewFlagValidator().
		ValidateFile("data", *csvFile, true).
		ValidateInt("step", *step, 1, 10000)
	if v.HasErrors() {
		v.PrintErrors(os.Stderr)
		os.Exit(2)
	}

	log, err := common.NewCLILogger(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	dir := *outputDir
	if *consoleOnly {
		dir = ""
	}
	if err := run(*csvFile, *period, *step, dir, log, os.Stdout); err != nil {
		log.Error().Err(err).Msg("Regime analysis failed")
		os.Exit(1)
	}
}

// run analyzes path and writes results to outputDir unless it is empty
func run(path, period string, step int, outputDir string, log zerolog.Logger, out io.Writer) error {
	data, err := common.LoadCandles(path, period, log)
	if err != nil {
		return err
	}
	if len(data) < regime.MinCandles {
		return fmt.Errorf("need at least %d candles for regime analysis, got %d", regime.MinCandles, len(data))
	}
	log.Info().Str("file", path).Int("candles", len(data)).Msg("Loaded candles")

	started := time.Now()
	results, summary := analyze(data, step)
	log.Info().Dur("took", time.Since(started)).Int("points", summary.TotalPoints).Msg("Analysis complete")

	printSummary(out, summary)
	last := results[len(results)-1]
	reporting.PrintRegime(out, regime.RegimeSignal{
		Type:         last.Regime,
		BullishScore: last.BullishScore,
		Confidence:   last.Confidence,
		Signals:      last.Signals,
		Timestamp:    last.Timestamp,
	})

	if outputDir == "" {
		return nil
	}
	if err := state.WriteJSONAtomic(filepath.Join(outputDir, "regime_analysis_detailed.json"), results); err != nil {
		return err
	}
	if err := state.WriteJSONAtomic(filepath.Join(outputDir, "regime_analysis_summary.json"), summary); err != nil {
		return err
	}
	if err := saveResultsCSV(results, filepath.Join(outputDir, "regime_analysis.csv")); err != nil {
		return err
	}
	log.Info().Str("dir", outputDir).Msg("Results saved")
	return nil
}

// analyze classifies every step-th candle from the first full window on
func analyze(data []types.OHLCV, step int) ([]AnalysisResult, *AnalysisSummary) {
	if step < 1 {
		step = 1
	}
	summary := &AnalysisSummary{
		Distribution: make(map[regime.RegimeType]int),
		Percentages:  make(map[regime.RegimeType]float64),
	}

	var results []AnalysisResult
	var totalConfidence float64
	for i := regime.MinCandles - 1; i < len(data); i += step {
		signal := regime.Classify(data[:i+1])
		r := AnalysisResult{
			Timestamp:    data[i].Timestamp,
			Price:        data[i].Close,
			Regime:       signal.Type,
			BullishScore: signal.BullishScore,
			Confidence:   signal.Confidence,
			Signals:      signal.Signals,
		}
		if n := len(results); n > 0 && results[n-1].Regime != r.Regime {
			r.Transition = true
			summary.Transitions++
		}
		results = append(results, r)
		summary.Distribution[r.Regime]++
		totalConfidence += r.Confidence
	}

	summary.TotalPoints = len(results)
	if summary.TotalPoints == 0 {
		return results, summary
	}
	summary.From = results[0].Timestamp
	summary.To = results[len(results)-1].Timestamp
	summary.AverageConfidence = totalConfidence / float64(summary.TotalPoints)
	for r, count := range summary.Distribution {
		summary.Percentages[r] = float64(count) / float64(summary.TotalPoints) * 100
	}
	summary.Stability = float64(summary.TotalPoints-summary.Transitions) / float64(summary.TotalPoints) * 100
	if days := summary.To.Sub(summary.From).Hours() / 24; days > 0 {
		summary.TransitionsPerDay = float64(summary.Transitions) / days
	}
	return results, summary
}

func printSummary(w io.Writer, summary *AnalysisSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("REGIME ANALYSIS SUMMARY")
	t.AppendRows([]table.Row{
		{"Points", summary.TotalPoints},
		{"Range", fmt.Sprintf("%s - %s", summary.From.Format("2006-01-02 15:04"), summary.To.Format("2006-01-02 15:04"))},
		{"Avg confidence", fmt.Sprintf("%.2f", summary.AverageConfidence)},
		{"Transitions", fmt.Sprintf("%d (%.2f/day)", summary.Transitions, summary.TransitionsPerDay)},
		{"Stability", fmt.Sprintf("%.1f%%", summary.Stability)},
	})
	t.AppendSeparator()

	regimes := make([]regime.RegimeType, 0, len(summary.Distribution))
	for r := range summary.Distribution {
		regimes = append(regimes, r)
	}
	sort.Slice(regimes, func(i, j int) bool { return regimes[i] < regimes[j] })
	for _, r := range regimes {
		t.AppendRow(table.Row{r.String(), fmt.Sprintf("%d (%.1f%%)", summary.Distribution[r], summary.Percentages[r])})
	}
	t.Render()
}

func saveResultsCSV(results []AnalysisResult, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"timestamp", "price", "regime", "bullish_score", "confidence", "trend", "volatility", "momentum", "volume", "transition"}); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(r.Price, 'f', -1, 64),
			r.Regime.String(),
			strconv.FormatFloat(r.BullishScore, 'f', 4, 64),
			strconv.FormatFloat(r.Confidence, 'f', 4, 64),
			strconv.FormatFloat(r.Signals.Trend, 'f', 4, 64),
			strconv.FormatFloat(r.Signals.Volatility, 'f', 4, 64),
			strconv.FormatFloat(r.Signals.Momentum, 'f', 4, 64),
			strconv.FormatFloat(r.Signals.Volume, 'f', 4, 64),
			strconv.FormatBool(r.Transition),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}
