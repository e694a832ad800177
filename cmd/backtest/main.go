package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ducminhle1904/solana-momentum-bot/cmd/common"
	"github.com/ducminhle1904/solana-momentum-bot/internal/backtest"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/reporting"
	"github.com/rs/zerolog"
)

const appName = "backtest"

// options are the parsed command line settings
type options struct {
	DataFile    string
	Symbol      string
	Interval    string
	Period      string
	Capital     float64
	Fraction    float64
	ExitMode    string
	ParamsFile  string
	Evolve      int
	Variants    int
	Workers     int
	Seed        int64
	Trades      int
	OutDir      string
	ConsoleOnly bool
	PrintJSON   bool
}

func main() {
	fs := flag.NewFlagSet(appName, flag.ExitOnError)
	var opts options
	fs.StringVar(&opts.DataFile, "data", "", "Candle CSV file (timestamp,open,high,low,close,volume)")
	fs.StringVar(&opts.Symbol, "symbol", "", "Symbol label for reports (default: from file name)")
	fs.StringVar(&opts.Interval, "interval", "", "Candle interval label (default: from file name)")
	fs.StringVar(&opts.Period, "period", "", "Limit data to a trailing window (e.g. 7d, 30d, 168h)")
	fs.Float64Var(&opts.Capital, "capital", 1000, "Initial capital in quote currency")
	fs.Float64Var(&opts.Fraction, "fraction", 0.10, "Share of initial capital per trade")
	fs.StringVar(&opts.ExitMode, "exit-mode", "fixed", "Exit levels: fixed (15%/30% band) or strategy (ATR stop, params take-profit)")
	fs.StringVar(&opts.ParamsFile, "params", "", "Start from a best.json written by a previous run")
	fs.IntVar(&opts.Evolve, "evolve", 0, "Evolution generations to run before the final backtest")
	fs.IntVar(&opts.Variants, "variants", 10, "Variants per generation")
	fs.IntVar(&opts.Workers, "workers", 0, "Backtest workers (0 = one per CPU)")
	fs.Int64Var(&opts.Seed, "seed", 0, "Mutation seed (0 = clock)")
	fs.IntVar(&opts.Trades, "trades", 10, "Recent trades to list")
	fs.StringVar(&opts.OutDir, "out", "", "Output directory (default: results/<SYMBOL>_<interval>)")
	fs.BoolVar(&opts.ConsoleOnly, "console-only", false, "Only display results in console, do not write files")
	fs.BoolVar(&opts.PrintJSON, "json", false, "Print the final parameters as JSON")
	flags := common.RegisterCommonFlags(fs)
	_ = fs.Parse(os.Args[1:])

	if *flags.Version {
		common.PrintVersion(os.Stdout, appName)
		return
	}

	if err := opts.validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		os.Exit(2)
	}

	log, err := common.NewCLILogger(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, log, os.Stdout); err != nil {
		log.Error().Err(err).Msg("Backtest failed")
		stop()
		os.Exit(1)
	}
}

func (o *options) validate() error {
	return common.NewFlagValidator().
		ValidateFile("data", o.DataFile, true).
		ValidateFile("params", o.ParamsFile, false).
		ValidateFloat("capital", o.Capital, 1, 1e12).
		ValidateFloat("fraction", o.Fraction, 0.0001, 1).
		ValidateChoice("exit-mode", strings.ToLower(o.ExitMode), []string{"fixed", "strategy"}).
		ValidateInt("evolve", o.Evolve, 0, 10000).
		ValidateInt("variants", o.Variants, 1, 1000).
		ValidateInt("workers", o.Workers, 0, 256).
		GetError()
}

// resolve fills the labels and output directory from the data file name
func (o *options) resolve() {
	base := strings.TrimSuffix(filepath.Base(o.DataFile), filepath.Ext(o.DataFile))
	if o.Interval == "" {
		o.Interval = reporting.ExtractIntervalFromPath(o.DataFile)
	}
	if o.Symbol == "" {
		if parts := strings.FieldsFunc(base, func(r rune) bool { return r == '_' || r == '-' }); len(parts) > 0 {
			o.Symbol = parts[0]
		}
	}
	if o.OutDir == "" {
		o.OutDir = reporting.DefaultOutputDir(o.Symbol, o.Interval)
	}
}

func run(ctx context.Context, opts options, log zerolog.Logger, out io.Writer) error {
	opts.resolve()

	candles, err := common.LoadCandles(opts.DataFile, opts.Period, log)
	if err != nil {
		return err
	}
	log.Info().Str("file", opts.DataFile).Int("candles", len(candles)).Msg("Loaded candles")

	mode, err := backtest.ParseExitMode(opts.ExitMode)
	if err != nil {
		return err
	}
	engineCfg := backtest.DefaultConfig()
	engineCfg.InitialCapital = opts.Capital
	engineCfg.PositionFraction = opts.Fraction
	engineCfg.ExitMode = mode
	engine := backtest.NewBacktestEngine(engineCfg)

	best, err := startingParams(opts)
	if err != nil {
		return err
	}

	if opts.Evolve > 0 {
		best, err = evolve(ctx, opts, engine, candles, best, log, out)
		if err != nil {
			return err
		}
	}

	results := engine.Run(candles, best.Params)
	best.WinRate = results.WinRate
	best.Trades = results.TotalTrades

	label := fmt.Sprintf("%s %s (%s exits)", strings.ToUpper(opts.Symbol), opts.Interval, mode)
	reporting.PrintResults(out, label, results)
	reporting.PrintTrades(out, results, opts.Trades)

	if opts.PrintJSON {
		if err := reporting.PrintBestParamsJSON(out, best); err != nil {
			return err
		}
	}

	if opts.ConsoleOnly {
		return nil
	}
	return writeOutputs(opts.OutDir, results, best, log)
}

func startingParams(opts options) (reporting.BestParams, error) {
	if opts.ParamsFile == "" {
		return defaultBest(opts), nil
	}
	best, err := reporting.ReadBestParamsJSON(opts.ParamsFile)
	if err != nil {
		return reporting.BestParams{}, fmt.Errorf("load params: %w", err)
	}
	best.Source = filepath.Base(opts.DataFile)
	return best, nil
}

func writeOutputs(dir string, results *backtest.BacktestResults, best reporting.BestParams, log zerolog.Logger) error {
	outputs := []struct {
		path  string
		write func(string) error
	}{
		{filepath.Join(dir, "trades.xlsx"), func(p string) error { return reporting.WriteTradesXLSX(results, p) }},
		{filepath.Join(dir, "trades.csv"), func(p string) error { return reporting.WriteTradesCSV(results, p) }},
		{filepath.Join(dir, "best.json"), func(p string) error { return reporting.WriteBestParamsJSON(best, p) }},
	}
	for _, o := range outputs {
		if err := o.write(o.path); err != nil {
			return fmt.Errorf("write %s: %w", o.path, err)
		}
		log.Info().Str("path", o.path).Msg("Saved")
	}
	return nil
}
