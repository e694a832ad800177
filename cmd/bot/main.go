package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/cmd/common"
	"github.com/ducminhle1904/solana-momentum-bot/internal/backtest"
	"github.com/ducminhle1904/solana-momentum-bot/internal/bot"
	"github.com/ducminhle1904/solana-momentum-bot/internal/config"
	boterrors "github.com/ducminhle1904/solana-momentum-bot/internal/errors"
	"github.com/ducminhle1904/solana-momentum-bot/internal/exchange"
	"github.com/ducminhle1904/solana-momentum-bot/internal/exchange/birdeye"
	"github.com/ducminhle1904/solana-momentum-bot/internal/exchange/jupiter"
	"github.com/ducminhle1904/solana-momentum-bot/internal/logger"
	"github.com/ducminhle1904/solana-momentum-bot/internal/monitoring"
	"github.com/ducminhle1904/solana-momentum-bot/internal/notifications"
	"github.com/ducminhle1904/solana-momentum-bot/internal/portfolio"
	"github.com/ducminhle1904/solana-momentum-bot/internal/portfolio/storage"
	"github.com/ducminhle1904/solana-momentum-bot/internal/regime"
	"github.com/ducminhle1904/solana-momentum-bot/internal/scanner"
	"github.com/ducminhle1904/solana-momentum-bot/internal/state"
	"github.com/ducminhle1904/solana-momentum-bot/internal/strategy"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/data"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/httpclient"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/optimization"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
)

const appName = "solana-momentum-bot"

func main() {
	fs := flag.NewFlagSet(appName, flag.ExitOnError)
	configFile := fs.String("config", "", "YAML configuration file (optional)")
	flags := common.RegisterCommonFlags(fs)
	_ = fs.Parse(os.Args[1:])

	if *flags.Version {
		common.PrintVersion(os.Stdout, appName)
		return
	}

	v := common.NewFlagValidator().ValidateFile("config", *configFile, false)
	if v.HasErrors() {
		v.PrintErrors(os.Stderr)
		os.Exit(2)
	}

	cfg, err := config.Load(*configFile, *flags.EnvFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *flags.Verbose {
		cfg.Log.Level = "debug"
	}

	log, closer, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, os.Stdout); err != nil {
		log.Error().Err(err).Msg("Bot exited with error")
		closer.Close()
		os.Exit(1)
	}
}

// app is the wired bot plus the resources main must release
type app struct {
	bot     *bot.Bot
	startup notifications.StartupInfo
	store   *storage.FileStorage
	pool    *backtest.WorkerPool
	server  *http.Server
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, out io.Writer) error {
	a, err := build(cfg, log)
	if err != nil {
		return err
	}

	if err := a.store.Lock(); err != nil {
		return fmt.Errorf("state lock: %w", err)
	}
	defer func() {
		if err := a.store.Unlock(); err != nil {
			log.Warn().Err(err).Msg("Failed to release state lock")
		}
	}()

	if a.server != nil {
		go func() {
			log.Info().Str("addr", a.server.Addr).Msg("Metrics server listening")
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = a.server.Shutdown(shutdownCtx)
		}()
	}

	printBanner(out, cfg)
	return a.bot.Run(ctx, a.startup)
}

// build wires every collaborator from cfg
func build(cfg *config.Config, log zerolog.Logger) (*app, error) {
	if !cfg.DryRun {
		return nil, boterrors.NewCredentialsError("main", "signer", "live trading needs a wallet signer; run with dry_run enabled")
	}

	httpOpts := httpclient.Options{
		Timeout:          cfg.API.Timeout,
		RequestsPerSec:   cfg.API.RequestsPerSec,
		MaxRetries:       cfg.API.MaxRetries,
		BreakerThreshold: cfg.API.BreakerThreshold,
		BreakerCooldown:  cfg.API.BreakerCooldown,
	}
	jupiterHTTP := httpclient.New(httpOpts)
	scannerHTTP := httpclient.New(httpOpts)
	birdeyeOpts := httpOpts
	birdeyeOpts.Headers = birdeye.Headers(cfg.API.BirdeyeAPIKey)
	birdeyeHTTP := httpclient.New(birdeyeOpts)

	wallet := cfg.Wallet.PublicKey
	if wallet == "" {
		wallet = "dry-run"
	}
	var signer exchange.Signer = exchange.NewDryRunSigner(wallet)

	jup := jupiter.NewClient(jupiterHTTP, cfg.API.JupiterQuoteURL, cfg.API.JupiterPriceURL, log)
	swaps := jupiter.NewSwapExecutor(jup, signer, nil, log)
	swaps.SetOnlyDirectRoutes(cfg.Trading.OnlyDirectRoutes)

	candles := data.NewCachedFeed(birdeye.NewClient(birdeyeHTTP, cfg.API.BirdeyeURL), cfg.Strategy.CandleCacheTTL)

	scan := scanner.New(scannerHTTP, cfg.API.DexScreenerURL, scanner.Filters{
		MinLiquidityUSD:  cfg.Scanner.MinLiquidityUSD,
		MinTokenAgeHours: cfg.Scanner.MinTokenAgeHours,
		MinChange4h:      scanner.DefaultFilters().MinChange4h,
	}, log)

	store := storage.NewFileStorage(cfg.Storage.StateFile, cfg.Storage.TradesLog, log)
	positions := portfolio.NewManager(portfolio.Config{
		MaxPositionSize:   cfg.Trading.MaxPositionSize,
		MaxPositions:      cfg.Trading.MaxPositions,
		StopLossPercent:   cfg.Trading.StopLossPercent,
		TakeProfitPercent: cfg.Trading.TakeProfitPercent,
		SlippageBps:       cfg.Trading.SlippageBps,
		QuoteMint:         exchange.USDCMint,
	}, swaps, jup, store, log)

	var regimeLog regime.ChangeRecorder
	if cfg.Storage.RegimeLog != "" {
		regimeLog = state.NewJournal(cfg.Storage.RegimeLog)
	}
	detector := regime.NewRegimeDetector(regimeLog, log)

	var evoLog optimization.EvolutionLog
	if cfg.Storage.EvolutionLog != "" {
		evoLog = optimization.NewMarkdownLog(cfg.Storage.EvolutionLog)
	}
	evolver := optimization.NewEvolver(strategy.DefaultParams(), nil, evoLog, log)

	engineCfg := backtest.DefaultConfig()
	engineCfg.InitialCapital = cfg.Trading.StartingCapital
	pool := backtest.NewWorkerPool(cfg.Strategy.Workers, backtest.NewBacktestEngine(engineCfg))

	var leaderboard *optimization.Leaderboard
	if cfg.Storage.Leaderboard != "" {
		leaderboard = optimization.NewLeaderboard(cfg.Storage.Leaderboard, cfg.Strategy.LeaderboardMax)
	}

	var heartbeats bot.Recorder
	if cfg.Storage.HeartbeatLog != "" {
		heartbeats = state.NewJournal(cfg.Storage.HeartbeatLog)
	}

	notifier, err := newNotifier(cfg.Telegram, log)
	if err != nil {
		return nil, err
	}

	health := monitoring.NewHealthChecker()
	var server *http.Server
	if cfg.Monitoring.Enabled {
		server = monitoring.NewServer(cfg.Monitoring.Addr, health)
	}

	b, err := bot.New(bot.Config{
		ScanInterval:      cfg.Intervals.Scan,
		CheckInterval:     cfg.Intervals.PositionCheck,
		EvolutionInterval: cfg.Intervals.Evolution,
		HeartbeatInterval: cfg.Intervals.Heartbeat,
		ReferenceMint:     cfg.Strategy.ReferenceMint,
		CandleInterval:    cfg.Strategy.CandleInterval,
		CandleWindow:      cfg.Strategy.CandleWindow,
		Variants:          cfg.Strategy.Variants,
		TopOpportunities:  cfg.Trading.TopOpportunities,
		StartingCapital:   cfg.Trading.StartingCapital,
		PortfolioStopLoss: cfg.Trading.PortfolioStopLoss,
		StatusFile:        cfg.Storage.StatusFile,
	}, bot.Deps{
		Candles:     candles,
		Scanner:     scan,
		Positions:   positions,
		Regime:      detector,
		Evolver:     evolver,
		Pool:        pool,
		Leaderboard: leaderboard,
		Alerter:     notifications.NewAlerter(notifier, log),
		Heartbeats:  heartbeats,
		Health:      health,
	}, log)
	if err != nil {
		return nil, err
	}

	return &app{
		bot:   b,
		store: store,
		pool:  pool,
		startup: notifications.StartupInfo{
			Wallet:          signer.PublicKey(),
			Capital:         cfg.Trading.StartingCapital,
			MaxPositions:    cfg.Trading.MaxPositions,
			StopLossPercent: cfg.Trading.StopLossPercent,
			TakeProfit:      cfg.Trading.TakeProfitPercent,
			DryRun:          cfg.DryRun,
		},
		server: server,
	}, nil
}

func newNotifier(cfg config.TelegramConfig, log zerolog.Logger) (notifications.Notifier, error) {
	if !cfg.Enabled() {
		log.Info().Msg("Telegram not configured, alerts are logged only")
		return notifications.NewNopNotifier(log), nil
	}
	tg, err := notifications.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, "")
	if err != nil {
		return nil, boterrors.NewCredentialsError("main", "telegram", err.Error())
	}
	return tg, nil
}

func printBanner(w io.Writer, cfg *config.Config) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(fmt.Sprintf("%s v%s", common.ProjectName, common.ProjectVersion))

	mode := "LIVE"
	if cfg.DryRun {
		mode = "dry run"
	}
	tw.AppendRows([]table.Row{
		{"Mode", mode},
		{"Environment", cfg.Environment},
		{"Capital", fmt.Sprintf("$%.2f", cfg.Trading.StartingCapital)},
		{"Max positions", fmt.Sprintf("%d x $%.2f", cfg.Trading.MaxPositions, cfg.Trading.MaxPositionSize)},
		{"Exit band", fmt.Sprintf("%.0f%% / +%.0f%%", cfg.Trading.StopLossPercent, cfg.Trading.TakeProfitPercent)},
		{"Portfolio stop", fmt.Sprintf("-$%.2f", cfg.Trading.PortfolioStopLoss)},
		{"Candles", fmt.Sprintf("%s over %s", cfg.Strategy.CandleInterval, cfg.Strategy.CandleWindow)},
		{"Intervals", fmt.Sprintf("scan %s, check %s, evolve %s", cfg.Intervals.Scan, cfg.Intervals.PositionCheck, cfg.Intervals.Evolution)},
		{"Telegram", cfg.Telegram.Enabled()},
	})
	tw.Render()
}
