package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/internal/backtest"
	boterrors "github.com/ducminhle1904/solana-momentum-bot/internal/errors"
	"github.com/ducminhle1904/solana-momentum-bot/internal/exchange"
	"github.com/ducminhle1904/solana-momentum-bot/internal/monitoring"
	"github.com/ducminhle1904/solana-momentum-bot/internal/notifications"
	"github.com/ducminhle1904/solana-momentum-bot/internal/portfolio"
	"github.com/ducminhle1904/solana-momentum-bot/internal/regime"
	"github.com/ducminhle1904/solana-momentum-bot/internal/scanner"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/optimization"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Loop names, also used as health and metric labels
const (
	LoopScan      = "scan"
	LoopCheck     = "position_check"
	LoopEvolution = "evolution"
	LoopHeartbeat = "heartbeat"
)

// OpportunitySource ranks tradable tokens
type OpportunitySource interface {
	Scan(ctx context.Context) ([]scanner.Opportunity, error)
}

// Recorder appends one JSON record per call
type Recorder interface {
	Append(record any) error
}

// Config holds the loop cadence and the sizing inputs of the bot
type Config struct {
	ScanInterval      time.Duration
	CheckInterval     time.Duration
	EvolutionInterval time.Duration
	HeartbeatInterval time.Duration

	ReferenceMint  string
	CandleInterval string
	CandleWindow   time.Duration

	Variants         int
	TopOpportunities int
	StartingCapital  float64
	// PortfolioStopLoss halts new entries once realized plus unrealized
	// PnL falls to -PortfolioStopLoss. Zero disables the gate.
	PortfolioStopLoss float64

	// StatusFile receives the status snapshot after each evolution and on shutdown
	StatusFile string
}

// Deps are the collaborators the loops drive. Leaderboard, Heartbeats and
// Health may be nil.
type Deps struct {
	Candles     exchange.CandleFeed
	Scanner     OpportunitySource
	Positions   *portfolio.Manager
	Regime      *regime.RegimeDetector
	Evolver     *optimization.Evolver
	Pool        *backtest.WorkerPool
	Leaderboard *optimization.Leaderboard
	Alerter     *notifications.Alerter
	Heartbeats  Recorder
	Health      *monitoring.HealthChecker
}

// Bot runs the scan, position check, evolution and heartbeat loops
type Bot struct {
	config Config
	deps   Deps
	logger zerolog.Logger
	now    func() time.Time
	errs   *boterrors.Tally

	mu          sync.Mutex
	running     bool
	halted      bool
	tradesDay   string
	tradesToday int
	startedAt   time.Time
}

// New validates deps and creates a bot
func New(config Config, deps Deps, logger zerolog.Logger) (*Bot, error) {
	switch {
	case deps.Candles == nil:
		return nil, errors.New("candle feed is required")
	case deps.Scanner == nil:
		return nil, errors.New("scanner is required")
	case deps.Positions == nil:
		return nil, errors.New("position manager is required")
	case deps.Regime == nil:
		return nil, errors.New("regime detector is required")
	case deps.Evolver == nil || deps.Pool == nil:
		return nil, errors.New("evolver and worker pool are required")
	}
	if deps.Alerter == nil {
		deps.Alerter = notifications.NewAlerter(nil, logger)
	}
	if deps.Health == nil {
		deps.Health = monitoring.NewHealthChecker()
	}
	if config.TopOpportunities <= 0 {
		config.TopOpportunities = 3
	}
	if config.Variants <= 0 {
		config.Variants = 10
	}

	return &Bot{
		config:    config,
		deps:      deps,
		logger:    logger.With().Str("component", "bot").Logger(),
		now:       time.Now,
		errs:      boterrors.NewTally(),
		startedAt: time.Now(),
	}, nil
}

// Run sends the startup alert and blocks running every loop until ctx is
// cancelled. A failing cycle is logged and the loop carries on.
func (b *Bot) Run(ctx context.Context, startup notifications.StartupInfo) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return errors.New("bot is already running")
	}
	b.running = true
	b.startedAt = b.now()
	b.mu.Unlock()

	b.logger.Info().
		Dur("scan", b.config.ScanInterval).
		Dur("check", b.config.CheckInterval).
		Dur("evolution", b.config.EvolutionInterval).
		Dur("heartbeat", b.config.HeartbeatInterval).
		Msg("Bot starting")
	b.deps.Alerter.Startup(startup)

	loops := []struct {
		name     string
		interval time.Duration
		cycle    func(context.Context) error
	}{
		{LoopScan, b.config.ScanInterval, b.ScanCycle},
		{LoopCheck, b.config.CheckInterval, b.CheckCycle},
		{LoopEvolution, b.config.EvolutionInterval, b.EvolutionCycle},
		{LoopHeartbeat, b.config.HeartbeatInterval, b.HeartbeatCycle},
	}

	for _, l := range loops {
		if l.interval <= 0 {
			b.setRunning(false)
			return fmt.Errorf("loop %s needs a positive interval", l.name)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range loops {
		b.deps.Health.Register(l.name, l.interval)
		g.Go(func() error {
			b.runLoop(gctx, l.name, l.interval, l.cycle)
			return nil
		})
	}
	err := g.Wait()
	b.setRunning(false)

	b.saveStatus()
	b.logger.Info().Msg("Bot stopped")
	return err
}

func (b *Bot) setRunning(running bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.running = running
}

// runLoop runs cycle immediately and then once per interval until ctx ends
func (b *Bot) runLoop(ctx context.Context, name string, interval time.Duration, cycle func(context.Context) error) {
	log := b.logger.With().Str("loop", name).Logger()
	log.Info().Dur("interval", interval).Msg("Loop started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		b.runCycle(ctx, log, name, cycle)

		select {
		case <-ctx.Done():
			log.Info().Msg("Loop stopped")
			return
		case <-ticker.C:
		}
	}
}

func (b *Bot) runCycle(ctx context.Context, log zerolog.Logger, name string, cycle func(context.Context) error) {
	if ctx.Err() != nil {
		return
	}

	err := cycle(ctx)
	if ctx.Err() != nil {
		return
	}

	b.deps.Health.RecordCycle(name, err)
	monitoring.RecordCycle(name, err)
	if err == nil {
		return
	}

	botErr := b.recordError(err, name)
	log.Error().Err(err).Str("category", string(botErr.Category)).Msg("Cycle failed")
}

func (b *Bot) recordError(err error, operation string) *boterrors.BotError {
	botErr := categorize(err, operation)
	b.errs.Record(botErr)
	monitoring.RecordError(string(botErr.Category))
	return botErr
}

// countTrade bumps the per-UTC-day trade counter
func (b *Bot) countTrade() {
	b.mu.Lock()
	defer b.mu.Unlock()
	day := b.now().UTC().Format("2006-01-02")
	if day != b.tradesDay {
		b.tradesDay = day
		b.tradesToday = 0
	}
	b.tradesToday++
}

// TradesToday returns the trades executed since UTC midnight
func (b *Bot) TradesToday() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tradesDay != b.now().UTC().Format("2006-01-02") {
		return 0
	}
	return b.tradesToday
}

// Halted reports whether the portfolio stop has blocked new entries
func (b *Bot) Halted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.halted
}
