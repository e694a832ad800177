package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	boterrors "github.com/ducminhle1904/solana-momentum-bot/internal/errors"
	"github.com/ducminhle1904/solana-momentum-bot/internal/monitoring"
	"github.com/ducminhle1904/solana-momentum-bot/internal/portfolio"
	"github.com/ducminhle1904/solana-momentum-bot/internal/regime"
	"github.com/ducminhle1904/solana-momentum-bot/internal/strategy"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/optimization"
)

func categorize(err error, operation string) *boterrors.BotError {
	return boterrors.CategorizeError(err, "bot", operation)
}

// ScanCycle classifies the regime on the reference candles, then opens
// positions in the top ranked opportunities whose own candles fire a BUY
// under the regime-adjusted parameters.
func (b *Bot) ScanCycle(ctx context.Context) error {
	reference, err := b.deps.Candles.Candles(ctx, b.config.ReferenceMint, b.config.CandleInterval, b.config.CandleWindow)
	if err != nil {
		return fmt.Errorf("reference candles: %w", err)
	}

	signal := b.deps.Regime.DetectRegime(reference)
	monitoring.SetRegime(signal.Type.String())

	if signal.Type == regime.RegimeUnknown {
		b.logger.Debug().Int("candles", len(reference)).Msg("Regime unknown, no entries")
		return nil
	}

	preset := b.deps.Regime.StrategyForRegime()
	quote := preset.PositionQuote(b.config.StartingCapital)
	if quote <= 0 {
		b.logger.Debug().Str("regime", signal.Type.String()).Msg("No entries in this regime")
		return nil
	}
	if b.portfolioStopHit() {
		return nil
	}

	params := preset.Apply(b.deps.Evolver.Base())

	opportunities, err := b.deps.Scanner.Scan(ctx)
	if err != nil {
		return err
	}
	monitoring.SetScanOpportunities(len(opportunities))
	if len(opportunities) > b.config.TopOpportunities {
		opportunities = opportunities[:b.config.TopOpportunities]
	}

	for _, opp := range opportunities {
		if ctx.Err() != nil {
			return nil
		}
		if b.deps.Positions.Count() >= b.deps.Positions.Config().MaxPositions {
			break
		}
		if !b.deps.Positions.CanOpen(opp.Mint) {
			continue
		}

		log := b.logger.With().Str("symbol", opp.Symbol).Str("mint", opp.Mint).Logger()

		candles, err := b.deps.Candles.Candles(ctx, opp.Mint, b.config.CandleInterval, b.config.CandleWindow)
		if err != nil {
			log.Warn().Err(err).Msg("Candles unavailable, skipping")
			continue
		}
		decision := strategy.NewMomentumStrategy(params).Evaluate(candles)
		if decision.Action != strategy.ActionBuy {
			log.Debug().Str("reason", decision.Reason).Msg("No entry signal")
			continue
		}

		position, err := b.deps.Positions.OpenPosition(ctx, opp.Mint, opp.Symbol, opp.PriceUSD, quote)
		switch {
		case errors.Is(err, boterrors.ErrMaxPositions):
			return nil
		case err != nil:
			log.Warn().Err(err).Msg("Entry failed")
			b.recordError(err, "open_position")
			continue
		}

		b.countTrade()
		monitoring.RecordTrade(portfolio.ActionOpen, portfolio.ReasonEntry)
		monitoring.SetOpenPositions(b.deps.Positions.Count())
		b.deps.Alerter.PositionOpened(position.Symbol, position.EntryPrice, position.SizeQuote, position.StopLossPrice, position.TakeProfitPrice)
		log.Info().
			Str("regime", signal.Type.String()).
			Str("signal", decision.Reason).
			Float64("size", position.SizeQuote).
			Msg("Entered position")
	}
	return nil
}

// portfolioStopHit evaluates the portfolio-wide loss limit. The first breach
// sends one alert; entries stay blocked for the rest of the run.
func (b *Bot) portfolioStopHit() bool {
	limit := b.config.PortfolioStopLoss
	if limit <= 0 {
		return false
	}

	b.mu.Lock()
	if b.halted {
		b.mu.Unlock()
		return true
	}
	b.mu.Unlock()

	summary := b.deps.Positions.Summary()
	total := summary.RealizedPnL + summary.TotalPnL
	if total > -limit {
		return false
	}

	b.mu.Lock()
	b.halted = true
	b.mu.Unlock()

	b.logger.Warn().Float64("pnl", total).Float64("limit", limit).Msg("Portfolio stop loss reached, halting entries")
	b.deps.Alerter.Error(fmt.Sprintf("Portfolio stop loss reached: PnL %.2f USDC (limit -%.2f). New entries halted.", total, limit))
	return true
}

// CheckCycle marks every open position and closes those that crossed a level
func (b *Bot) CheckCycle(ctx context.Context) error {
	actions, err := b.deps.Positions.CheckPositions(ctx)
	if err != nil {
		return err
	}

	var failed int
	for _, a := range actions {
		if a.Err != nil {
			failed++
			b.logger.Warn().Err(a.Err).Str("symbol", a.Symbol).Str("reason", a.Reason).Msg("Exit failed, position kept open")
			continue
		}
		b.countTrade()
		monitoring.RecordTrade(portfolio.ActionClose, a.Reason)

		pnlPercent := 0.0
		if spent := a.Received - a.PnL; spent > 0 {
			pnlPercent = a.PnL / spent * 100
		}
		b.deps.Alerter.PositionClosed(a.Symbol, a.PnL, pnlPercent, a.Reason)
	}

	summary := b.deps.Positions.Summary()
	monitoring.SetOpenPositions(summary.NumPositions)
	monitoring.SetRealizedPnL(summary.RealizedPnL)

	if failed > 0 {
		return fmt.Errorf("%d of %d exits failed", failed, len(actions))
	}
	return nil
}

// EvolutionCycle runs one generation of variants on the reference candles
// and records the tested variants on the leaderboard.
func (b *Bot) EvolutionCycle(ctx context.Context) error {
	candles, err := b.deps.Candles.Candles(ctx, b.config.ReferenceMint, b.config.CandleInterval, b.config.CandleWindow)
	if err != nil {
		return fmt.Errorf("reference candles: %w", err)
	}

	start := time.Now()
	best, tested, improved, err := b.deps.Evolver.RunGeneration(ctx, b.deps.Pool, candles, b.config.Variants)
	monitoring.ObserveBacktest(time.Since(start))
	if errors.Is(err, optimization.ErrNoResults) {
		b.logger.Warn().Int("candles", len(candles)).Msg("No variant could be backtested")
		return nil
	}
	if err != nil {
		return err
	}

	if b.deps.Leaderboard != nil {
		if err := b.deps.Leaderboard.Record(tested); err != nil {
			b.logger.Warn().Err(err).Msg("Failed to save leaderboard")
		}
	}

	status := b.deps.Evolver.Status()
	monitoring.SetBestWinRate(status.BestWinRate)
	b.logger.Info().
		Int("generation", status.Generation).
		Int("tested", len(tested)).
		Float64("best_win_rate", best.WinRate).
		Bool("improved", improved).
		Msg("Evolution complete")

	b.saveStatus()
	return nil
}

// HeartbeatCycle sends the status heartbeat and journals the status snapshot
func (b *Bot) HeartbeatCycle(ctx context.Context) error {
	status := b.Status()
	health := b.deps.Health.Status()

	b.mu.Lock()
	uptime := b.now().Sub(b.startedAt)
	b.mu.Unlock()

	b.deps.Alerter.Heartbeat(uptime.Hours(), status.TradesToday, health.Status)
	if status.OpenPositions > 0 {
		summary := b.deps.Positions.Summary()
		b.deps.Alerter.PortfolioStatus(summary.TotalCurrent, summary.TotalPnL, summary.PnLPercent, summary.NumPositions)
	}

	if b.deps.Heartbeats == nil {
		return nil
	}
	if err := b.deps.Heartbeats.Append(status); err != nil {
		return boterrors.NewPersistenceError("bot", "heartbeat", err)
	}
	return nil
}
