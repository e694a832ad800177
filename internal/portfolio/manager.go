package portfolio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	boterrors "github.com/ducminhle1904/solana-momentum-bot/internal/errors"
	"github.com/ducminhle1904/solana-momentum-bot/internal/exchange"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config holds the position sizing and exit rules
type Config struct {
	MaxPositionSize   float64 // quote currency per position
	MaxPositions      int
	StopLossPercent   float64 // negative, e.g. -15
	TakeProfitPercent float64 // positive, e.g. 30
	SlippageBps       int
	QuoteMint         string
}

// DefaultConfig returns the standard risk settings
func DefaultConfig() Config {
	return Config{
		MaxPositionSize:   50,
		MaxPositions:      3,
		StopLossPercent:   -15,
		TakeProfitPercent: 30,
		SlippageBps:       50,
		QuoteMint:         exchange.USDCMint,
	}
}

// Action describes a position closed by CheckPositions
type Action struct {
	Mint     string
	Symbol   string
	Reason   string
	Price    float64
	Received float64
	PnL      float64
	Err      error
}

// Summary is an aggregate view of the open book
type Summary struct {
	NumPositions  int     `json:"num_positions"`
	TotalInvested float64 `json:"total_invested"`
	TotalCurrent  float64 `json:"total_current"`
	TotalPnL      float64 `json:"total_pnl"`
	PnLPercent    float64 `json:"pnl_percent"`
	RealizedPnL   float64 `json:"realized_pnl"`
}

// Manager owns the open positions. Every mutation runs under one mutex, so
// scan-triggered opens and check-triggered closes never interleave.
type Manager struct {
	mu        sync.Mutex
	config    Config
	positions map[string]Position
	realized  float64

	swaps  exchange.SwapExecutor
	prices exchange.PriceFeed
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewManager creates a manager and restores the last snapshot from store.
// A missing or unreadable snapshot starts an empty book.
func NewManager(config Config, swaps exchange.SwapExecutor, prices exchange.PriceFeed, store Store, logger zerolog.Logger) *Manager {
	if config.QuoteMint == "" {
		config.QuoteMint = exchange.USDCMint
	}
	if store == nil {
		store = NewMemoryStore()
	}

	m := &Manager{
		config:    config,
		positions: make(map[string]Position),
		swaps:     swaps,
		prices:    prices,
		store:     store,
		logger:    logger.With().Str("component", "portfolio").Logger(),
		now:       time.Now,
	}
	m.restore()
	return m
}

func (m *Manager) restore() {
	snapshot, err := m.store.LoadSnapshot()
	switch {
	case errors.Is(err, ErrNoSnapshot):
		m.logger.Info().Msg("No existing state file found, starting with clean state")
		return
	case err != nil:
		m.logger.Warn().Err(err).Msg("Failed to load position snapshot, starting with clean state")
		return
	}

	for mint, p := range snapshot.Positions {
		if p.Mint == "" {
			p.Mint = mint
		}
		m.positions[mint] = p
	}
	m.logger.Info().Int("positions", len(m.positions)).Msg("Restored positions from snapshot")
}

// Config returns the manager configuration
func (m *Manager) Config() Config {
	return m.config
}

// Positions returns copies of the open positions sorted by mint
func (m *Manager) Positions() []Position {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Position, 0, len(m.positions))
	for _, id := range m.sortedMints() {
		out = append(out, m.positions[id])
	}
	return out
}

// Position returns the open position for mint
func (m *Manager) Position(mint string) (Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.positions[mint]
	return p, ok
}

// Count returns the number of open positions
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.positions)
}

// CanOpen reports whether a new position for mint would pass the book limits
func (m *Manager) CanOpen(mint string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.positions[mint]
	return !exists && len(m.positions) < m.config.MaxPositions
}

// OpenPosition buys mint with up to desiredQuote of the quote currency.
// The position is recorded only after a positive fill.
func (m *Manager) OpenPosition(ctx context.Context, mint, symbol string, price, desiredQuote float64) (Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	log := m.logger.With().Str("mint", mint).Str("symbol", symbol).Logger()

	if _, exists := m.positions[mint]; exists {
		log.Warn().Msg("Position already open, skipping")
		return Position{}, boterrors.ErrPositionExists
	}
	if len(m.positions) >= m.config.MaxPositions {
		log.Warn().Int("max", m.config.MaxPositions).Msg("Max positions reached, skipping")
		return Position{}, boterrors.ErrMaxPositions
	}
	if price <= 0 || math.IsNaN(price) {
		return Position{}, fmt.Errorf("invalid entry price %v for %s", price, mint)
	}

	size := math.Min(desiredQuote, m.config.MaxPositionSize)
	if size <= 0 {
		return Position{}, fmt.Errorf("invalid position size %v for %s", size, mint)
	}

	filled, err := m.swap(ctx, m.config.QuoteMint, mint, size)
	if err != nil {
		log.Warn().Err(err).Float64("size", size).Msg("Entry swap failed")
		return Position{}, err
	}

	now := m.now()
	position := Position{
		Mint:            mint,
		Symbol:          symbol,
		EntryPrice:      price,
		EntryTime:       epochSeconds(now),
		SizeQuote:       size,
		BaseAmount:      filled,
		StopLossPrice:   price * (1 + m.config.StopLossPercent/100),
		TakeProfitPrice: price * (1 + m.config.TakeProfitPercent/100),
		CurrentPrice:    price,
	}
	m.positions[mint] = position

	m.appendTrade(TradeRecord{
		Timestamp:    epochSeconds(now),
		Action:       ActionOpen,
		Mint:         mint,
		Symbol:       symbol,
		EntryPrice:   price,
		CurrentPrice: price,
		SizeQuote:    size,
		BaseAmount:   filled,
		Reason:       ReasonEntry,
	})
	m.persist()

	log.Info().
		Float64("price", price).
		Float64("size", size).
		Float64("tokens", filled).
		Float64("stop_loss", position.StopLossPrice).
		Float64("take_profit", position.TakeProfitPrice).
		Msg("Position opened")

	return position, nil
}

// CheckPositions refreshes prices for every open position and closes the
// ones that crossed a level. Stop-loss is evaluated before take-profit.
// Positions without a price this cycle are skipped.
func (m *Manager) CheckPositions(ctx context.Context) ([]Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.positions) == 0 {
		return nil, nil
	}

	mints := m.sortedMints()
	prices, err := m.prices.BatchPrice(ctx, mints)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}

	type trigger struct {
		mint   string
		reason string
	}
	var triggers []trigger
	refreshed := false

	for _, mint := range mints {
		price, ok := prices[mint]
		if !ok || price <= 0 {
			m.logger.Warn().Str("mint", mint).Msg("No price for position, retrying next cycle")
			continue
		}

		p := m.positions[mint]
		p.CurrentPrice = price
		m.positions[mint] = p
		refreshed = true

		switch {
		case ShouldStopLoss(p):
			triggers = append(triggers, trigger{mint, ReasonStopLoss})
		case ShouldTakeProfit(p):
			triggers = append(triggers, trigger{mint, ReasonTakeProfit})
		}
	}

	if refreshed {
		m.persist()
	}

	actions := make([]Action, 0, len(triggers))
	for _, t := range triggers {
		p := m.positions[t.mint]
		action := Action{Mint: t.mint, Symbol: p.Symbol, Reason: t.reason, Price: p.CurrentPrice}

		received, pnl, err := m.closeLocked(ctx, t.mint, t.reason)
		action.Received = received
		action.PnL = pnl
		action.Err = err
		actions = append(actions, action)
	}

	return actions, nil
}

// ClosePosition sells the whole position in mint. On a failed swap the
// position stays open. Returns the quote currency received.
func (m *Manager) ClosePosition(ctx context.Context, mint, reason string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	received, _, err := m.closeLocked(ctx, mint, reason)
	return received, err
}

func (m *Manager) closeLocked(ctx context.Context, mint, reason string) (float64, float64, error) {
	p, ok := m.positions[mint]
	if !ok {
		m.logger.Warn().Str("mint", mint).Msg("Close requested for unknown position")
		return 0, 0, boterrors.ErrPositionNotFound
	}

	received, err := m.swap(ctx, mint, m.config.QuoteMint, p.BaseAmount)
	if err != nil {
		m.logger.Warn().Err(err).Str("mint", mint).Str("reason", reason).Msg("Exit swap failed, position stays open")
		return 0, 0, err
	}

	pnl := received - p.SizeQuote
	delete(m.positions, mint)
	m.realized += pnl

	m.appendTrade(TradeRecord{
		Timestamp:    epochSeconds(m.now()),
		Action:       ActionClose,
		Mint:         mint,
		Symbol:       p.Symbol,
		EntryPrice:   p.EntryPrice,
		CurrentPrice: p.CurrentPrice,
		SizeQuote:    p.SizeQuote,
		BaseAmount:   p.BaseAmount,
		PnL:          pnl,
		Reason:       reason,
	})
	m.persist()

	m.logger.Info().
		Str("mint", mint).
		Str("symbol", p.Symbol).
		Str("reason", reason).
		Float64("received", received).
		Float64("pnl", pnl).
		Msg("Position closed")

	return received, pnl, nil
}

// swap quotes and executes; a non-positive fill is a failure
func (m *Manager) swap(ctx context.Context, in, out string, amount float64) (float64, error) {
	quote, err := m.swaps.Quote(ctx, in, out, amount, m.config.SlippageBps)
	if err != nil {
		return 0, fmt.Errorf("%w: quote: %w", boterrors.ErrSwapFailed, err)
	}
	if quote == nil {
		return 0, fmt.Errorf("%w: no route", boterrors.ErrSwapFailed)
	}

	filled, err := m.swaps.Execute(ctx, quote)
	if err != nil {
		return 0, fmt.Errorf("%w: execute: %w", boterrors.ErrSwapFailed, err)
	}
	if filled <= 0 || math.IsNaN(filled) {
		return 0, boterrors.ErrSwapFailed
	}
	return filled, nil
}

// Summary aggregates the open book at the last known prices
func (m *Manager) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Summary{NumPositions: len(m.positions), RealizedPnL: m.realized}
	for _, p := range m.positions {
		s.TotalInvested += p.SizeQuote
		s.TotalCurrent += CurrentValue(p)
	}
	s.TotalPnL = s.TotalCurrent - s.TotalInvested
	if s.TotalInvested > 0 {
		s.PnLPercent = s.TotalPnL / s.TotalInvested * 100
	}
	return s
}

func (m *Manager) sortedMints() []string {
	mints := make([]string, 0, len(m.positions))
	for mint := range m.positions {
		mints = append(mints, mint)
	}
	sort.Strings(mints)
	return mints
}

func (m *Manager) snapshot() Snapshot {
	positions := make(map[string]Position, len(m.positions))
	for k, v := range m.positions {
		positions[k] = v
	}
	return Snapshot{Positions: positions, LastUpdated: epochSeconds(m.now())}
}

func (m *Manager) persist() {
	if err := m.store.SaveSnapshot(m.snapshot()); err != nil {
		m.logger.Error().Err(err).Msg("Failed to persist position snapshot")
	}
}

func (m *Manager) appendTrade(record TradeRecord) {
	record.ID = uuid.NewString()
	if err := m.store.AppendTrade(record); err != nil {
		m.logger.Error().Err(err).Str("action", record.Action).Msg("Failed to append trade record")
	}
}
