package optimization

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/internal/backtest"
	"github.com/ducminhle1904/solana-momentum-bot/internal/strategy"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/types"
	"github.com/rs/zerolog"
)

// ErrNoResults is returned when SelectBest is given nothing to choose from
var ErrNoResults = errors.New("no variant results to select from")

// Status is a point-in-time view of the evolver
type Status struct {
	Base           strategy.Params `json:"base_strategy"`
	BestWinRate    float64         `json:"best_win_rate"`
	Generation     int             `json:"generation"`
	VariantsTested int             `json:"variants_tested"`
}

// Evolver owns the current base strategy and the best-ever win rate.
// The best win rate only ever moves up.
type Evolver struct {
	mu             sync.Mutex
	base           strategy.Params
	bestWinRate    float64
	generation     int
	variantsTested int
	ranges         MutationRanges
	rng            *rand.Rand
	log            EvolutionLog
	logger         zerolog.Logger
	now            func() time.Time
}

// NewEvolver creates an evolver starting from base. A nil rng is seeded from
// the clock; a nil log discards evolution entries.
func NewEvolver(base strategy.Params, rng *rand.Rand, log EvolutionLog, logger zerolog.Logger) *Evolver {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = discardLog{}
	}
	return &Evolver{
		base:   base,
		ranges: DefaultMutationRanges,
		rng:    rng,
		log:    log,
		logger: logger.With().Str("component", "evolver").Logger(),
		now:    time.Now,
	}
}

// Base returns the current base strategy
func (e *Evolver) Base() strategy.Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.base
}

// BestWinRate returns the best win rate seen so far
func (e *Evolver) BestWinRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bestWinRate
}

// Status returns a snapshot of the evolver state
func (e *Evolver) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Base:           e.base,
		BestWinRate:    e.bestWinRate,
		Generation:     e.generation,
		VariantsTested: e.variantsTested,
	}
}

// GenerateVariants produces n variants of the base strategy with every
// tunable parameter independently randomised. The generation counter
// advances once per call.
func (e *Evolver) GenerateVariants(n int) []Variant {
	e.mu.Lock()
	defer e.mu.Unlock()

	created := e.now()
	variants := make([]Variant, 0, n)
	for i := 0; i < n; i++ {
		params := e.base
		params.RSIPeriod = e.ranges.RSIPeriod.Sample(e.rng)
		params.RSILow = float64(e.ranges.RSILow.Sample(e.rng))
		params.RSIHigh = float64(e.ranges.RSIHigh.Sample(e.rng))
		params.VolMult = e.ranges.VolMult.Sample(e.rng)
		params.StopATRMult = e.ranges.StopATRMult.Sample(e.rng)
		params.TPPercent = e.ranges.TPPercent.Sample(e.rng)

		variants = append(variants, Variant{
			ID:        fmt.Sprintf("v%d_%d", e.generation, i),
			Params:    params,
			CreatedAt: created,
		})
	}

	e.generation++
	return variants
}

// SelectBest picks the variant with the highest win rate, first occurrence
// on ties. When it beats the best-ever win rate it becomes the new base and
// is appended to the evolution log. The returned bool reports that promotion.
func (e *Evolver) SelectBest(results []Variant) (Variant, bool, error) {
	if len(results) == 0 {
		return Variant{}, false, ErrNoResults
	}

	best := results[0]
	for _, v := range results[1:] {
		if v.WinRate > best.WinRate {
			best = v
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.variantsTested += len(results)
	improved := best.WinRate > e.bestWinRate
	if improved {
		previous := e.bestWinRate
		e.bestWinRate = best.WinRate
		e.base = best.Params

		entry := EvolutionEntry{
			Generation: e.generation,
			Timestamp:  e.now(),
			VariantID:  best.ID,
			WinRate:    best.WinRate,
			Params:     best.Params,
			Trades:     best.Trades,
			Sharpe:     best.Sharpe,
		}
		if err := e.log.Append(entry); err != nil {
			e.logger.Warn().Err(err).Msg("Failed to append evolution log entry")
		}

		e.logger.Info().
			Int("generation", e.generation).
			Str("variant", best.ID).
			Float64("previous_win_rate", previous).
			Float64("win_rate", best.WinRate).
			Msg("New best strategy")
	}

	selected := best
	selected.ID = fmt.Sprintf("best_%d", e.generation)
	return selected, improved, nil
}

// RunGeneration generates n variants, backtests each over candles with pool
// and feeds the tested variants to SelectBest.
func (e *Evolver) RunGeneration(ctx context.Context, pool *backtest.WorkerPool, candles []types.OHLCV, n int) (Variant, []Variant, bool, error) {
	variants := e.GenerateVariants(n)

	jobs := make([]backtest.BacktestJob, len(variants))
	for i, v := range variants {
		jobs[i] = backtest.BacktestJob{ID: v.ID, Params: v.Params}
	}

	tested := make([]Variant, 0, len(variants))
	for i, res := range pool.RunBatch(ctx, candles, jobs) {
		if res.Error != nil {
			e.logger.Debug().Err(res.Error).Str("variant", res.ID).Msg("Variant backtest skipped")
			continue
		}
		v := variants[i]
		v.RecordResult(res.Results, e.now())
		tested = append(tested, v)
	}

	if err := ctx.Err(); err != nil {
		return Variant{}, tested, false, err
	}

	best, improved, err := e.SelectBest(tested)
	return best, tested, improved, err
}
