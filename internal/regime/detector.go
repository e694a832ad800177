package regime

import (
	"sync"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/internal/strategy"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/types"
	"github.com/rs/zerolog"
)

const (
	// MinCandles is the shortest history that can be classified
	MinCandles     = 50
	recentWindow   = 20
	momentumPeriod = 14

	bullThreshold = 0.6
	bearThreshold = 0.4
)

// ChangeRecorder persists regime transitions
type ChangeRecorder interface {
	Append(record any) error
}

// RegimeDetector classifies recent candles into bull, bear or chop.
// It is the only writer of the current regime.
type RegimeDetector struct {
	mu       sync.RWMutex
	current  RegimeSignal
	recorder ChangeRecorder
	logger   zerolog.Logger
}

// NewRegimeDetector creates a detector starting in the unknown regime.
// recorder may be nil.
func NewRegimeDetector(recorder ChangeRecorder, logger zerolog.Logger) *RegimeDetector {
	return &RegimeDetector{
		current:  RegimeSignal{Type: RegimeUnknown},
		recorder: recorder,
		logger:   logger.With().Str("component", "regime").Logger(),
	}
}

// DetectRegime classifies the last MinCandles candles of data. Shorter input
// yields RegimeUnknown and leaves the detector state untouched.
func (rd *RegimeDetector) DetectRegime(data []types.OHLCV) RegimeSignal {
	if len(data) < MinCandles {
		return RegimeSignal{Type: RegimeUnknown, Timestamp: time.Now()}
	}

	signal := Classify(data)

	rd.mu.Lock()
	previous := rd.current.Type
	rd.current = signal
	rd.mu.Unlock()

	if signal.Type != previous {
		rd.onTransition(previous, signal)
	}
	return signal
}

// Classify is the pure scoring step of DetectRegime
func Classify(data []types.OHLCV) RegimeSignal {
	if len(data) < MinCandles {
		return RegimeSignal{Type: RegimeUnknown, Timestamp: time.Now()}
	}

	window := data[len(data)-MinCandles:]
	recent := window[len(window)-recentWindow:]
	previous := window[:len(window)-recentWindow]

	signals := Signals{
		Trend:      trendScore(recent, previous),
		Volatility: volatilityScore(window),
		Momentum:   momentumScore(window, momentumPeriod),
		Volume:     volumeScore(recent, previous),
	}

	values := signals.values()
	sum, high, low := 0.0, values[0], values[0]
	for _, v := range values {
		sum += v
		if v > high {
			high = v
		}
		if v < low {
			low = v
		}
	}
	score := sum / float64(len(values))

	regimeType := RegimeChop
	switch {
	case score > bullThreshold:
		regimeType = RegimeBull
	case score < bearThreshold:
		regimeType = RegimeBear
	}

	return RegimeSignal{
		Type:         regimeType,
		BullishScore: score,
		Confidence:   high - low,
		Signals:      signals,
		Timestamp:    window[len(window)-1].Timestamp,
	}
}

// Current returns the last classified signal
func (rd *RegimeDetector) Current() RegimeSignal {
	rd.mu.RLock()
	defer rd.mu.RUnlock()
	return rd.current
}

// Confidence returns the dispersion of the last classification
func (rd *RegimeDetector) Confidence() float64 {
	return rd.Current().Confidence
}

// StrategyForRegime returns the static preset for the current regime
func (rd *RegimeDetector) StrategyForRegime() Preset {
	return PresetFor(rd.Current().Type)
}

func (rd *RegimeDetector) onTransition(previous RegimeType, signal RegimeSignal) {
	rd.logger.Info().
		Str("from", previous.String()).
		Str("to", signal.Type.String()).
		Float64("bullish_score", signal.BullishScore).
		Float64("confidence", signal.Confidence).
		Msg("Regime change")

	if rd.recorder == nil {
		return
	}

	change := RegimeChange{
		Timestamp:    time.Now().UTC(),
		OldRegime:    previous,
		NewRegime:    signal.Type,
		BullishScore: signal.BullishScore,
		Confidence:   signal.Confidence,
		Signals:      signal.Signals,
	}
	if err := rd.recorder.Append(change); err != nil {
		rd.logger.Warn().Err(err).Msg("Failed to record regime change")
	}
}

// Apply overlays the preset's entry band on base. Everything else, the
// period and exit multipliers included, stays with base.
func (p Preset) Apply(base strategy.Params) strategy.Params {
	return base.WithEntryBand(p.RSILow, p.RSIHigh, p.VolMult)
}

// PositionQuote returns the desired quote amount for capital under this preset
func (p Preset) PositionQuote(capital float64) float64 {
	return capital * p.PositionSize
}
