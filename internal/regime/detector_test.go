package regime

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/internal/state"
	"github.com/ducminhle1904/solana-momentum-bot/internal/strategy"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorderStub struct {
	records []any
}

func (r *recorderStub) Append(record any) error {
	r.records = append(r.records, record)
	return nil
}

func series(n int, next func(i int, prev float64) float64, volume func(i int) float64) []types.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	data := make([]types.OHLCV, n)
	price := 100.0
	for i := 0; i < n; i++ {
		if i > 0 {
			price = next(i, price)
		}
		data[i] = types.OHLCV{Open: price, High: price, Low: price, Close: price, Volume: volume(i), Timestamp: start.Add(time.Duration(i) * time.Hour)}
	}
	return data
}

func bullSeries(n int) []types.OHLCV {
	return series(n,
		func(_ int, p float64) float64 { return p * 1.005 },
		func(i int) float64 {
			if i >= n-recentWindow {
				return 2000
			}
			return 1000
		})
}

func bearSeries(n int) []types.OHLCV {
	return series(n,
		func(_ int, p float64) float64 { return p * 0.90 },
		func(i int) float64 {
			if i >= n-recentWindow {
				return 500
			}
			return 1000
		})
}

func chopSeries(n int) []types.OHLCV {
	return series(n,
		func(i int, p float64) float64 {
			if i%2 == 1 {
				return p + 3
			}
			return p - 3
		},
		func(int) float64 { return 1000 })
}

// TestDetectRegime_InsufficientData tests that short inputs are always unknown
func TestDetectRegime_InsufficientData(t *testing.T) {
	detector := NewRegimeDetector(nil, zerolog.Nop())

	for _, data := range [][]types.OHLCV{nil, bullSeries(10), bullSeries(49), bearSeries(49)} {
		assert.Equal(t, RegimeUnknown, detector.DetectRegime(data).Type)
	}
}

// TestDetectRegime_ShortInputKeepsState tests that unknown results do not overwrite the current regime
func TestDetectRegime_ShortInputKeepsState(t *testing.T) {
	recorder := &recorderStub{}
	detector := NewRegimeDetector(recorder, zerolog.Nop())

	require.Equal(t, RegimeBull, detector.DetectRegime(bullSeries(60)).Type)
	detector.DetectRegime(bullSeries(20))

	assert.Equal(t, RegimeBull, detector.Current().Type)
	assert.Len(t, recorder.records, 1)
}

// TestClassify_Regimes tests the composite score thresholds
func TestClassify_Regimes(t *testing.T) {
	tests := []struct {
		name       string
		data       []types.OHLCV
		expected   RegimeType
		score      float64
		confidence float64
	}{
		{"steady rally on rising volume", bullSeries(80), RegimeBull, 1.0, 0},
		{"violent selloff on fading volume", bearSeries(50), RegimeBear, 0.125, 0.5},
		{"range bound", chopSeries(60), RegimeChop, 0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal := Classify(tt.data)
			assert.Equal(t, tt.expected, signal.Type)
			assert.InDelta(t, tt.score, signal.BullishScore, 1e-9)
			assert.InDelta(t, tt.confidence, signal.Confidence, 1e-9)
		})
	}
}

// TestClassify_SubSignals tests the individual scores for a bear market
func TestClassify_SubSignals(t *testing.T) {
	signals := Classify(bearSeries(50)).Signals

	assert.Equal(t, 0.5, signals.Trend)
	assert.Equal(t, 0.0, signals.Volatility)
	assert.Equal(t, 0.0, signals.Momentum)
	assert.Equal(t, 0.0, signals.Volume)
}

// TestDetectRegime_JournalsTransitions tests that only changes are recorded
func TestDetectRegime_JournalsTransitions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regime.jsonl")
	journal := state.NewJournal(path)
	detector := NewRegimeDetector(journal, zerolog.Nop())

	detector.DetectRegime(bullSeries(60))
	detector.DetectRegime(bullSeries(61))
	detector.DetectRegime(bearSeries(60))

	var changes []RegimeChange
	_, err := journal.ReadAll(func(line []byte) error {
		var c RegimeChange
		if err := json.Unmarshal(line, &c); err != nil {
			return err
		}
		changes = append(changes, c)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, RegimeUnknown, changes[0].OldRegime)
	assert.Equal(t, RegimeBull, changes[0].NewRegime)
	assert.Equal(t, RegimeBear, changes[1].NewRegime)
}

// TestStrategyForRegime tests that the preset follows the detector's current regime
func TestStrategyForRegime(t *testing.T) {
	detector := NewRegimeDetector(nil, zerolog.Nop())
	assert.Equal(t, PresetFor(RegimeUnknown), detector.StrategyForRegime())

	detector.DetectRegime(bullSeries(20))
	assert.Equal(t, PresetFor(RegimeUnknown), detector.StrategyForRegime())

	signal := detector.DetectRegime(bullSeries(60))
	require.Equal(t, RegimeBull, signal.Type)
	assert.Equal(t, PresetFor(RegimeBull), detector.StrategyForRegime())
	assert.Equal(t, signal.Confidence, detector.Confidence())

	detector.DetectRegime(bullSeries(20))
	assert.Equal(t, RegimeBull, detector.StrategyForRegime().Regime)
}

// TestPresetFor tests the static presets
func TestPresetFor(t *testing.T) {
	bull := PresetFor(RegimeBull)
	assert.Equal(t, BiasLong, bull.Bias)
	assert.Equal(t, 55.0, bull.RSILow)
	assert.Equal(t, 65.0, bull.RSIHigh)
	assert.Equal(t, 0.15, bull.PositionSize)

	assert.Equal(t, 0.0, PresetFor(RegimeUnknown).PositionSize)
	assert.Equal(t, PresetFor(RegimeUnknown), PresetFor(RegimeType(42)))
}

// TestPreset_Apply tests that presets override only the entry band
func TestPreset_Apply(t *testing.T) {
	base := strategy.DefaultParams()
	base.RSIPeriod = 16
	base.TPPercent = 0.33

	applied := PresetFor(RegimeChop).Apply(base)

	assert.Equal(t, 50.0, applied.RSILow)
	assert.Equal(t, 55.0, applied.RSIHigh)
	assert.Equal(t, 1.8, applied.VolMult)
	assert.Equal(t, 16, applied.RSIPeriod)
	assert.Equal(t, 0.33, applied.TPPercent)
	assert.InDelta(t, 15.0, PresetFor(RegimeChop).PositionQuote(300), 1e-9)
}

// TestRegimeType_Text tests name round trips
func TestRegimeType_Text(t *testing.T) {
	for _, r := range []RegimeType{RegimeUnknown, RegimeBull, RegimeBear, RegimeChop} {
		text, err := r.MarshalText()
		require.NoError(t, err)

		var parsed RegimeType
		require.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, r, parsed)
	}

	_, err := ParseRegime("sideways")
	assert.Error(t, err)
}
