package regime

import (
	"fmt"
	"time"
)

// RegimeType represents the coarse market condition
type RegimeType int

const (
	RegimeUnknown RegimeType = iota
	RegimeBull
	RegimeBear
	RegimeChop
)

func (r RegimeType) String() string {
	switch r {
	case RegimeBull:
		return "bull"
	case RegimeBear:
		return "bear"
	case RegimeChop:
		return "chop"
	default:
		return "unknown"
	}
}

// MarshalText encodes the regime by name
func (r RegimeType) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a regime name
func (r *RegimeType) UnmarshalText(text []byte) error {
	parsed, err := ParseRegime(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRegime converts a name back to a RegimeType
func ParseRegime(name string) (RegimeType, error) {
	switch name {
	case "bull":
		return RegimeBull, nil
	case "bear":
		return RegimeBear, nil
	case "chop":
		return RegimeChop, nil
	case "unknown", "":
		return RegimeUnknown, nil
	default:
		return RegimeUnknown, fmt.Errorf("unknown regime %q", name)
	}
}

// Signals holds the four sub-scores, each in [0,1]
type Signals struct {
	Trend      float64 `json:"trend"`
	Volatility float64 `json:"volatility"`
	Momentum   float64 `json:"momentum"`
	Volume     float64 `json:"volume"`
}

func (s Signals) values() []float64 {
	return []float64{s.Trend, s.Volatility, s.Momentum, s.Volume}
}

// RegimeSignal represents the output of regime detection
type RegimeSignal struct {
	Type         RegimeType `json:"type"`
	BullishScore float64    `json:"bullish_score"`
	Confidence   float64    `json:"confidence"` // max-min dispersion of the sub-scores
	Signals      Signals    `json:"signals"`
	Timestamp    time.Time  `json:"timestamp"`
}

// RegimeChange is journaled on every transition
type RegimeChange struct {
	Timestamp    time.Time  `json:"timestamp"`
	OldRegime    RegimeType `json:"old_regime"`
	NewRegime    RegimeType `json:"regime"`
	BullishScore float64    `json:"bullish_score"`
	Confidence   float64    `json:"confidence"`
	Signals      Signals    `json:"signals"`
}

// Bias is the directional leaning of a preset
type Bias string

const (
	BiasLong    Bias = "long"
	BiasShort   Bias = "short"
	BiasNeutral Bias = "neutral"
)

// Preset is the static parameter recommendation for a regime
type Preset struct {
	Regime       RegimeType `json:"regime"`
	Bias         Bias       `json:"bias"`
	RSILow       float64    `json:"rsi_low"`
	RSIHigh      float64    `json:"rsi_high"`
	VolMult      float64    `json:"vol_mult"`
	PositionSize float64    `json:"position_size"` // fraction of capital per entry
}

var presets = map[RegimeType]Preset{
	RegimeBull:    {Regime: RegimeBull, Bias: BiasLong, RSILow: 55, RSIHigh: 65, VolMult: 1.3, PositionSize: 0.15},
	RegimeBear:    {Regime: RegimeBear, Bias: BiasShort, RSILow: 40, RSIHigh: 50, VolMult: 1.5, PositionSize: 0.08},
	RegimeChop:    {Regime: RegimeChop, Bias: BiasNeutral, RSILow: 50, RSIHigh: 55, VolMult: 1.8, PositionSize: 0.05},
	RegimeUnknown: {Regime: RegimeUnknown, Bias: BiasNeutral, RSILow: 57, RSIHigh: 63, VolMult: 1.38, PositionSize: 0},
}

// PresetFor returns the static preset for r
func PresetFor(r RegimeType) Preset {
	if p, ok := presets[r]; ok {
		return p
	}
	return presets[RegimeUnknown]
}
