package strategy

import (
	"fmt"
	"math"
)

// Params is the tunable parameter set of the momentum strategy.
// It is a value type: copies are independent and helpers return new values.
type Params struct {
	RSIPeriod   int     `json:"rsi_period" yaml:"rsi_period" default:"14" validate:"min=2"`
	RSILow      float64 `json:"rsi_low" yaml:"rsi_low" default:"57" validate:"gte=0,lte=100"`
	RSIHigh     float64 `json:"rsi_high" yaml:"rsi_high" default:"63" validate:"gte=0,lte=100,gtefield=RSILow"`
	VolMult     float64 `json:"vol_mult" yaml:"vol_mult" default:"1.38" validate:"gt=0"`
	VolLookback int     `json:"vol_lookback" yaml:"vol_lookback" default:"20" validate:"min=1"`
	StopATRMult float64 `json:"stop_atr_mult" yaml:"stop_atr_mult" default:"1.85" validate:"gt=0"`
	TPPercent   float64 `json:"tp_percent" yaml:"tp_percent" default:"0.28" validate:"gt=0"`
}

// DefaultParams returns the base strategy the evolver starts from
func DefaultParams() Params {
	return Params{
		RSIPeriod:   14,
		RSILow:      57,
		RSIHigh:     63,
		VolMult:     1.38,
		VolLookback: 20,
		StopATRMult: 1.85,
		TPPercent:   0.28,
	}
}

// WithEntryBand returns a copy with the oscillator band and volume multiplier replaced
func (p Params) WithEntryBand(rsiLow, rsiHigh, volMult float64) Params {
	p.RSILow = rsiLow
	p.RSIHigh = rsiHigh
	p.VolMult = volMult
	return p
}

// Validate checks the parameter set is usable by the evaluator
func (p Params) Validate() error {
	if p.RSIPeriod < 2 {
		return fmt.Errorf("rsi_period must be >= 2, got %d", p.RSIPeriod)
	}
	if p.RSILow > p.RSIHigh {
		return fmt.Errorf("rsi_low (%.2f) must not exceed rsi_high (%.2f)", p.RSILow, p.RSIHigh)
	}
	if p.VolMult <= 0 || math.IsNaN(p.VolMult) {
		return fmt.Errorf("vol_mult must be positive, got %.4f", p.VolMult)
	}
	if p.VolLookback < 1 {
		return fmt.Errorf("vol_lookback must be >= 1, got %d", p.VolLookback)
	}
	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("rsi(%d) %.0f-%.0f vol>%.2fx stop=%.2fatr tp=%.0f%%",
		p.RSIPeriod, p.RSILow, p.RSIHigh, p.VolMult, p.StopATRMult, p.TPPercent*100)
}
