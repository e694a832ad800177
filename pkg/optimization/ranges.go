package optimization

import (
	"math"
	"math/rand"
)

// IntRange is an inclusive integer interval
type IntRange struct {
	Min int
	Max int
}

// Sample draws uniformly from [Min, Max]
func (r IntRange) Sample(rng *rand.Rand) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Intn(r.Max-r.Min+1)
}

// FloatRange is a continuous interval sampled uniformly and rounded to Decimals places
type FloatRange struct {
	Min      float64
	Max      float64
	Decimals int
}

// Sample draws uniformly from [Min, Max] and rounds
func (r FloatRange) Sample(rng *rand.Rand) float64 {
	v := r.Min + rng.Float64()*(r.Max-r.Min)
	return roundTo(v, r.Decimals)
}

// MutationRanges bounds every randomised strategy parameter
type MutationRanges struct {
	RSIPeriod   IntRange
	RSILow      IntRange
	RSIHigh     IntRange
	VolMult     FloatRange
	StopATRMult FloatRange
	TPPercent   FloatRange
}

// DefaultMutationRanges are the hand-tuned bounds used by the live evolver
var DefaultMutationRanges = MutationRanges{
	RSIPeriod:   IntRange{Min: 12, Max: 18},
	RSILow:      IntRange{Min: 52, Max: 60},
	RSIHigh:     IntRange{Min: 60, Max: 68},
	VolMult:     FloatRange{Min: 1.2, Max: 2.0, Decimals: 2},
	StopATRMult: FloatRange{Min: 1.5, Max: 2.5, Decimals: 2},
	TPPercent:   FloatRange{Min: 0.25, Max: 0.40, Decimals: 2},
}

func roundTo(v float64, decimals int) float64 {
	if decimals < 0 {
		return v
	}
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
