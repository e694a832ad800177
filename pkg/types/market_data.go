package types

import "time"

// OHLCV is a single time-bucketed price/volume sample.
type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// PricePoint is a spot price for a token mint.
type PricePoint struct {
	Mint      string
	Price     float64
	Timestamp time.Time
}

// Closes extracts closing prices in order.
func Closes(candles []OHLCV) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Volumes extracts volumes in order.
func Volumes(candles []OHLCV) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}
