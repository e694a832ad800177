package exchange

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/pkg/types"
)

// Well-known Solana mints
const (
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	SOLMint  = "So11111111111111111111111111111111111111112"
)

// Quote is a priced route for swapping amount of InputMint into OutputMint.
// Amounts are in whole token units.
type Quote struct {
	InputMint      string
	OutputMint     string
	InAmount       float64
	OutAmount      float64
	PriceImpactPct float64
	SlippageBps    int
	// Raw is the provider payload needed to build the transaction
	Raw json.RawMessage
}

// SwapExecutor quotes and executes swaps. Quote is safe to retry; Execute
// is attempted at most once per call because a retry could double-send.
type SwapExecutor interface {
	Quote(ctx context.Context, inputMint, outputMint string, amount float64, slippageBps int) (*Quote, error)
	// Execute returns the filled amount of the output token
	Execute(ctx context.Context, quote *Quote) (float64, error)
}

// PriceFeed returns USD prices by mint, omitting mints it cannot price
type PriceFeed interface {
	BatchPrice(ctx context.Context, mints []string) (map[string]float64, error)
}

// CandleFeed supplies chronological candles for a mint
type CandleFeed interface {
	Candles(ctx context.Context, mint string, interval string, window time.Duration) ([]types.OHLCV, error)
}

// Signer signs and submits a serialized transaction, returning its signature.
// Key management lives behind this interface.
type Signer interface {
	PublicKey() string
	SignAndSend(ctx context.Context, tx []byte) (string, error)
}
