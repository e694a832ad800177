package jupiter

import (
	"context"
	"fmt"

	"github.com/ducminhle1904/solana-momentum-bot/internal/exchange"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultDecimals is used for mints without a known decimal count
const DefaultDecimals = 6

// KnownDecimals lists decimal places of common mints
var KnownDecimals = map[string]int32{
	exchange.USDCMint: 6,
	exchange.SOLMint:  9,
}

// SwapExecutor implements exchange.SwapExecutor over Jupiter and a Signer
type SwapExecutor struct {
	client           *Client
	signer           exchange.Signer
	decimals         map[string]int32
	onlyDirectRoutes bool
	logger           zerolog.Logger
}

// NewSwapExecutor creates an executor. decimals overrides KnownDecimals.
func NewSwapExecutor(client *Client, signer exchange.Signer, decimals map[string]int32, logger zerolog.Logger) *SwapExecutor {
	merged := make(map[string]int32, len(KnownDecimals)+len(decimals))
	for k, v := range KnownDecimals {
		merged[k] = v
	}
	for k, v := range decimals {
		merged[k] = v
	}
	return &SwapExecutor{
		client:   client,
		signer:   signer,
		decimals: merged,
		logger:   logger.With().Str("component", "swap").Logger(),
	}
}

// Decimals returns the decimal places used for mint
func (e *SwapExecutor) Decimals(mint string) int32 {
	if d, ok := e.decimals[mint]; ok {
		return d
	}
	return DefaultDecimals
}

// ToRaw converts a whole-unit amount into integer base units, rounding down
func (e *SwapExecutor) ToRaw(mint string, amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(e.Decimals(mint)).Floor().IntPart()
}

// FromRaw converts integer base units into whole units
func (e *SwapExecutor) FromRaw(mint string, raw decimal.Decimal) float64 {
	return raw.Shift(-e.Decimals(mint)).InexactFloat64()
}

// Quote asks Jupiter for a route. A nil quote with nil error never happens;
// an unroutable pair surfaces as an error.
func (e *SwapExecutor) Quote(ctx context.Context, inputMint, outputMint string, amount float64, slippageBps int) (*exchange.Quote, error) {
	raw := e.ToRaw(inputMint, amount)
	if raw <= 0 {
		return nil, fmt.Errorf("amount %v of %s rounds to zero base units", amount, inputMint)
	}

	quote, payload, err := e.client.GetQuote(ctx, inputMint, outputMint, raw, slippageBps, e.onlyDirectRoutes)
	if err != nil {
		return nil, err
	}
	if !quote.OutAmount.IsPositive() {
		return nil, fmt.Errorf("quote for %s returned no output", outputMint)
	}

	return &exchange.Quote{
		InputMint:      inputMint,
		OutputMint:     outputMint,
		InAmount:       e.FromRaw(inputMint, quote.InAmount),
		OutAmount:      e.FromRaw(outputMint, quote.OutAmount),
		PriceImpactPct: quote.PriceImpactPct.InexactFloat64(),
		SlippageBps:    slippageBps,
		Raw:            payload,
	}, nil
}

// Execute builds, signs and sends the swap once. The quoted output amount is
// reported as the fill.
func (e *SwapExecutor) Execute(ctx context.Context, quote *exchange.Quote) (float64, error) {
	if quote == nil || len(quote.Raw) == 0 {
		return 0, fmt.Errorf("quote has no route payload")
	}

	tx, err := e.client.SwapTransaction(ctx, quote.Raw, e.signer.PublicKey())
	if err != nil {
		return 0, err
	}

	signature, err := e.signer.SignAndSend(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("failed to send swap transaction: %w", err)
	}

	e.logger.Info().
		Str("in", quote.InputMint).
		Str("out", quote.OutputMint).
		Float64("in_amount", quote.InAmount).
		Float64("out_amount", quote.OutAmount).
		Float64("impact_pct", quote.PriceImpactPct).
		Str("signature", signature).
		Msg("Swap sent")

	return quote.OutAmount, nil
}

// SetOnlyDirectRoutes restricts quotes to single-hop routes
func (e *SwapExecutor) SetOnlyDirectRoutes(v bool) {
	e.onlyDirectRoutes = v
}
