package jupiter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ducminhle1904/solana-momentum-bot/pkg/httpclient"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	DefaultQuoteBaseURL = "https://quote-api.jup.ag/v6"
	DefaultPriceURL     = "https://api.jup.ag/price/v2"
)

// ErrNoTransaction is returned when the swap endpoint answers without a transaction
var ErrNoTransaction = errors.New("no swap transaction in response")

// QuoteResponse is the subset of the v6 quote payload the bot reads.
// Amounts are raw integer units of each mint.
type QuoteResponse struct {
	InputMint      string            `json:"inputMint"`
	OutputMint     string            `json:"outputMint"`
	InAmount       decimal.Decimal   `json:"inAmount"`
	OutAmount      decimal.Decimal   `json:"outAmount"`
	PriceImpactPct decimal.Decimal   `json:"priceImpactPct"`
	SlippageBps    int               `json:"slippageBps"`
	RoutePlan      []json.RawMessage `json:"routePlan"`
}

type swapRequest struct {
	QuoteResponse             json.RawMessage `json:"quoteResponse"`
	UserPublicKey             string          `json:"userPublicKey"`
	WrapAndUnwrapSol          bool            `json:"wrapAndUnwrapSol"`
	UseSharedAccounts         bool            `json:"useSharedAccounts"`
	DynamicComputeUnitLimit   bool            `json:"dynamicComputeUnitLimit"`
	PrioritizationFeeLamports string          `json:"prioritizationFeeLamports"`
}

type swapResponse struct {
	SwapTransaction string `json:"swapTransaction"`
}

type priceResponse struct {
	Data map[string]*struct {
		ID    string           `json:"id"`
		Price *decimal.Decimal `json:"price"`
	} `json:"data"`
}

// Client talks to the Jupiter quote, swap and price endpoints
type Client struct {
	http         *httpclient.Client
	quoteBaseURL string
	priceURL     string
	logger       zerolog.Logger
}

// NewClient creates a client. Empty URLs select the public endpoints.
func NewClient(hc *httpclient.Client, quoteBaseURL, priceURL string, logger zerolog.Logger) *Client {
	if quoteBaseURL == "" {
		quoteBaseURL = DefaultQuoteBaseURL
	}
	if priceURL == "" {
		priceURL = DefaultPriceURL
	}
	return &Client{
		http:         hc,
		quoteBaseURL: strings.TrimRight(quoteBaseURL, "/"),
		priceURL:     priceURL,
		logger:       logger.With().Str("component", "jupiter").Logger(),
	}
}

// GetQuote requests a route for rawAmount of inputMint. The raw payload is
// returned alongside the parsed quote because the swap endpoint wants it back
// verbatim.
func (c *Client) GetQuote(ctx context.Context, inputMint, outputMint string, rawAmount int64, slippageBps int, onlyDirectRoutes bool) (*QuoteResponse, json.RawMessage, error) {
	query := url.Values{}
	query.Set("inputMint", inputMint)
	query.Set("outputMint", outputMint)
	query.Set("amount", strconv.FormatInt(rawAmount, 10))
	query.Set("slippageBps", strconv.Itoa(slippageBps))
	query.Set("onlyDirectRoutes", strconv.FormatBool(onlyDirectRoutes))

	var raw json.RawMessage
	if err := c.http.GetJSON(ctx, c.quoteBaseURL+"/quote", query, &raw); err != nil {
		return nil, nil, fmt.Errorf("jupiter quote failed: %w", err)
	}

	var quote QuoteResponse
	if err := json.Unmarshal(raw, &quote); err != nil {
		return nil, nil, fmt.Errorf("failed to parse jupiter quote: %w", err)
	}

	c.logger.Debug().
		Str("in", quote.InAmount.String()).
		Str("out", quote.OutAmount.String()).
		Str("impact_pct", quote.PriceImpactPct.String()).
		Int("routes", len(quote.RoutePlan)).
		Msg("Quote received")

	return &quote, raw, nil
}

// SwapTransaction builds the serialized transaction for a quote. It is sent
// once and never retried.
func (c *Client) SwapTransaction(ctx context.Context, rawQuote json.RawMessage, userPublicKey string) ([]byte, error) {
	req := swapRequest{
		QuoteResponse:             rawQuote,
		UserPublicKey:             userPublicKey,
		WrapAndUnwrapSol:          true,
		UseSharedAccounts:         true,
		DynamicComputeUnitLimit:   true,
		PrioritizationFeeLamports: "auto",
	}

	var resp swapResponse
	if err := c.http.PostJSON(ctx, c.quoteBaseURL+"/swap", req, &resp); err != nil {
		return nil, fmt.Errorf("jupiter swap failed: %w", err)
	}
	if resp.SwapTransaction == "" {
		return nil, ErrNoTransaction
	}

	tx, err := base64.StdEncoding.DecodeString(resp.SwapTransaction)
	if err != nil {
		return nil, fmt.Errorf("failed to decode swap transaction: %w", err)
	}
	return tx, nil
}

// BatchPrice returns USD prices for mints in one request. Mints without a
// price are omitted.
func (c *Client) BatchPrice(ctx context.Context, mints []string) (map[string]float64, error) {
	prices := make(map[string]float64, len(mints))
	if len(mints) == 0 {
		return prices, nil
	}

	var resp priceResponse
	if err := c.http.GetJSON(ctx, c.priceURL, url.Values{"ids": {strings.Join(mints, ",")}}, &resp); err != nil {
		return nil, fmt.Errorf("jupiter price failed: %w", err)
	}

	for _, mint := range mints {
		entry, ok := resp.Data[mint]
		if !ok || entry == nil || entry.Price == nil || !entry.Price.IsPositive() {
			continue
		}
		prices[mint] = entry.Price.InexactFloat64()
	}
	return prices, nil
}

// Price returns the USD price of a single mint
func (c *Client) Price(ctx context.Context, mint string) (float64, bool, error) {
	prices, err := c.BatchPrice(ctx, []string{mint})
	if err != nil {
		return 0, false, err
	}
	p, ok := prices[mint]
	return p, ok, nil
}
