package scanner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/pkg/httpclient"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMomentumScore tests the score components and the cap
func TestMomentumScore(t *testing.T) {
	tests := []struct {
		name                          string
		ch1h, ch4h, ch24h, vol24, liq float64
		want                          float64
	}{
		{"everything strong", 5, 12, 20, 6_000_000, 6_000_000, 92},
		{"capped at 100", 10, 30, 50, 10_000_000, 10_000_000, 100},
		{"flat market", 0, 0, 0, 0, 0, 0},
		{"falling but decelerating", -1, -8, -5, 2_000_000, 2_000_000, 35},
		{"4h move alone", -1, 8, -2, 0, 0, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MomentumScore(tt.ch1h, tt.ch4h, tt.ch24h, tt.vol24, tt.liq))
		})
	}
}

// TestOpportunity_Eligible tests every entry criterion
func TestOpportunity_Eligible(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	old := now.Add(-48 * time.Hour)
	young := now.Add(-2 * time.Hour)

	good := Opportunity{
		Symbol:        "GOOD",
		LiquidityUSD:  2_000_000,
		Volume24h:     1_200_000,
		Volume4h:      400_000,
		PriceChange4h: 6,
		CreatedAt:     &old,
	}

	ok, reasons := good.Eligible(DefaultFilters(), now)
	assert.True(t, ok)
	assert.Empty(t, reasons)

	unknownAge := good
	unknownAge.CreatedAt = nil
	ok, _ = unknownAge.Eligible(DefaultFilters(), now)
	assert.True(t, ok, "unknown age is not a disqualification")

	bad := Opportunity{
		LiquidityUSD:  500_000,
		Volume24h:     1_200_000,
		Volume4h:      100_000,
		PriceChange4h: 4.9,
		CreatedAt:     &young,
	}
	ok, reasons = bad.Eligible(DefaultFilters(), now)
	assert.False(t, ok)
	require.Len(t, reasons, 4)
	assert.Contains(t, reasons[0], "liquidity")
	assert.Equal(t, "weak 4h volume momentum", reasons[1])
	assert.Contains(t, reasons[2], "4h change")
	assert.Contains(t, reasons[3], "token age")
}

func testPair(chain, mint, symbol string, fdv, liq, vol6, vol24, ch1, ch6, ch24 float64, created time.Time) map[string]any {
	return map[string]any{
		"chainId":       chain,
		"baseToken":     map[string]string{"address": mint, "symbol": symbol, "name": symbol + " Token"},
		"priceUsd":      "0.5",
		"liquidity":     map[string]float64{"usd": liq},
		"volume":        map[string]float64{"h6": vol6, "h24": vol24},
		"priceChange":   map[string]float64{"h1": ch1, "h6": ch6, "h24": ch24},
		"fdv":           fdv,
		"pairCreatedAt": created.UnixMilli(),
	}
}

// TestScanner_Scan tests chain filtering, eligibility and ordering by score
func TestScanner_Scan(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	old := now.Add(-48 * time.Hour)

	pairs := []map[string]any{
		testPair("ethereum", "EthMint", "ETHX", 9e9, 9e6, 9e6, 9e6, 5, 30, 30, old),
		testPair("solana", "MintA", "AAA", 1e8, 2_000_000, 600_000, 1_200_000, 1, 9, 3, old),
		testPair("solana", "MintB", "BBB", 5e7, 6_000_000, 3_000_000, 6_000_000, 5, 24, 20, old),
		testPair("solana", "MintC", "CCC", 4e7, 100_000, 600_000, 1_200_000, 1, 9, 3, old),
		testPair("solana", "MintD", "DDD", 3e7, 2_000_000, 600_000, 1_200_000, 1, 9, 3, now.Add(-time.Hour)),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "solana", r.URL.Query().Get("q"))
		json.NewEncoder(w).Encode(map[string]any{"pairs": pairs})
	}))
	defer srv.Close()

	s := New(httpclient.New(httpclient.Options{RequestsPerSec: 100}), srv.URL+"/latest/dex/search?q=solana", DefaultFilters(), zerolog.Nop())
	s.now = func() time.Time { return now }

	got, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "MintB", got[0].Mint)
	assert.Equal(t, "MintA", got[1].Mint)
	assert.Equal(t, 16.0, got[0].PriceChange4h)
	assert.Equal(t, 2_000_000.0, got[0].Volume4h)
	assert.Equal(t, 0.5, got[0].PriceUSD)
	assert.Equal(t, "BBB Token", got[0].Name)
	require.NotNil(t, got[0].CreatedAt)
	assert.True(t, got[0].CreatedAt.Equal(old))
	assert.Greater(t, got[0].MomentumScore, got[1].MomentumScore)
	assert.Equal(t, now, s.LastScan())
}

// TestScanner_ScanError tests that an upstream failure is returned
func TestScanner_ScanError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s := New(httpclient.New(httpclient.Options{RequestsPerSec: 100}), srv.URL, DefaultFilters(), zerolog.Nop())
	_, err := s.Scan(context.Background())
	assert.Error(t, err)
}
