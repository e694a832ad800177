package scanner

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/pkg/httpclient"
	"github.com/rs/zerolog"
)

const (
	DefaultSearchURL = "https://api.dexscreener.com/latest/dex/search?q=solana"
	maxAnalyzed      = 50
)

type searchResponse struct {
	Pairs []pair `json:"pairs"`
}

type pair struct {
	ChainID   string `json:"chainId"`
	BaseToken struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUSD  string `json:"priceUsd"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H6  float64 `json:"h6"`
		H24 float64 `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H1  float64 `json:"h1"`
		H6  float64 `json:"h6"`
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	FDV           float64 `json:"fdv"`
	PairCreatedAt int64   `json:"pairCreatedAt"`
}

// Scanner finds momentum opportunities among Solana DEX pairs
type Scanner struct {
	http      *httpclient.Client
	searchURL string
	filters   Filters
	logger    zerolog.Logger
	now       func() time.Time

	lastScan time.Time
}

// New creates a scanner. An empty searchURL selects the public DexScreener search.
func New(hc *httpclient.Client, searchURL string, filters Filters, logger zerolog.Logger) *Scanner {
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	return &Scanner{
		http:      hc,
		searchURL: searchURL,
		filters:   filters,
		logger:    logger.With().Str("component", "scanner").Logger(),
		now:       time.Now,
	}
}

// Filters returns the active entry criteria
func (s *Scanner) Filters() Filters {
	return s.filters
}

// LastScan returns when Scan last completed
func (s *Scanner) LastScan() time.Time {
	return s.lastScan
}

// Scan analyses the top pairs by FDV and returns the eligible ones, highest
// momentum score first
func (s *Scanner) Scan(ctx context.Context) ([]Opportunity, error) {
	start := s.now()

	var resp searchResponse
	if err := s.http.GetJSON(ctx, s.searchURL, nil, &resp); err != nil {
		return nil, fmt.Errorf("dexscreener search failed: %w", err)
	}

	pairs := make([]pair, 0, len(resp.Pairs))
	for _, p := range resp.Pairs {
		if p.ChainID == "solana" {
			pairs = append(pairs, p)
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].FDV > pairs[j].FDV })
	if len(pairs) > maxAnalyzed {
		pairs = pairs[:maxAnalyzed]
	}

	now := s.now()
	var opportunities []Opportunity
	for _, p := range pairs {
		o := analyze(p)
		if ok, reasons := o.Eligible(s.filters, now); !ok {
			s.logger.Debug().Str("symbol", o.Symbol).Strs("reasons", reasons).Msg("Disqualified")
			continue
		}
		s.logger.Info().Str("opportunity", o.String()).Msg("Opportunity found")
		opportunities = append(opportunities, o)
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].MomentumScore > opportunities[j].MomentumScore
	})

	s.lastScan = s.now()
	s.logger.Info().
		Int("pairs", len(pairs)).
		Int("opportunities", len(opportunities)).
		Dur("duration", s.lastScan.Sub(start)).
		Msg("Scan complete")

	return opportunities, nil
}

// analyze maps a pair into an Opportunity. The API has no 4h figures, so
// they are estimated from the 6h ones.
func analyze(p pair) Opportunity {
	price, _ := strconv.ParseFloat(p.PriceUSD, 64)
	volume4h := p.Volume.H6 * 4 / 6
	change4h := p.PriceChange.H6 * 4 / 6

	symbol := p.BaseToken.Symbol
	if symbol == "" {
		symbol = "UNKNOWN"
	}

	o := Opportunity{
		Mint:           p.BaseToken.Address,
		Symbol:         symbol,
		Name:           p.BaseToken.Name,
		PriceUSD:       price,
		LiquidityUSD:   p.Liquidity.USD,
		Volume24h:      p.Volume.H24,
		Volume4h:       volume4h,
		PriceChange1h:  p.PriceChange.H1,
		PriceChange4h:  change4h,
		PriceChange24h: p.PriceChange.H24,
		MomentumScore:  MomentumScore(p.PriceChange.H1, change4h, p.PriceChange.H24, p.Volume.H24, p.Liquidity.USD),
	}
	if p.PairCreatedAt > 0 {
		created := time.UnixMilli(p.PairCreatedAt)
		o.CreatedAt = &created
	}
	return o
}
