package birdeye

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/pkg/httpclient"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/types"
)

const DefaultBaseURL = "https://public-api.birdeye.so"

type ohlcvResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Items []struct {
			Open     float64 `json:"o"`
			High     float64 `json:"h"`
			Low      float64 `json:"l"`
			Close    float64 `json:"c"`
			Volume   float64 `json:"v"`
			UnixTime int64   `json:"unixTime"`
		} `json:"items"`
	} `json:"data"`
	Message string `json:"message"`
}

// Client implements exchange.CandleFeed over the Birdeye OHLCV endpoint.
// The API key and chain header are set on the http client.
type Client struct {
	http    *httpclient.Client
	baseURL string
	now     func() time.Time
}

// NewClient creates a candle feed client
func NewClient(hc *httpclient.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: hc, baseURL: baseURL, now: time.Now}
}

// Headers returns the request headers Birdeye expects
func Headers(apiKey string) map[string]string {
	return map[string]string{
		"X-API-KEY": apiKey,
		"x-chain":   "solana",
	}
}

// Candles returns chronological candles of the given interval ("1m", "15m",
// "1H", ...) covering the last window
func (c *Client) Candles(ctx context.Context, mint string, interval string, window time.Duration) ([]types.OHLCV, error) {
	to := c.now()
	from := to.Add(-window)

	query := url.Values{}
	query.Set("address", mint)
	query.Set("type", interval)
	query.Set("time_from", strconv.FormatInt(from.Unix(), 10))
	query.Set("time_to", strconv.FormatInt(to.Unix(), 10))

	var resp ohlcvResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/defi/ohlcv", query, &resp); err != nil {
		return nil, fmt.Errorf("birdeye ohlcv failed: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("birdeye ohlcv failed: %s", resp.Message)
	}

	candles := make([]types.OHLCV, 0, len(resp.Data.Items))
	for _, item := range resp.Data.Items {
		candles = append(candles, types.OHLCV{
			Open:      item.Open,
			High:      item.High,
			Low:       item.Low,
			Close:     item.Close,
			Volume:    item.Volume,
			Timestamp: time.Unix(item.UnixTime, 0).UTC(),
		})
	}
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
	return candles, nil
}
