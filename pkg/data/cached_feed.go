package data

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/pkg/types"
	"golang.org/x/sync/singleflight"
)

// CandleSource fetches candles for a mint
type CandleSource interface {
	Candles(ctx context.Context, mint string, interval string, window time.Duration) ([]types.OHLCV, error)
}

type cacheEntry struct {
	data    []types.OHLCV
	fetched time.Time
}

// CachedFeed wraps a CandleSource with a TTL cache. Concurrent misses for
// the same key share one upstream call.
type CachedFeed struct {
	source CandleSource
	ttl    time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
	group singleflight.Group
	now   func() time.Time

	hits, misses int64
}

// NewCachedFeed creates a cache in front of source. A non-positive ttl disables caching.
func NewCachedFeed(source CandleSource, ttl time.Duration) *CachedFeed {
	return &CachedFeed{
		source: source,
		ttl:    ttl,
		cache:  make(map[string]cacheEntry),
		now:    time.Now,
	}
}

func (c *CachedFeed) Candles(ctx context.Context, mint string, interval string, window time.Duration) ([]types.OHLCV, error) {
	key := fmt.Sprintf("%s|%s|%s", mint, interval, window)

	if c.ttl > 0 {
		c.mu.RLock()
		entry, ok := c.cache[key]
		c.mu.RUnlock()
		if ok && c.now().Sub(entry.fetched) < c.ttl {
			c.mu.Lock()
			c.hits++
			c.mu.Unlock()
			return copyCandles(entry.data), nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		data, err := c.source.Candles(ctx, mint, interval, window)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.misses++
		c.cache[key] = cacheEntry{data: copyCandles(data), fetched: c.now()}
		c.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return copyCandles(v.([]types.OHLCV)), nil
}

// Stats returns cache hit and miss counts
func (c *CachedFeed) Stats() (hits, misses int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Clear drops every cached entry
func (c *CachedFeed) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]cacheEntry)
}

func copyCandles(data []types.OHLCV) []types.OHLCV {
	out := make([]types.OHLCV, len(data))
	copy(out, data)
	return out
}
