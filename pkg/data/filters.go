package data

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/pkg/types"
)

// FilterByPeriod keeps the candles within period of the latest one
func FilterByPeriod(data []types.OHLCV, period time.Duration) []types.OHLCV {
	if period <= 0 || len(data) == 0 {
		return data
	}

	cutoff := data[len(data)-1].Timestamp.Add(-period)
	start := sort.Search(len(data), func(i int) bool {
		return !data[i].Timestamp.Before(cutoff)
	})
	return data[start:]
}

// FilterByDateRange keeps candles with start <= timestamp <= end
func FilterByDateRange(data []types.OHLCV, start, end time.Time) []types.OHLCV {
	var filtered []types.OHLCV
	for _, candle := range data {
		if !candle.Timestamp.Before(start) && !candle.Timestamp.After(end) {
			filtered = append(filtered, candle)
		}
	}
	return filtered
}

// ValidateTimeSequence ensures data is strictly chronological
func ValidateTimeSequence(data []types.OHLCV) error {
	for i := 1; i < len(data); i++ {
		if data[i].Timestamp.Before(data[i-1].Timestamp) {
			return fmt.Errorf("data not in chronological order at index %d: %s comes after %s",
				i, data[i].Timestamp.Format(time.RFC3339), data[i-1].Timestamp.Format(time.RFC3339))
		}
		if data[i].Timestamp.Equal(data[i-1].Timestamp) {
			return fmt.Errorf("duplicate timestamp at index %d: %s",
				i, data[i].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

// SortByTimestamp returns a chronologically sorted copy
func SortByTimestamp(data []types.OHLCV) []types.OHLCV {
	sorted := make([]types.OHLCV, len(data))
	copy(sorted, data)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// RemoveDuplicates drops repeated timestamps, keeping the first occurrence
func RemoveDuplicates(data []types.OHLCV) []types.OHLCV {
	if len(data) <= 1 {
		return data
	}

	filtered := make([]types.OHLCV, 0, len(data))
	seen := make(map[int64]bool, len(data))
	for _, candle := range data {
		ts := candle.Timestamp.UnixNano()
		if !seen[ts] {
			seen[ts] = true
			filtered = append(filtered, candle)
		}
	}
	return filtered
}

// ParseTrailingPeriod parses "Nd" day counts ("30d", "7days") as well as
// plain durations ("168h")
func ParseTrailingPeriod(s string) (time.Duration, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "ays")
	if n, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(n)
		if err != nil || days <= 0 {
			return 0, false
		}
		return time.Duration(days) * 24 * time.Hour, true
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d, true
	}
	return 0, false
}
