package common

import (
	"fmt"
	"time"

	"github.com/ducminhle1904/solana-momentum-bot/internal/logger"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/data"
	"github.com/ducminhle1904/solana-momentum-bot/pkg/types"
	"github.com/rs/zerolog"
)

// NewCLILogger returns a console-only logger for the offline tools
func NewCLILogger(flags *CommonFlags) (zerolog.Logger, error) {
	log, _, err := logger.New(logger.Config{Level: flags.LogLevel(), Format: "console"})
	return log, err
}

// LoadCandles reads a candle CSV and keeps the trailing period when one is
// given ("30d", "168h")
func LoadCandles(path, period string, log zerolog.Logger) ([]types.OHLCV, error) {
	candles, err := data.NewCSVProvider(log).LoadData(path)
	if err != nil {
		return nil, err
	}
	if period == "" {
		return candles, nil
	}

	d, ok := data.ParseTrailingPeriod(period)
	if !ok {
		return nil, fmt.Errorf("invalid period %q", period)
	}
	filtered := data.FilterByPeriod(candles, d)
	log.Debug().
		Int("loaded", len(candles)).
		Int("kept", len(filtered)).
		Str("window", d.Round(time.Hour).String()).
		Msg("Applied trailing period")
	return filtered, nil
}
