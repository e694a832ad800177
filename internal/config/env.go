package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnv overrides fields from the environment. Unset variables keep the
// current value; malformed ones are reported together.
func (c *Config) applyEnv() error {
	e := envReader{}

	e.str("ENVIRONMENT", &c.Environment)
	e.boolean("DRY_RUN", &c.DryRun)
	e.str("WALLET_PUBLIC_KEY", &c.Wallet.PublicKey)

	e.float("MAX_POSITION_SIZE_USDC", &c.Trading.MaxPositionSize)
	e.integer("MAX_SIMULTANEOUS_POSITIONS", &c.Trading.MaxPositions)
	e.float("STOP_LOSS_PERCENT", &c.Trading.StopLossPercent)
	e.float("TAKE_PROFIT_PERCENT", &c.Trading.TakeProfitPercent)
	e.float("PORTFOLIO_STOP_LOSS_USDC", &c.Trading.PortfolioStopLoss)
	e.float("STARTING_CAPITAL_USDC", &c.Trading.StartingCapital)
	e.integer("SLIPPAGE_BPS", &c.Trading.SlippageBps)
	e.boolean("ONLY_DIRECT_ROUTES", &c.Trading.OnlyDirectRoutes)

	e.float("MIN_LIQUIDITY_USD", &c.Scanner.MinLiquidityUSD)
	e.float("MIN_TOKEN_AGE_HOURS", &c.Scanner.MinTokenAgeHours)

	e.seconds("SCAN_INTERVAL_SECONDS", &c.Intervals.Scan)
	e.seconds("POSITION_CHECK_INTERVAL_SECONDS", &c.Intervals.PositionCheck)
	e.minutes("HEARTBEAT_INTERVAL_MINUTES", &c.Intervals.Heartbeat)
	e.minutes("EVOLUTION_INTERVAL_MINUTES", &c.Intervals.Evolution)

	e.str("REFERENCE_MINT", &c.Strategy.ReferenceMint)
	e.str("BIRDEYE_API_KEY", &c.API.BirdeyeAPIKey)

	e.str("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	e.str("TELEGRAM_CHAT_ID", &c.Telegram.ChatID)

	e.str("STATE_FILE", &c.Storage.StateFile)
	e.str("TRADES_LOG_FILE", &c.Storage.TradesLog)

	e.str("METRICS_ADDR", &c.Monitoring.Addr)

	if e.str("LOG_LEVEL", &c.Log.Level) {
		c.Log.Level = strings.ToLower(c.Log.Level)
	}
	e.str("LOG_DIR", &c.Log.Dir)

	return e.err()
}

type envReader struct {
	errs []string
}

func (e *envReader) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) fail(key, val string, err error) {
	e.errs = append(e.errs, fmt.Sprintf("%s=%q: %v", key, val, err))
}

func (e *envReader) str(key string, dst *string) bool {
	v, ok := e.lookup(key)
	if ok {
		*dst = v
	}
	return ok
}

func (e *envReader) float(key string, dst *float64) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*dst = f
}

func (e *envReader) integer(key string, dst *int) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*dst = n
}

func (e *envReader) boolean(key string, dst *bool) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*dst = b
}

func (e *envReader) seconds(key string, dst *time.Duration) {
	e.scaled(key, dst, time.Second)
}

func (e *envReader) minutes(key string, dst *time.Duration) {
	e.scaled(key, dst, time.Minute)
}

func (e *envReader) scaled(key string, dst *time.Duration, unit time.Duration) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, v, err)
		return
	}
	*dst = time.Duration(f * float64(unit))
}

func (e *envReader) err() error {
	if len(e.errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid values: %s", strings.Join(e.errs, "; "))
}
