package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/ducminhle1904/solana-momentum-bot/internal/logger"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete bot configuration
type Config struct {
	Environment string `yaml:"environment" default:"development"`
	// DryRun signs nothing: quotes are real, transactions are not submitted
	DryRun bool `yaml:"dry_run" default:"true"`

	Wallet     WalletConfig     `yaml:"wallet"`
	Trading    TradingConfig    `yaml:"trading"`
	Scanner    ScannerConfig    `yaml:"scanner"`
	Intervals  IntervalsConfig  `yaml:"intervals"`
	Strategy   StrategyConfig   `yaml:"strategy"`
	API        APIConfig        `yaml:"api"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Storage    StorageConfig    `yaml:"storage"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Log        logger.Config    `yaml:"log"`
}

type WalletConfig struct {
	PublicKey string `yaml:"public_key"`
}

// TradingConfig holds sizing and exit rules. Amounts are in USDC.
type TradingConfig struct {
	MaxPositionSize   float64 `yaml:"max_position_size" default:"50" validate:"gt=0"`
	MaxPositions      int     `yaml:"max_positions" default:"3" validate:"gt=0"`
	StopLossPercent   float64 `yaml:"stop_loss_percent" default:"-15" validate:"lt=0"`
	TakeProfitPercent float64 `yaml:"take_profit_percent" default:"30" validate:"gt=0"`
	PortfolioStopLoss float64 `yaml:"portfolio_stop_loss" default:"150" validate:"gte=0"`
	StartingCapital   float64 `yaml:"starting_capital" default:"300" validate:"gt=0"`
	SlippageBps       int     `yaml:"slippage_bps" default:"50" validate:"gte=1,lte=5000"`
	// OnlyDirectRoutes restricts Jupiter quotes to single-hop routes
	OnlyDirectRoutes bool `yaml:"only_direct_routes"`
	// TopOpportunities is how many ranked opportunities each scan considers
	TopOpportunities int `yaml:"top_opportunities" default:"3" validate:"gt=0"`
}

type ScannerConfig struct {
	MinLiquidityUSD  float64 `yaml:"min_liquidity_usd" default:"1000000" validate:"gte=0"`
	MinTokenAgeHours float64 `yaml:"min_token_age_hours" default:"24" validate:"gte=0"`
	MinChange4h      float64 `yaml:"min_change_4h" default:"5"`
}

type IntervalsConfig struct {
	Scan          time.Duration `yaml:"scan" default:"15s" validate:"gt=0"`
	PositionCheck time.Duration `yaml:"position_check" default:"10s" validate:"gt=0"`
	Evolution     time.Duration `yaml:"evolution" default:"1h" validate:"gt=0"`
	Heartbeat     time.Duration `yaml:"heartbeat" default:"5m" validate:"gt=0"`
}

// StrategyConfig controls candle sourcing and the evolution loop
type StrategyConfig struct {
	// ReferenceMint supplies the candles used for regime detection and evolution
	ReferenceMint  string        `yaml:"reference_mint" default:"So11111111111111111111111111111111111111112" validate:"required"`
	CandleInterval string        `yaml:"candle_interval" default:"15m" validate:"required"`
	CandleWindow   time.Duration `yaml:"candle_window" default:"72h" validate:"gt=0"`
	CandleCacheTTL time.Duration `yaml:"candle_cache_ttl" default:"1m"`
	Variants       int           `yaml:"variants" default:"10" validate:"gt=0"`
	Workers        int           `yaml:"workers" default:"4" validate:"gt=0"`
	LeaderboardMax int           `yaml:"leaderboard_max" default:"20" validate:"gt=0"`
}

type APIConfig struct {
	JupiterQuoteURL string        `yaml:"jupiter_quote_url" default:"https://quote-api.jup.ag/v6" validate:"url"`
	JupiterPriceURL string        `yaml:"jupiter_price_url" default:"https://api.jup.ag/price/v2" validate:"url"`
	BirdeyeURL      string        `yaml:"birdeye_url" default:"https://public-api.birdeye.so" validate:"url"`
	BirdeyeAPIKey   string        `yaml:"birdeye_api_key"`
	DexScreenerURL  string        `yaml:"dexscreener_url" default:"https://api.dexscreener.com/latest/dex/search?q=solana" validate:"url"`
	Timeout         time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
	RequestsPerSec  float64       `yaml:"requests_per_sec" default:"5" validate:"gt=0"`
	MaxRetries      int           `yaml:"max_retries" default:"3" validate:"gte=0"`

	// BreakerThreshold consecutive upstream failures pause an API for BreakerCooldown
	BreakerThreshold int           `yaml:"breaker_threshold" default:"5" validate:"gte=0"`
	BreakerCooldown  time.Duration `yaml:"breaker_cooldown" default:"30s"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// Enabled is true when both token and chat are set
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

type StorageConfig struct {
	StateFile    string `yaml:"state_file" default:"data/bot_state.json" validate:"required"`
	TradesLog    string `yaml:"trades_log" default:"data/trades.jsonl" validate:"required"`
	RegimeLog    string `yaml:"regime_log" default:"data/regime_history.jsonl"`
	HeartbeatLog string `yaml:"heartbeat_log" default:"data/heartbeats.jsonl"`
	EvolutionLog string `yaml:"evolution_log" default:"data/evolution_tree.md"`
	Leaderboard  string `yaml:"leaderboard" default:"data/leaderboard.json"`
	StatusFile   string `yaml:"status_file" default:"data/bot_status.json"`
}

type MonitoringConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Addr    string `yaml:"addr" default:":9090"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("invalid config defaults: %v", err))
	}
	return &c
}

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file and the process environment, in that order, then
// validates it
func Load(path, envFile string) (*Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// loadEnvFile loads envFile, or .env when empty. A missing default file is fine.
func loadEnvFile(envFile string) error {
	if envFile == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("load env file %s: %w", envFile, err)
	}
	return nil
}

var validate = validator.New()

// Validate checks field constraints and the cross-field rules
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	var errs []string
	if c.Trading.StartingCapital < c.Trading.MaxPositionSize {
		errs = append(errs, "starting capital must be >= max position size")
	}
	if !c.DryRun && c.Wallet.PublicKey == "" {
		errs = append(errs, "wallet public key is required when dry_run is off")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		errs = append(errs, "telegram needs both bot token and chat id")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
