// Package config provides configuration management for the strategy engine.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the complete engine configuration.
type Config struct {
	Solana     SolanaSettings     `mapstructure:"solana"`
	Jupiter    JupiterSettings    `mapstructure:"jupiter"`
	Sources    SourceSettings     `mapstructure:"sources"`
	Arbitrage  ArbitrageSettings  `mapstructure:"arbitrage"`
	Trading    TradingSettings    `mapstructure:"trading"`
	Monitor    MonitorSettings    `mapstructure:"monitor"`
	Prediction PredictionSettings `mapstructure:"prediction"`
	AutoTrade  AutoTradeSettings  `mapstructure:"auto_trade"`
	DAO        DAOSettings        `mapstructure:"dao"`
	PumpFun    PumpFunSettings    `mapstructure:"pumpfun"`
	Slack      SlackSettings      `mapstructure:"slack"`
	Logging    LoggingSettings    `mapstructure:"logging"`
	Metrics    MetricsSettings    `mapstructure:"metrics"`
}

// SolanaSettings holds RPC and signer configuration.
type SolanaSettings struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	PrivateKey     string        `mapstructure:"private_key"` // Base58; a throwaway key is generated when empty
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout"`
	ConfirmPoll    time.Duration `mapstructure:"confirm_poll"`
}

// JupiterSettings holds Jupiter aggregator configuration.
type JupiterSettings struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// SourceSettings holds the endpoints of the auxiliary price and data sources.
type SourceSettings struct {
	OrcaURL        string `mapstructure:"orca_url"`
	RaydiumURL     string `mapstructure:"raydium_url"`
	DexscreenerURL string `mapstructure:"dexscreener_url"`
	SentimentURL   string `mapstructure:"sentiment_url"` // Empty disables remote sentiment
}

// ArbitrageSettings holds arbitrage-specific configuration.
type ArbitrageSettings struct {
	SpreadThreshold float64 `mapstructure:"spread_threshold"` // Fraction, 0.01 = 1%
	DefaultAmount   uint64  `mapstructure:"default_amount"`
}

// TradingSettings holds swap execution configuration.
type TradingSettings struct {
	SlippageBps      int  `mapstructure:"slippage_bps"`
	AutoTradeEnabled bool `mapstructure:"auto_trade_enabled"`
}

// MonitorSettings holds position monitor configuration.
type MonitorSettings struct {
	Interval time.Duration `mapstructure:"interval"`
	ExitTo   string        `mapstructure:"exit_to"`
}

// PredictionSettings holds prediction evaluator configuration.
type PredictionSettings struct {
	Samples         int           `mapstructure:"samples"`
	MinSamples      int           `mapstructure:"min_samples"`
	SampleDelay     time.Duration `mapstructure:"sample_delay"`
	ConfidenceFloor float64       `mapstructure:"confidence_floor"`
}

// AutoTradeSettings holds the recurring buy/sell scheduler configuration.
type AutoTradeSettings struct {
	Interval time.Duration `mapstructure:"interval"`
}

// DAOSettings holds the DAO strategy configuration.
type DAOSettings struct {
	TokenMint string `mapstructure:"token_mint"`
}

// PumpFunSettings holds token discovery feed configuration.
type PumpFunSettings struct {
	WebsocketURL   string        `mapstructure:"websocket_url"`
	TradeURL       string        `mapstructure:"trade_url"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	SlippagePct    int           `mapstructure:"slippage_pct"`
	PriorityFee    float64       `mapstructure:"priority_fee"`
	Pool           string        `mapstructure:"pool"`
}

// SlackSettings holds Slack notification configuration.
type SlackSettings struct {
	APIToken string `mapstructure:"api_token"`
	Channel  string `mapstructure:"channel"`
	Enabled  bool   `mapstructure:"enabled"`
}

// LoggingSettings holds logging configuration.
type LoggingSettings struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // "json" or "text"
	File       string `mapstructure:"file"`   // Empty logs to stderr only
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// MetricsSettings holds Prometheus exporter configuration.
type MetricsSettings struct {
	Addr string `mapstructure:"addr"` // Empty disables the HTTP exporter
}

// Default token mints used by the engine.
const (
	DefaultDAOTokenMint = "AbD84YXFFGSDiJ8hQtNm8cdKyTBB4o3PGrEjLJ9gdaos"
)

// envBindings maps config keys to the environment variables the engine honours.
var envBindings = map[string]string{
	"solana.rpc_url":              "SOLANA_RPC_URL",
	"solana.private_key":          "SOLANA_PRIVATE_KEY",
	"jupiter.api_key":             "JUPITER_API_KEY",
	"arbitrage.spread_threshold":  "ARBITRAGE_SPREAD_THRESHOLD",
	"trading.auto_trade_enabled":  "AUTO_TRADE_ENABLED",
	"trading.slippage_bps":        "SLIPPAGE_BPS",
	"sources.sentiment_url":       "SENTIMENT_API_URL",
	"slack.api_token":             "SLACK_API_TOKEN",
	"slack.channel":               "SLACK_CHANNEL",
	"logging.level":               "LOG_LEVEL",
	"metrics.addr":                "METRICS_ADDR",
	"dao.token_mint":              "DAO_TOKEN_MINT",
	"monitor.exit_to":             "EXIT_TO",
	"prediction.confidence_floor": "PREDICTION_CONFIDENCE_FLOOR",
	"auto_trade.interval_ms":      "AUTO_BUY_SELL_INTERVAL_MS",
}

func setDefaults(v *viper.Viper) {
	// Solana defaults
	v.SetDefault("solana.rpc_url", "https://api.mainnet-beta.solana.com")
	v.SetDefault("solana.private_key", "")
	v.SetDefault("solana.confirm_timeout", 60*time.Second)
	v.SetDefault("solana.confirm_poll", 2*time.Second)

	// Jupiter defaults
	v.SetDefault("jupiter.base_url", "https://lite-api.jup.ag/swap/v1")
	v.SetDefault("jupiter.api_key", "")

	// Source defaults
	v.SetDefault("sources.orca_url", "https://api.orca.so/v1/quote")
	v.SetDefault("sources.raydium_url", "https://api.raydium.io/v2/sdk/quote")
	v.SetDefault("sources.dexscreener_url", "https://api.dexscreener.com/latest/dex/tokens")
	v.SetDefault("sources.sentiment_url", "")

	// Strategy defaults
	v.SetDefault("arbitrage.spread_threshold", 0.01)
	v.SetDefault("arbitrage.default_amount", 1_000_000)
	v.SetDefault("trading.slippage_bps", 50)
	v.SetDefault("trading.auto_trade_enabled", false)
	v.SetDefault("monitor.interval", 10*time.Second)
	v.SetDefault("monitor.exit_to", "USDC")
	v.SetDefault("prediction.samples", 30)
	v.SetDefault("prediction.min_samples", 15)
	v.SetDefault("prediction.sample_delay", 300*time.Millisecond)
	v.SetDefault("prediction.confidence_floor", 0.3)
	v.SetDefault("auto_trade.interval", 60*time.Second)
	v.SetDefault("dao.token_mint", DefaultDAOTokenMint)

	// Discovery feed defaults
	v.SetDefault("pumpfun.websocket_url", "wss://pumpportal.fun/api/data")
	v.SetDefault("pumpfun.trade_url", "https://pumpportal.fun/api/trade-local")
	v.SetDefault("pumpfun.max_tokens", 50)
	v.SetDefault("pumpfun.reconnect_delay", 5*time.Second)
	v.SetDefault("pumpfun.slippage_pct", 10)
	v.SetDefault("pumpfun.priority_fee", 0.00001)
	v.SetDefault("pumpfun.pool", "pump")

	// Notification defaults
	v.SetDefault("slack.enabled", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)

	v.SetDefault("metrics.addr", "")
}

// DefaultConfig returns the configuration built from defaults only.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads configuration from defaults, an optional .env file, an optional
// YAML config file and the environment, in increasing order of precedence.
func Load(configPath string) (*Config, error) {
	// A missing .env file is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("solstrat")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("SOLSTRAT")
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, "SOLSTRAT_"+env, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; use defaults and environment
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// AUTO_BUY_SELL_INTERVAL_MS is expressed in milliseconds
	if ms := v.GetInt64("auto_trade.interval_ms"); ms > 0 {
		cfg.AutoTrade.Interval = time.Duration(ms) * time.Millisecond
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Arbitrage.SpreadThreshold < 0 {
		return fmt.Errorf("arbitrage.spread_threshold cannot be negative")
	}
	if c.Trading.SlippageBps < 0 || c.Trading.SlippageBps > 10_000 {
		return fmt.Errorf("trading.slippage_bps must be between 0 and 10000")
	}
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive")
	}
	if c.Monitor.ExitTo != "USDC" && c.Monitor.ExitTo != "SOL" {
		return fmt.Errorf("monitor.exit_to must be USDC or SOL")
	}
	if c.Prediction.Samples <= 0 {
		return fmt.Errorf("prediction.samples must be positive")
	}
	if c.Prediction.MinSamples <= 0 || c.Prediction.MinSamples > c.Prediction.Samples {
		return fmt.Errorf("prediction.min_samples must be between 1 and prediction.samples")
	}
	if c.Prediction.SampleDelay < 0 {
		return fmt.Errorf("prediction.sample_delay cannot be negative")
	}
	if c.Prediction.ConfidenceFloor <= 0 || c.Prediction.ConfidenceFloor > 1 {
		return fmt.Errorf("prediction.confidence_floor must be in (0, 1]")
	}
	if c.AutoTrade.Interval <= 0 {
		return fmt.Errorf("auto_trade.interval must be positive")
	}
	if c.DAO.TokenMint == "" {
		return fmt.Errorf("dao.token_mint is required")
	}
	return nil
}
