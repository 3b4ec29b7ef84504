// Package config defines the top-level configuration for the trading bot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by MEMETRADER_* environment variables.
type Config struct {
	Wallet    WalletConfig    `toml:"wallet"`
	RPC       RPCConfig       `toml:"rpc"`
	Jupiter   JupiterConfig   `toml:"jupiter"`
	PumpFun   PumpFunConfig   `toml:"pumpfun"`
	Trading   TradingConfig   `toml:"trading"`
	Execution ExecutionConfig `toml:"execution"`
	Monitor   MonitorConfig   `toml:"monitor"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// WalletConfig holds the Solana wallet key. PrivateKey accepts base58, a JSON
// byte array, hex, or comma-separated bytes.
type WalletConfig struct {
	PrivateKey string `toml:"private_key"`
}

// RPCConfig holds the Solana RPC endpoint and fee parameters.
type RPCConfig struct {
	URL                 string `toml:"url"`
	MaxPriorityFee      uint64 `toml:"max_priority_fee"`
	FallbackPriorityFee uint64 `toml:"fallback_priority_fee"`
}

// JupiterConfig holds the aggregator API endpoints.
type JupiterConfig struct {
	QuoteHost string `toml:"quote_host"`
	PriceHost string `toml:"price_host"`
}

// PumpFunConfig holds the bonding-curve venue endpoints. Disabled routes all
// buys through the aggregator.
type PumpFunConfig struct {
	Enabled      bool   `toml:"enabled"`
	TradeHost    string `toml:"trade_host"`
	FrontendHost string `toml:"frontend_host"`
}

// TradingConfig holds order sizing defaults.
type TradingConfig struct {
	DefaultStrategy  string  `toml:"default_strategy"`
	DefaultAmountSOL float64 `toml:"default_amount_sol"`
	SlippageBps      int     `toml:"slippage_bps"`
}

// ExecutionConfig holds the pipeline retry policy.
type ExecutionConfig struct {
	QuoteAttempts int      `toml:"quote_attempts"`
	SendAttempts  int      `toml:"send_attempts"`
	QuoteBackoff  duration `toml:"quote_backoff"`
	SendBackoff   duration `toml:"send_backoff"`
}

// MonitorConfig holds the exit-loop polling interval.
type MonitorConfig struct {
	Interval duration `toml:"interval"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string `toml:"telegram_token"`
	TelegramChatID    string `toml:"telegram_chat_id"`
	DiscordWebhookURL string `toml:"discord_webhook_url"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5s", "1m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5s" or "1m".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		RPC: RPCConfig{
			URL:                 "https://api.mainnet-beta.solana.com",
			MaxPriorityFee:      200_000,
			FallbackPriorityFee: 150_000,
		},
		Jupiter: JupiterConfig{
			QuoteHost: "https://quote-api.jup.ag/v6",
			PriceHost: "https://price.jup.ag/v4",
		},
		PumpFun: PumpFunConfig{
			Enabled:      true,
			TradeHost:    "https://pumpportal.fun/api",
			FrontendHost: "https://frontend-api.pump.fun",
		},
		Trading: TradingConfig{
			DefaultStrategy:  "conservative_ath",
			DefaultAmountSOL: 0.1,
			SlippageBps:      100,
		},
		Execution: ExecutionConfig{
			QuoteAttempts: 3,
			SendAttempts:  5,
			QuoteBackoff:  duration{500 * time.Millisecond},
			SendBackoff:   duration{1 * time.Second},
		},
		Monitor: MonitorConfig{
			Interval: duration{10 * time.Second},
		},
		Mode:     "trade",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"trade":     true, // run the monitor loop and accept orders
	"monitor":   true, // exit loop only, no new buys
	"once":      true, // single evaluation cycle, then exit
	"liquidate": true, // sell everything and exit
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validStrategies enumerates the accepted default_strategy values.
var validStrategies = map[string]bool{
	"conservative":     true,
	"aggressive":       true,
	"conservative_ath": true,
	"aggressive_ath":   true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: trade, monitor, once, liquidate)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Wallet.PrivateKey == "" {
		errs = append(errs, "wallet: private_key must be set")
	}

	if c.RPC.URL == "" {
		errs = append(errs, "rpc: url must not be empty")
	}
	if c.RPC.FallbackPriorityFee > c.RPC.MaxPriorityFee {
		errs = append(errs, "rpc: fallback_priority_fee must not exceed max_priority_fee")
	}

	if c.Jupiter.QuoteHost == "" {
		errs = append(errs, "jupiter: quote_host must not be empty")
	}
	if c.Jupiter.PriceHost == "" {
		errs = append(errs, "jupiter: price_host must not be empty")
	}

	if c.PumpFun.Enabled {
		if c.PumpFun.TradeHost == "" {
			errs = append(errs, "pumpfun: trade_host must not be empty when enabled")
		}
		if c.PumpFun.FrontendHost == "" {
			errs = append(errs, "pumpfun: frontend_host must not be empty when enabled")
		}
	}

	if !validStrategies[c.Trading.DefaultStrategy] {
		errs = append(errs, fmt.Sprintf("trading: unknown default_strategy %q", c.Trading.DefaultStrategy))
	}
	if c.Trading.DefaultAmountSOL <= 0 {
		errs = append(errs, "trading: default_amount_sol must be > 0")
	}
	if c.Trading.SlippageBps < 0 || c.Trading.SlippageBps > 5000 {
		errs = append(errs, fmt.Sprintf("trading: slippage_bps must be 0-5000, got %d", c.Trading.SlippageBps))
	}

	if c.Execution.QuoteAttempts < 1 {
		errs = append(errs, "execution: quote_attempts must be >= 1")
	}
	if c.Execution.SendAttempts < 1 {
		errs = append(errs, "execution: send_attempts must be >= 1")
	}

	if c.Monitor.Interval.Duration < time.Second {
		errs = append(errs, "monitor: interval must be >= 1s")
	}

	// Telegram credentials come as a pair or not at all.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
