package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MEMETRADER_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MEMETRADER_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "MEMETRADER_WALLET_PRIVATE_KEY")

	// ── RPC ──
	setStr(&cfg.RPC.URL, "MEMETRADER_RPC_URL")
	setUint64(&cfg.RPC.MaxPriorityFee, "MEMETRADER_RPC_MAX_PRIORITY_FEE")
	setUint64(&cfg.RPC.FallbackPriorityFee, "MEMETRADER_RPC_FALLBACK_PRIORITY_FEE")

	// ── Jupiter ──
	setStr(&cfg.Jupiter.QuoteHost, "MEMETRADER_JUPITER_QUOTE_HOST")
	setStr(&cfg.Jupiter.PriceHost, "MEMETRADER_JUPITER_PRICE_HOST")

	// ── PumpFun ──
	setBool(&cfg.PumpFun.Enabled, "MEMETRADER_PUMPFUN_ENABLED")
	setStr(&cfg.PumpFun.TradeHost, "MEMETRADER_PUMPFUN_TRADE_HOST")
	setStr(&cfg.PumpFun.FrontendHost, "MEMETRADER_PUMPFUN_FRONTEND_HOST")

	// ── Trading ──
	setStr(&cfg.Trading.DefaultStrategy, "MEMETRADER_TRADING_DEFAULT_STRATEGY")
	setFloat64(&cfg.Trading.DefaultAmountSOL, "MEMETRADER_TRADING_DEFAULT_AMOUNT_SOL")
	setInt(&cfg.Trading.SlippageBps, "MEMETRADER_TRADING_SLIPPAGE_BPS")

	// ── Execution ──
	setInt(&cfg.Execution.QuoteAttempts, "MEMETRADER_EXECUTION_QUOTE_ATTEMPTS")
	setInt(&cfg.Execution.SendAttempts, "MEMETRADER_EXECUTION_SEND_ATTEMPTS")
	setDuration(&cfg.Execution.QuoteBackoff, "MEMETRADER_EXECUTION_QUOTE_BACKOFF")
	setDuration(&cfg.Execution.SendBackoff, "MEMETRADER_EXECUTION_SEND_BACKOFF")

	// ── Monitor ──
	setDuration(&cfg.Monitor.Interval, "MEMETRADER_MONITOR_INTERVAL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "MEMETRADER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "MEMETRADER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "MEMETRADER_NOTIFY_DISCORD_WEBHOOK_URL")

	// ── Top-level ──
	setStr(&cfg.Mode, "MEMETRADER_MODE")
	setStr(&cfg.LogLevel, "MEMETRADER_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
