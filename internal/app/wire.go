package app

import (
	"fmt"
	"log/slog"

	"memetrader/internal/config"
	"memetrader/internal/domain"
	"memetrader/internal/executor"
	"memetrader/internal/notify"
	"memetrader/internal/platform/jupiter"
	"memetrader/internal/platform/pumpfun"
	"memetrader/internal/platform/solana"
	"memetrader/internal/service"
	"memetrader/internal/store/memory"
)

// Dependencies bundles everything the application modes need to operate.
type Dependencies struct {
	Trader   *service.Trader
	Monitor  *service.Monitor
	Notifier *notify.Notifier
	Wallet   string
}

// Wire constructs all concrete dependency implementations from the given
// configuration.
func Wire(cfg *config.Config) (*Dependencies, error) {
	logger := slog.Default()

	keypair, err := solana.ParseKeypair(cfg.Wallet.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("wire: wallet: %w", err)
	}

	rpc := solana.NewRPCClient(cfg.RPC.URL, cfg.RPC.MaxPriorityFee, cfg.RPC.FallbackPriorityFee)
	jup := jupiter.NewClient(cfg.Jupiter.QuoteHost, cfg.Jupiter.PriceHost)

	var pump *pumpfun.Client
	var prober service.CurveProber
	if cfg.PumpFun.Enabled {
		pump = pumpfun.NewClient(cfg.PumpFun.TradeHost, cfg.PumpFun.FrontendHost)
		prober = pump
	}

	pipeline := executor.NewPipeline(rpc, keypair, rpc, logger)
	pipeline.SetRetryPolicy(
		cfg.Execution.QuoteAttempts,
		cfg.Execution.SendAttempts,
		cfg.Execution.QuoteBackoff.Duration,
		cfg.Execution.SendBackoff.Duration,
	)

	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	notifier := notify.NewNotifier(senders, logger)

	trader := service.NewTrader(service.Deps{
		Store:    memory.NewPositionStore(),
		Pipeline: pipeline,
		Jupiter:  jup,
		PumpFun:  gatewayOrNil(pump),
		Prices:   jup,
		Chain:    rpc,
		Signer:   keypair,
		Selector: service.NewVenueSelector(prober),
		Notifier: notifier,
		Logger:   logger,
	})

	return &Dependencies{
		Trader:   trader,
		Monitor:  service.NewMonitor(trader, cfg.Monitor.Interval.Duration, logger),
		Notifier: notifier,
		Wallet:   keypair.PublicKey(),
	}, nil
}

// gatewayOrNil avoids storing a typed-nil *pumpfun.Client inside the
// OrderGateway interface when the venue is disabled.
func gatewayOrNil(c *pumpfun.Client) domain.OrderGateway {
	if c == nil {
		return nil
	}
	return c
}
