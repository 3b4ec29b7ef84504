package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// TradeMode runs the full bot: a startup health check, the exit monitor, and
// an alert on shutdown. Orders arrive through the Trader API; the mode blocks
// until the context is cancelled.
func (a *App) TradeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting trade mode", slog.String("wallet", deps.Wallet))

	health, err := deps.Trader.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("app: health check: %w", err)
	}
	a.logger.InfoContext(ctx, "health check passed",
		slog.Float64("balance_sol", health.BalanceSOL),
		slog.Int("open_positions", health.OpenPositions),
	)
	deps.Notifier.Alert(ctx, "Bot started",
		fmt.Sprintf("wallet: %s\nbalance: %.4f SOL\nmode: trade", deps.Wallet, health.BalanceSOL))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return deps.Monitor.Run(ctx)
	})

	err = g.Wait()
	deps.Notifier.Alert(context.WithoutCancel(ctx), "Bot stopped", "trade mode shut down")
	return err
}

// MonitorMode runs only the exit loop. Open positions are evaluated and
// closed per their strategies; no new buys are accepted.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode", slog.String("wallet", deps.Wallet))

	if _, err := deps.Trader.HealthCheck(ctx); err != nil {
		return fmt.Errorf("app: health check: %w", err)
	}
	return deps.Monitor.Run(ctx)
}

// OnceMode runs a single evaluation cycle and exits. Useful for cron-driven
// deployments.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting single-cycle mode")

	reports := deps.Trader.MonitorOnce(ctx)
	a.logger.InfoContext(ctx, "cycle complete",
		slog.Int("open_positions", len(deps.Trader.ListPositions())),
		slog.Int("exits", len(reports)),
	)
	return nil
}

// LiquidateMode sells every open position and exits. Positions whose sell
// fails are reported and left open.
func (a *App) LiquidateMode(ctx context.Context, deps *Dependencies) error {
	a.logger.WarnContext(ctx, "starting liquidation mode")

	reports := deps.Trader.EmergencyLiquidateAll(ctx)
	sold, failed := 0, 0
	for _, rep := range reports {
		if rep.Result.Success {
			sold++
		} else {
			failed++
		}
	}
	a.logger.InfoContext(ctx, "liquidation complete",
		slog.Int("sold", sold),
		slog.Int("failed", failed),
	)
	deps.Notifier.Alert(ctx, "Emergency liquidation",
		fmt.Sprintf("sold: %d\nfailed: %d", sold, failed))

	if failed > 0 {
		return fmt.Errorf("app: %d position(s) could not be liquidated", failed)
	}
	return nil
}
