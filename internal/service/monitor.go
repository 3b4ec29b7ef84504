package service

import (
	"context"
	"log/slog"
	"time"
)

// Monitor drives the exit loop: every interval it runs one full evaluation
// cycle over the open positions.
type Monitor struct {
	trader   *Trader
	interval time.Duration
	logger   *slog.Logger
}

// NewMonitor creates a Monitor polling at the given interval.
func NewMonitor(trader *Trader, interval time.Duration, logger *slog.Logger) *Monitor {
	return &Monitor{
		trader:   trader,
		interval: interval,
		logger:   logger.With(slog.String("component", "monitor")),
	}
}

// Run evaluates positions until the context is cancelled. The first cycle
// runs immediately rather than one interval in.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started", slog.Duration("interval", m.interval))
	defer m.logger.Info("monitor stopped")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.cycle(ctx)
		}
	}
}

func (m *Monitor) cycle(ctx context.Context) {
	reports := m.trader.MonitorOnce(ctx)
	for _, rep := range reports {
		if rep.Result.Success {
			m.logger.Info("position exited",
				slog.String("token", rep.TokenMint),
				slog.String("strategy", string(rep.Strategy)),
				slog.String("reason", rep.Reason),
				slog.Float64("sol_received", rep.Result.SOLReceived),
			)
		}
	}
}
