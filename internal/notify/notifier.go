// Package notify delivers trade and exit alerts to operator channels. Every
// registered sender receives every alert; one channel failing never blocks
// the others, and delivery failures never fail the trade that triggered them.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"memetrader/internal/domain"
)

// Sender is one delivery channel.
type Sender interface {
	// Send delivers an alert with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name identifies the channel in logs (e.g. "telegram").
	Name() string
}

// Notifier formats trading events and fans them out to all senders. It
// satisfies the service layer's notification contract.
type Notifier struct {
	senders []Sender
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders. With no
// senders it is a silent no-op, so callers never need a nil check.
func NewNotifier(senders []Sender, logger *slog.Logger) *Notifier {
	return &Notifier{
		senders: senders,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// TradeExecuted announces a filled buy or sell.
func (n *Notifier) TradeExecuted(ctx context.Context, res domain.TradeResult) {
	var title, body string
	switch res.Side {
	case domain.SideBuy:
		title = "Buy filled"
		body = fmt.Sprintf("token: %s\nvenue: %s\nspent: %.4f SOL\nreceived: %d units\nsig: %s",
			res.TokenMint, res.Venue, res.SOLSpent, res.TokensReceived, res.Signature)
	case domain.SideSell:
		title = "Sell filled"
		body = fmt.Sprintf("token: %s\nreceived: %.4f SOL\nsig: %s",
			res.TokenMint, res.SOLReceived, res.Signature)
	}
	n.dispatch(ctx, title, body)
}

// PositionExited announces an exit decided by the monitoring loop.
func (n *Notifier) PositionExited(ctx context.Context, rep domain.ExitReport) {
	title := "Position exited"
	body := fmt.Sprintf("token: %s\nstrategy: %s\nreason: %s\nreceived: %.4f SOL\nsig: %s",
		rep.TokenMint, rep.Strategy, rep.Reason, rep.Result.SOLReceived, rep.Result.Signature)
	n.dispatch(ctx, title, body)
}

// Alert delivers a free-form operator message (startup, shutdown, emergency
// liquidation).
func (n *Notifier) Alert(ctx context.Context, title, message string) {
	n.dispatch(ctx, title, message)
}

func (n *Notifier) dispatch(ctx context.Context, title, message string) {
	if len(n.senders) == 0 {
		return
	}

	var failed []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			failed = append(failed, s.Name())
			continue
		}
		n.logger.DebugContext(ctx, "alert sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}
	if len(failed) > 0 {
		n.logger.WarnContext(ctx, "partial alert delivery",
			slog.String("failed", strings.Join(failed, ",")),
		)
	}
}
