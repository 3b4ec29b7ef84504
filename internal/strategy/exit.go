// Package strategy contains the pure exit-decision logic. It never touches
// the network or the store; callers update the watermark first and pass the
// post-update tracker in.
package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"memetrader/internal/domain"
)

// Decision is the outcome of evaluating one position against one price.
type Decision struct {
	Exit        bool
	Reason      string
	ProfitPct   decimal.Decimal
	PullbackPct decimal.Decimal
}

// Evaluate decides whether a position should exit at the current price.
//
// Fixed-threshold strategies exit when profit from entry crosses the
// take-profit or stop-loss bound, inclusive on both sides. Trailing strategies
// exit only when profit from entry has reached the minimum AND the pullback
// from the watermark has reached the trigger; either condition alone holds
// the position. The tracker must already reflect the current observation
// (watermark raised this cycle), so a fresh all-time-high is honored
// immediately.
func Evaluate(pos domain.Position, tracker domain.ATHTracker, price decimal.Decimal) Decision {
	profit := domain.ProfitPct(pos.EntryPrice, price)

	th := pos.Strategy.Thresholds()
	if !th.Trailing {
		d := Decision{ProfitPct: profit}
		switch {
		case profit.GreaterThanOrEqual(th.TakeProfitPct):
			d.Exit = true
			d.Reason = fmt.Sprintf("take-profit: %s%% >= %s%%", profit.StringFixed(2), th.TakeProfitPct)
		case profit.LessThanOrEqual(th.StopLossPct):
			d.Exit = true
			d.Reason = fmt.Sprintf("stop-loss: %s%% <= %s%%", profit.StringFixed(2), th.StopLossPct)
		}
		return d
	}

	pullback := tracker.PullbackFromATHPct(price)
	d := Decision{ProfitPct: profit, PullbackPct: pullback}

	profitOK := profit.GreaterThanOrEqual(tracker.MinProfitPct)
	pullbackOK := pullback.GreaterThanOrEqual(tracker.PullbackPct)
	if profitOK && pullbackOK {
		d.Exit = true
		d.Reason = fmt.Sprintf("ath pullback: profit %s%% >= %s%%, pullback %s%% >= %s%%",
			profit.StringFixed(2), tracker.MinProfitPct,
			pullback.StringFixed(2), tracker.PullbackPct)
	}
	return d
}
