package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StrategyType selects the exit policy applied to a position. The numeric
// thresholds for each variant live in strategyThresholds; evaluation happens
// in the strategy package.
type StrategyType string

const (
	// StrategyConservative exits at +15% take-profit or -5% stop-loss.
	StrategyConservative StrategyType = "conservative"
	// StrategyAggressive exits at +50% take-profit or -15% stop-loss.
	StrategyAggressive StrategyType = "aggressive"
	// StrategyConservativeATH exits on an 8% pullback from the high watermark
	// once at least 3% profit from entry has been banked.
	StrategyConservativeATH StrategyType = "conservative_ath"
	// StrategyAggressiveATH exits on a 12% pullback from the high watermark
	// once at least 5% profit from entry has been banked.
	StrategyAggressiveATH StrategyType = "aggressive_ath"
)

// Thresholds carries the numeric parameters of one strategy variant. For
// fixed-threshold strategies only TakeProfitPct/StopLossPct are meaningful;
// for trailing strategies only PullbackPct/MinProfitPct are.
type Thresholds struct {
	Trailing      bool
	TakeProfitPct decimal.Decimal
	StopLossPct   decimal.Decimal
	PullbackPct   decimal.Decimal
	MinProfitPct  decimal.Decimal
}

var strategyThresholds = map[StrategyType]Thresholds{
	StrategyConservative: {
		TakeProfitPct: decimal.NewFromInt(15),
		StopLossPct:   decimal.NewFromInt(-5),
		// Unused for exits; kept so the ATH tracker has uniform defaults.
		PullbackPct:  decimal.NewFromInt(10),
		MinProfitPct: decimal.NewFromInt(2),
	},
	StrategyAggressive: {
		TakeProfitPct: decimal.NewFromInt(50),
		StopLossPct:   decimal.NewFromInt(-15),
		PullbackPct:   decimal.NewFromInt(10),
		MinProfitPct:  decimal.NewFromInt(2),
	},
	StrategyConservativeATH: {
		Trailing:     true,
		PullbackPct:  decimal.NewFromInt(8),
		MinProfitPct: decimal.NewFromInt(3),
	},
	StrategyAggressiveATH: {
		Trailing:     true,
		PullbackPct:  decimal.NewFromInt(12),
		MinProfitPct: decimal.NewFromInt(5),
	},
}

// Valid reports whether s is one of the four known strategy variants.
func (s StrategyType) Valid() bool {
	_, ok := strategyThresholds[s]
	return ok
}

// Thresholds returns the numeric parameters for the strategy variant.
// Unknown variants fall back to the conservative ATH parameters.
func (s StrategyType) Thresholds() Thresholds {
	if t, ok := strategyThresholds[s]; ok {
		return t
	}
	return strategyThresholds[StrategyConservativeATH]
}

// Position is one open holding, keyed by token mint. All fields are fixed at
// fill time; the position is removed as a whole on exit.
type Position struct {
	TokenMint    string
	EntryPrice   decimal.Decimal
	AmountTokens uint64 // atomic token units received at fill
	EntryTime    time.Time
	Strategy     StrategyType
	BuySignature string
}

// ATHTracker is the rolling high-watermark record paired with a Position.
// ATHPrice never decreases and is always >= EntryPrice. A tracker exists for
// every position, including fixed-threshold strategies, so status reporting
// is uniform.
type ATHTracker struct {
	EntryPrice   decimal.Decimal
	ATHPrice     decimal.Decimal
	LastPrice    decimal.Decimal
	PullbackPct  decimal.Decimal
	MinProfitPct decimal.Decimal
	LastUpdated  time.Time
}

// NewATHTracker seeds a tracker at the fill price with the strategy's
// watermark thresholds.
func NewATHTracker(strategy StrategyType, entryPrice decimal.Decimal, now time.Time) ATHTracker {
	t := strategy.Thresholds()
	return ATHTracker{
		EntryPrice:   entryPrice,
		ATHPrice:     entryPrice,
		LastPrice:    entryPrice,
		PullbackPct:  t.PullbackPct,
		MinProfitPct: t.MinProfitPct,
		LastUpdated:  now,
	}
}

// ProfitPct returns the percentage gain of price over the tracker's entry
// price. A zero entry price yields zero, never a division error.
func (t ATHTracker) ProfitPct(price decimal.Decimal) decimal.Decimal {
	return ProfitPct(t.EntryPrice, price)
}

// PullbackFromATHPct returns the percentage decline of price from the
// watermark. A zero watermark yields zero.
func (t ATHTracker) PullbackFromATHPct(price decimal.Decimal) decimal.Decimal {
	if !t.ATHPrice.IsPositive() {
		return decimal.Zero
	}
	return t.ATHPrice.Sub(price).Div(t.ATHPrice).Mul(hundred)
}

var hundred = decimal.NewFromInt(100)

// ProfitPct computes (current-entry)/entry*100, with a zero entry price
// defined as zero profit.
func ProfitPct(entry, current decimal.Decimal) decimal.Decimal {
	if !entry.IsPositive() {
		return decimal.Zero
	}
	return current.Sub(entry).Div(entry).Mul(hundred)
}
