// Package service holds the trading logic above the execution pipeline:
// order admission, position lifecycle, exit evaluation, and reporting.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"memetrader/internal/domain"
	"memetrader/internal/executor"
	"memetrader/internal/strategy"
)

const (
	lamportsPerSOL = 1_000_000_000

	// Buy sizing bounds. The floor keeps dust orders from wasting fees, the
	// ceiling is a fat-finger guard.
	minBuySOL = 0.000001
	maxBuySOL = 50.0

	priceFetchLimit = 4
)

// Notifier receives trade and exit events. Implementations must not block
// the trading path; delivery is best effort.
type Notifier interface {
	TradeExecuted(ctx context.Context, res domain.TradeResult)
	PositionExited(ctx context.Context, rep domain.ExitReport)
}

// Deps collects the collaborators a Trader needs.
type Deps struct {
	Store    domain.PositionStore
	Pipeline *executor.Pipeline
	Jupiter  domain.OrderGateway
	PumpFun  domain.OrderGateway
	Prices   domain.PriceSource
	Chain    domain.Broadcaster
	Signer   domain.Signer
	Selector *VenueSelector
	Notifier Notifier
	Logger   *slog.Logger
}

// Trader owns the full position lifecycle: it admits buy orders, routes them
// to a venue, records fills with their watermark trackers, and exits
// positions when the strategy says so.
type Trader struct {
	store    domain.PositionStore
	pipeline *executor.Pipeline
	jupiter  domain.OrderGateway
	pumpfun  domain.OrderGateway
	prices   domain.PriceSource
	chain    domain.Broadcaster
	signer   domain.Signer
	selector *VenueSelector
	notifier Notifier
	inflight *executor.InFlight
	logger   *slog.Logger
}

// NewTrader wires a Trader from its dependencies.
func NewTrader(d Deps) *Trader {
	return &Trader{
		store:    d.Store,
		pipeline: d.Pipeline,
		jupiter:  d.Jupiter,
		pumpfun:  d.PumpFun,
		prices:   d.Prices,
		chain:    d.Chain,
		signer:   d.Signer,
		selector: d.Selector,
		notifier: d.Notifier,
		inflight: executor.NewInFlight(),
		logger:   d.Logger.With(slog.String("component", "trader")),
	}
}

// Buy spends req.AmountSOL buying req.TokenMint and opens a position managed
// under req.Strategy. One position per mint: a second buy for an open mint is
// rejected, not averaged in.
func (t *Trader) Buy(ctx context.Context, req domain.TradeRequest) (domain.TradeResult, error) {
	start := time.Now()
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	if err := validateBuy(req); err != nil {
		return failedResult(req.ID, req.TokenMint, domain.SideBuy, start, err), err
	}

	if err := t.inflight.Acquire(req.TokenMint); err != nil {
		return failedResult(req.ID, req.TokenMint, domain.SideBuy, start, err), err
	}
	defer t.inflight.Release(req.TokenMint)

	if _, _, open := t.store.Get(req.TokenMint); open {
		err := domain.ErrPositionExists
		return failedResult(req.ID, req.TokenMint, domain.SideBuy, start, err), err
	}

	lamports := uint64(req.AmountSOL * lamportsPerSOL)
	if bal, err := t.chain.Balance(ctx, t.signer.PublicKey()); err == nil && bal < lamports {
		err := &domain.ValidationError{
			Field:  "amount_sol",
			Reason: fmt.Sprintf("wallet holds %.9f SOL, order needs %.9f", float64(bal)/lamportsPerSOL, req.AmountSOL),
		}
		return failedResult(req.ID, req.TokenMint, domain.SideBuy, start, err), err
	}

	venue := t.selector.Select(ctx, req.TokenMint, domain.SideBuy)
	out, err := t.pipeline.Execute(ctx, t.gatewayFor(venue), executor.Order{
		RequestID:   req.ID,
		Side:        domain.SideBuy,
		Venue:       venue,
		InputMint:   domain.MintSOL,
		OutputMint:  req.TokenMint,
		Amount:      lamports,
		SlippageBps: req.SlippageBps,
	})
	if err != nil {
		res := failedResult(req.ID, req.TokenMint, domain.SideBuy, start, err)
		res.Venue = venue
		return res, err
	}

	entry := t.entryPrice(ctx, req.TokenMint, lamports, out.Quote.OutAmount)
	now := time.Now().UTC()
	pos := domain.Position{
		TokenMint:    req.TokenMint,
		EntryPrice:   entry,
		AmountTokens: out.Quote.OutAmount,
		EntryTime:    now,
		Strategy:     req.Strategy,
		BuySignature: out.Signature,
	}
	if err := t.store.Insert(req.TokenMint, pos, domain.NewATHTracker(req.Strategy, entry, now)); err != nil {
		// The swap already landed; the wallet holds the tokens either way.
		t.logger.Error("position record failed after confirmed buy",
			slog.String("token", req.TokenMint),
			slog.String("signature", out.Signature),
			slog.String("error", err.Error()),
		)
	}

	res := domain.TradeResult{
		RequestID:      req.ID,
		TokenMint:      req.TokenMint,
		Side:           domain.SideBuy,
		Signature:      out.Signature,
		Success:        true,
		Elapsed:        time.Since(start),
		Venue:          venue,
		TokensReceived: out.Quote.OutAmount,
		SOLSpent:       req.AmountSOL,
	}
	t.logger.Info("buy filled",
		slog.String("token", req.TokenMint),
		slog.String("venue", string(venue)),
		slog.String("strategy", string(req.Strategy)),
		slog.String("signature", out.Signature),
		slog.Float64("sol_spent", req.AmountSOL),
	)
	t.notifyTrade(ctx, res)
	return res, nil
}

// Sell closes the position on mint, swapping the full wallet balance back to
// SOL through the aggregator. The position and its tracker are removed only
// after the sell confirms; a failed sell leaves both untouched.
func (t *Trader) Sell(ctx context.Context, mint, reason string) (domain.TradeResult, error) {
	start := time.Now()
	id := uuid.New().String()

	if err := domain.ValidateMint(mint); err != nil {
		return failedResult(id, mint, domain.SideSell, start, err), err
	}

	if err := t.inflight.Acquire(mint); err != nil {
		return failedResult(id, mint, domain.SideSell, start, err), err
	}
	defer t.inflight.Release(mint)

	pos, _, open := t.store.Get(mint)
	if !open {
		err := domain.ErrNoPosition
		return failedResult(id, mint, domain.SideSell, start, err), err
	}

	tokens, err := t.chain.TokenBalance(ctx, t.signer.PublicKey(), mint)
	if err != nil {
		t.logger.Warn("token balance lookup failed, selling recorded amount",
			slog.String("token", mint),
			slog.String("error", err.Error()),
		)
		tokens = pos.AmountTokens
	}
	if tokens == 0 {
		// The wallet no longer holds the token; the record is stale.
		t.store.Remove(mint)
		err := domain.ErrNoTokens
		return failedResult(id, mint, domain.SideSell, start, err), err
	}

	out, err := t.pipeline.Execute(ctx, t.jupiter, executor.Order{
		RequestID:  id,
		Side:       domain.SideSell,
		Venue:      domain.VenueJupiter,
		InputMint:  mint,
		OutputMint: domain.MintSOL,
		Amount:     tokens,
	})
	if err != nil {
		return failedResult(id, mint, domain.SideSell, start, err), err
	}

	t.store.Remove(mint)

	res := domain.TradeResult{
		RequestID:   id,
		TokenMint:   mint,
		Side:        domain.SideSell,
		Signature:   out.Signature,
		Success:     true,
		Elapsed:     time.Since(start),
		Venue:       domain.VenueJupiter,
		SOLReceived: float64(out.Quote.OutAmount) / lamportsPerSOL,
	}
	t.logger.Info("position closed",
		slog.String("token", mint),
		slog.String("reason", reason),
		slog.String("signature", out.Signature),
		slog.Float64("sol_received", res.SOLReceived),
	)
	t.notifyTrade(ctx, res)
	return res, nil
}

// MonitorOnce runs one monitoring cycle: fetch prices for every open
// position, advance the watermarks, evaluate exits, and sell what the
// strategies release. A price failure skips that token for the cycle and
// never blocks the others.
func (t *Trader) MonitorOnce(ctx context.Context) []domain.ExitReport {
	positions := t.store.List()
	if len(positions) == 0 {
		return nil
	}

	prices := t.fetchPrices(ctx, positions)

	var reports []domain.ExitReport
	for _, pos := range positions {
		price, ok := prices[pos.TokenMint]
		if !ok {
			continue
		}

		tracker, ok := t.store.UpdateWatermark(pos.TokenMint, price, time.Now().UTC())
		if !ok {
			continue // position closed while prices were in flight
		}

		decision := strategy.Evaluate(pos, tracker, price)
		t.logger.Debug("position evaluated",
			slog.String("token", pos.TokenMint),
			slog.String("strategy", string(pos.Strategy)),
			slog.String("price", price.String()),
			slog.String("ath", tracker.ATHPrice.String()),
			slog.String("profit_pct", decision.ProfitPct.StringFixed(2)),
			slog.Bool("exit", decision.Exit),
		)
		if !decision.Exit {
			continue
		}

		res, err := t.Sell(ctx, pos.TokenMint, decision.Reason)
		if err != nil {
			t.logger.Error("exit sell failed, position kept",
				slog.String("token", pos.TokenMint),
				slog.String("reason", decision.Reason),
				slog.String("error", err.Error()),
			)
		}
		rep := domain.ExitReport{
			TokenMint: pos.TokenMint,
			Strategy:  pos.Strategy,
			Reason:    decision.Reason,
			Result:    res,
		}
		reports = append(reports, rep)
		if res.Success {
			t.notifyExit(ctx, rep)
		}
	}
	return reports
}

// EmergencyLiquidateAll sells every open position sequentially. Positions
// whose sell fails stay open with their trackers intact so a later attempt
// can retry them.
func (t *Trader) EmergencyLiquidateAll(ctx context.Context) []domain.ExitReport {
	positions := t.store.List()
	t.logger.Warn("emergency liquidation started", slog.Int("positions", len(positions)))

	reports := make([]domain.ExitReport, 0, len(positions))
	for _, pos := range positions {
		res, err := t.Sell(ctx, pos.TokenMint, "emergency liquidation")
		if err != nil {
			t.logger.Error("emergency sell failed",
				slog.String("token", pos.TokenMint),
				slog.String("error", err.Error()),
			)
		}
		reports = append(reports, domain.ExitReport{
			TokenMint: pos.TokenMint,
			Strategy:  pos.Strategy,
			Reason:    "emergency liquidation",
			Result:    res,
		})
	}
	return reports
}

// ListPositions returns a snapshot of all open positions.
func (t *Trader) ListPositions() []domain.Position {
	return t.store.List()
}

// PositionStatus is one row of the watermark report.
type PositionStatus struct {
	Position    domain.Position
	Tracker     domain.ATHTracker
	ProfitPct   decimal.Decimal
	PullbackPct decimal.Decimal
}

// ATHStatus reports the watermark state for one position.
func (t *Trader) ATHStatus(mint string) (PositionStatus, error) {
	pos, tracker, ok := t.store.Get(mint)
	if !ok {
		return PositionStatus{}, domain.ErrNoPosition
	}
	return PositionStatus{
		Position:    pos,
		Tracker:     tracker,
		ProfitPct:   tracker.ProfitPct(tracker.LastPrice),
		PullbackPct: tracker.PullbackFromATHPct(tracker.LastPrice),
	}, nil
}

// Status reports every open position against its last observed price.
func (t *Trader) Status() []PositionStatus {
	positions := t.store.List()
	statuses := make([]PositionStatus, 0, len(positions))
	for _, pos := range positions {
		_, tracker, ok := t.store.Get(pos.TokenMint)
		if !ok {
			continue
		}
		statuses = append(statuses, PositionStatus{
			Position:    pos,
			Tracker:     tracker,
			ProfitPct:   tracker.ProfitPct(tracker.LastPrice),
			PullbackPct: tracker.PullbackFromATHPct(tracker.LastPrice),
		})
	}
	return statuses
}

// Stats summarizes the open book from the last observed prices.
type Stats struct {
	OpenPositions int
	Winning       int
	Losing        int
	AvgProfitPct  decimal.Decimal
}

// PerformanceStats aggregates unrealized performance across open positions.
func (t *Trader) PerformanceStats() Stats {
	statuses := t.Status()
	s := Stats{OpenPositions: len(statuses)}
	if len(statuses) == 0 {
		return s
	}

	total := decimal.Zero
	for _, st := range statuses {
		total = total.Add(st.ProfitPct)
		if st.ProfitPct.IsPositive() {
			s.Winning++
		} else if st.ProfitPct.IsNegative() {
			s.Losing++
		}
	}
	s.AvgProfitPct = total.Div(decimal.NewFromInt(int64(len(statuses))))
	return s
}

// Health summarizes the bot's view of the world.
type Health struct {
	Wallet        string
	BalanceSOL    float64
	OpenPositions int
	RPCOK         bool
	PriceAPIOK    bool
}

// HealthCheck verifies the chain endpoint and the price oracle both respond
// and reports the wallet balance and open-position count. The returned error
// joins every failing dependency.
func (t *Trader) HealthCheck(ctx context.Context) (Health, error) {
	h := Health{
		Wallet:        t.signer.PublicKey(),
		OpenPositions: t.store.Len(),
	}

	var errs []error
	if bal, err := t.chain.Balance(ctx, h.Wallet); err != nil {
		errs = append(errs, fmt.Errorf("rpc: %w", err))
	} else {
		h.RPCOK = true
		h.BalanceSOL = float64(bal) / lamportsPerSOL
	}
	if _, err := t.prices.Price(ctx, domain.MintSOL); err != nil {
		errs = append(errs, fmt.Errorf("price oracle: %w", err))
	} else {
		h.PriceAPIOK = true
	}
	return h, errors.Join(errs...)
}

// fetchPrices resolves current prices for the positions' mints concurrently,
// bounded to a few requests in flight. Failures are logged per mint and the
// mint is left out of the result.
func (t *Trader) fetchPrices(ctx context.Context, positions []domain.Position) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(positions))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(priceFetchLimit)
	for _, pos := range positions {
		mint := pos.TokenMint
		g.Go(func() error {
			price, err := t.prices.Price(gctx, mint)
			if err != nil {
				t.logger.Warn("price fetch failed, skipping token this cycle",
					slog.String("token", mint),
					slog.String("error", err.Error()),
				)
				return nil
			}
			mu.Lock()
			prices[mint] = price
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return prices
}

// entryPrice records the oracle price at fill time so later evaluations
// compare like with like. If the oracle is unreachable right after the buy,
// the quote-implied price stands in.
func (t *Trader) entryPrice(ctx context.Context, mint string, lamports, tokensOut uint64) decimal.Decimal {
	if price, err := t.prices.Price(ctx, mint); err == nil && price.IsPositive() {
		return price
	}
	if tokensOut == 0 {
		return decimal.Zero
	}
	t.logger.Warn("oracle price unavailable at fill, using quote-implied entry",
		slog.String("token", mint),
	)
	sol := decimal.New(int64(lamports), -9)
	return sol.Div(decimal.NewFromUint64(tokensOut))
}

func (t *Trader) gatewayFor(venue domain.Venue) domain.OrderGateway {
	if venue == domain.VenuePumpFun && t.pumpfun != nil {
		return t.pumpfun
	}
	return t.jupiter
}

func (t *Trader) notifyTrade(ctx context.Context, res domain.TradeResult) {
	if t.notifier != nil {
		t.notifier.TradeExecuted(ctx, res)
	}
}

func (t *Trader) notifyExit(ctx context.Context, rep domain.ExitReport) {
	if t.notifier != nil {
		t.notifier.PositionExited(ctx, rep)
	}
}

func validateBuy(req domain.TradeRequest) error {
	if err := domain.ValidateMint(req.TokenMint); err != nil {
		return err
	}
	if req.AmountSOL < minBuySOL || req.AmountSOL > maxBuySOL {
		return &domain.ValidationError{
			Field:  "amount_sol",
			Reason: fmt.Sprintf("%.9f outside [%.6f, %.1f]", req.AmountSOL, minBuySOL, maxBuySOL),
		}
	}
	if !req.Strategy.Valid() {
		return &domain.ValidationError{Field: "strategy", Reason: "unknown variant " + string(req.Strategy)}
	}
	return nil
}

func failedResult(id, mint string, side domain.Side, start time.Time, err error) domain.TradeResult {
	return domain.TradeResult{
		RequestID: id,
		TokenMint: mint,
		Side:      side,
		Error:     err.Error(),
		Elapsed:   time.Since(start),
	}
}
