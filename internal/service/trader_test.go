package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memetrader/internal/domain"
	"memetrader/internal/executor"
	"memetrader/internal/store/memory"
)

// Valid 32-byte base58 addresses standing in for meme-token mints.
const (
	mintAlpha = "11111111111111111111111111111111"
	mintBeta  = "Vote111111111111111111111111111111111111111"
)

type stubGateway struct {
	mu        sync.Mutex
	tokensOut uint64
	failMints map[string]error // keyed by the non-SOL mint of the order
	calls     int
}

func (g *stubGateway) tokenOf(in, out string) string {
	if in == domain.MintSOL {
		return out
	}
	return in
}

func (g *stubGateway) Quote(_ context.Context, in, out string, amount uint64, slippageBps int) (domain.Quote, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if err := g.failMints[g.tokenOf(in, out)]; err != nil {
		return domain.Quote{}, err
	}
	outAmount := g.tokensOut
	if out == domain.MintSOL {
		outAmount = 2 * 1_000_000_000 // sells return 2 SOL
	}
	return domain.Quote{InputMint: in, OutputMint: out, InAmount: amount, OutAmount: outAmount, SlippageBps: slippageBps}, nil
}

func (g *stubGateway) BuildSwap(context.Context, domain.Quote, string, uint64) ([]byte, error) {
	return []byte{1}, nil
}

type stubChain struct{}

func (stubChain) LatestBlockhash(context.Context) (string, error)        { return "hash", nil }
func (stubChain) SendAndConfirm(context.Context, []byte) (string, error) { return "sig", nil }
func (stubChain) Balance(context.Context, string) (uint64, error) {
	return 100 * 1_000_000_000, nil
}
func (stubChain) TokenBalance(context.Context, string, string) (uint64, error) {
	return 5_000_000, nil
}

type stubSigner struct{}

func (stubSigner) PublicKey() string { return "wallet" }

func (stubSigner) Resign(tx []byte, _ string) ([]byte, error) { return tx, nil }

type stubFees struct{}

func (stubFees) EstimatePriorityFee(context.Context) uint64 { return 150_000 }

type stubPrices struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
	errs   map[string]error
}

func (p *stubPrices) set(mint string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[mint] = decimal.NewFromFloat(price)
}

func (p *stubPrices) Price(_ context.Context, mint string) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.errs[mint]; err != nil {
		return decimal.Zero, err
	}
	if price, ok := p.prices[mint]; ok {
		return price, nil
	}
	return decimal.Zero, errors.New("unknown mint")
}

type noSleep struct{}

func (noSleep) Sleep(context.Context, time.Duration) error { return nil }

type fixture struct {
	trader  *Trader
	store   *memory.PositionStore
	gateway *stubGateway
	prices  *stubPrices
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	gateway := &stubGateway{tokensOut: 5_000_000, failMints: map[string]error{}}
	prices := &stubPrices{prices: map[string]decimal.Decimal{}, errs: map[string]error{}}
	store := memory.NewPositionStore()

	pipeline := executor.NewPipeline(stubChain{}, stubSigner{}, stubFees{}, logger)
	pipeline.SetSleeper(noSleep{})

	trader := NewTrader(Deps{
		Store:    store,
		Pipeline: pipeline,
		Jupiter:  gateway,
		PumpFun:  gateway,
		Prices:   prices,
		Chain:    stubChain{},
		Signer:   stubSigner{},
		Selector: NewVenueSelector(nil),
		Logger:   logger,
	})
	return &fixture{trader: trader, store: store, gateway: gateway, prices: prices}
}

func (f *fixture) buy(t *testing.T, mint string, strat domain.StrategyType, entryPrice float64) {
	t.Helper()
	f.prices.set(mint, entryPrice)
	res, err := f.trader.Buy(context.Background(), domain.TradeRequest{
		TokenMint: mint,
		AmountSOL: 0.5,
		Strategy:  strat,
	})
	require.NoError(t, err)
	require.True(t, res.Success)
}

func TestBuySellRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.buy(t, mintAlpha, domain.StrategyConservativeATH, 1.0)

	pos, tracker, ok := f.store.Get(mintAlpha)
	require.True(t, ok)
	assert.Equal(t, uint64(5_000_000), pos.AmountTokens)
	assert.True(t, tracker.ATHPrice.Equal(pos.EntryPrice), "tracker seeds at entry")
	assert.True(t, tracker.EntryPrice.Equal(decimal.NewFromInt(1)))

	res, err := f.trader.Sell(context.Background(), mintAlpha, "manual")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, domain.VenueJupiter, res.Venue)
	assert.InDelta(t, 2.0, res.SOLReceived, 1e-9)
	assert.Zero(t, f.store.Len(), "position and tracker removed together")

	_, err = f.trader.Sell(context.Background(), mintAlpha, "manual")
	assert.ErrorIs(t, err, domain.ErrNoPosition)
}

func TestBuyRejectsSecondPositionOnSameMint(t *testing.T) {
	f := newFixture(t)
	f.buy(t, mintAlpha, domain.StrategyConservative, 1.0)

	_, err := f.trader.Buy(context.Background(), domain.TradeRequest{
		TokenMint: mintAlpha,
		AmountSOL: 0.5,
		Strategy:  domain.StrategyConservative,
	})
	assert.ErrorIs(t, err, domain.ErrPositionExists)
	assert.Equal(t, 1, f.store.Len())
}

func TestBuyValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []domain.TradeRequest{
		{TokenMint: "garbage", AmountSOL: 0.5, Strategy: domain.StrategyConservative},
		{TokenMint: mintAlpha, AmountSOL: 0, Strategy: domain.StrategyConservative},
		{TokenMint: mintAlpha, AmountSOL: 51, Strategy: domain.StrategyConservative},
		{TokenMint: mintAlpha, AmountSOL: 0.5, Strategy: "yolo"},
	}
	for _, req := range cases {
		res, err := f.trader.Buy(ctx, req)
		var vErr *domain.ValidationError
		assert.ErrorAs(t, err, &vErr, "request %+v", req)
		assert.False(t, res.Success)
	}
	assert.Zero(t, f.gateway.calls, "invalid requests never reach a venue")
}

func TestMonitorExitsOnPullbackAfterRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.buy(t, mintAlpha, domain.StrategyConservativeATH, 1.0)

	// Run up 20%, then pull back 10% from the high: profit 8% >= 3% and
	// pullback 10% >= 8%, so the position exits.
	f.prices.set(mintAlpha, 1.20)
	require.Empty(t, f.trader.MonitorOnce(ctx), "fresh high never exits")

	f.prices.set(mintAlpha, 1.08)
	reports := f.trader.MonitorOnce(ctx)
	require.Len(t, reports, 1)
	assert.Equal(t, mintAlpha, reports[0].TokenMint)
	assert.True(t, reports[0].Result.Success)
	assert.Zero(t, f.store.Len())
}

func TestMonitorHoldsWithoutProfit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.buy(t, mintAlpha, domain.StrategyConservativeATH, 1.0)

	// Deep pullback from the high but profit is back to zero: the profit
	// gate holds the position.
	f.prices.set(mintAlpha, 1.10)
	require.Empty(t, f.trader.MonitorOnce(ctx))
	f.prices.set(mintAlpha, 1.00)
	assert.Empty(t, f.trader.MonitorOnce(ctx))

	_, tracker, ok := f.store.Get(mintAlpha)
	require.True(t, ok)
	assert.True(t, tracker.ATHPrice.Equal(decimal.NewFromFloat(1.10)), "watermark survives the dip")
}

func TestMonitorPriceFailureIsolatedPerToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.buy(t, mintAlpha, domain.StrategyConservative, 1.0)
	f.buy(t, mintBeta, domain.StrategyConservative, 1.0)

	// Alpha's oracle feed breaks; beta hits take-profit and must still exit.
	f.prices.errs[mintAlpha] = errors.New("HTTP 502")
	f.prices.set(mintBeta, 1.20)

	reports := f.trader.MonitorOnce(ctx)
	require.Len(t, reports, 1)
	assert.Equal(t, mintBeta, reports[0].TokenMint)

	_, _, ok := f.store.Get(mintAlpha)
	assert.True(t, ok, "token with no price is skipped, not exited")
}

func TestEmergencyLiquidationKeepsFailedSells(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.buy(t, mintAlpha, domain.StrategyAggressive, 1.0)
	f.buy(t, mintBeta, domain.StrategyAggressive, 1.0)

	f.gateway.failMints[mintBeta] = errors.New("no route")

	reports := f.trader.EmergencyLiquidateAll(ctx)
	require.Len(t, reports, 2)

	byMint := map[string]domain.ExitReport{}
	for _, rep := range reports {
		byMint[rep.TokenMint] = rep
	}
	assert.True(t, byMint[mintAlpha].Result.Success)
	assert.False(t, byMint[mintBeta].Result.Success)

	_, _, ok := f.store.Get(mintAlpha)
	assert.False(t, ok, "sold position removed")
	_, tracker, ok := f.store.Get(mintBeta)
	require.True(t, ok, "failed sell keeps position and tracker")
	assert.True(t, tracker.ATHPrice.IsPositive())
}

func TestStatsAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.buy(t, mintAlpha, domain.StrategyAggressiveATH, 1.0)
	f.buy(t, mintBeta, domain.StrategyAggressiveATH, 1.0)

	f.prices.set(mintAlpha, 1.10)
	f.prices.set(mintBeta, 0.90)
	f.trader.MonitorOnce(ctx)

	stats := f.trader.PerformanceStats()
	assert.Equal(t, 2, stats.OpenPositions)
	assert.Equal(t, 1, stats.Winning)
	assert.Equal(t, 1, stats.Losing)
	assert.True(t, stats.AvgProfitPct.IsZero(), "+10% and -10% average out")

	statuses := f.trader.Status()
	require.Len(t, statuses, 2)
	for _, st := range statuses {
		assert.False(t, st.Tracker.LastPrice.IsZero())
	}

	st, err := f.trader.ATHStatus(mintAlpha)
	require.NoError(t, err)
	assert.True(t, st.ProfitPct.Equal(decimal.NewFromInt(10)))

	_, err = f.trader.ATHStatus("11111111111111111111111111111112")
	assert.ErrorIs(t, err, domain.ErrNoPosition)
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)
	f.prices.set(domain.MintSOL, 150.0)

	h, err := f.trader.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, h.RPCOK)
	assert.True(t, h.PriceAPIOK)
	assert.InDelta(t, 100.0, h.BalanceSOL, 1e-9)
	assert.Zero(t, h.OpenPositions)

	f.prices.errs[domain.MintSOL] = errors.New("HTTP 500")
	h, err = f.trader.HealthCheck(context.Background())
	require.Error(t, err)
	assert.True(t, h.RPCOK)
	assert.False(t, h.PriceAPIOK)
}
