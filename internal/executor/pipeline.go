// Package executor drives a trade order through quote, build, sign, and
// broadcast, with bounded per-phase retries.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"memetrader/internal/domain"
)

// Retry policy. Quoting backs off linearly because quote failures are usually
// transient rate limiting; broadcasting backs off exponentially because a
// congested leader needs room to clear.
const (
	defaultQuoteAttempts = 3
	defaultSendAttempts  = 5
	defaultQuoteBackoff  = 500 * time.Millisecond
	defaultSendBackoff   = 1 * time.Second

	quotePhaseTimeout = 15 * time.Second
	buildPhaseTimeout = 30 * time.Second
)

// Order is one unit of work for the pipeline: swap Amount of InputMint into
// OutputMint through the given venue.
type Order struct {
	RequestID   string
	Side        domain.Side
	Venue       domain.Venue
	InputMint   string
	OutputMint  string
	Amount      uint64
	SlippageBps int
}

// Outcome reports a confirmed trade.
type Outcome struct {
	Signature string
	Quote     domain.Quote
	Elapsed   time.Duration
}

// Pipeline executes orders against a venue gateway. The gateway varies per
// order (aggregator or bonding curve); the ledger side and the signing key
// are fixed at construction.
type Pipeline struct {
	chain  domain.Broadcaster
	signer domain.Signer
	fees   domain.FeeEstimator
	logger *slog.Logger

	sleeper       Sleeper
	quoteAttempts int
	sendAttempts  int
	quoteBackoff  time.Duration
	sendBackoff   time.Duration
	quoteTimeout  time.Duration
}

// NewPipeline creates a Pipeline with the default retry policy.
func NewPipeline(chain domain.Broadcaster, signer domain.Signer, fees domain.FeeEstimator, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		chain:         chain,
		signer:        signer,
		fees:          fees,
		logger:        logger.With(slog.String("component", "pipeline")),
		sleeper:       clockSleeper{},
		quoteAttempts: defaultQuoteAttempts,
		sendAttempts:  defaultSendAttempts,
		quoteBackoff:  defaultQuoteBackoff,
		sendBackoff:   defaultSendBackoff,
		quoteTimeout:  quotePhaseTimeout,
	}
}

// SetSleeper replaces the inter-attempt pause. Tests use this to record
// delays without waiting.
func (p *Pipeline) SetSleeper(s Sleeper) {
	p.sleeper = s
}

// SetRetryPolicy overrides the attempt ceilings and base delays. Zero values
// keep the current setting.
func (p *Pipeline) SetRetryPolicy(quoteAttempts, sendAttempts int, quoteBackoff, sendBackoff time.Duration) {
	if quoteAttempts > 0 {
		p.quoteAttempts = quoteAttempts
	}
	if sendAttempts > 0 {
		p.sendAttempts = sendAttempts
	}
	if quoteBackoff > 0 {
		p.quoteBackoff = quoteBackoff
	}
	if sendBackoff > 0 {
		p.sendBackoff = sendBackoff
	}
}

// Execute runs the order through every phase and returns the confirmed
// signature. Validation and structural failures are final; quote and
// broadcast failures retry up to their ceilings, and the exhaustion error
// carries the last underlying failure.
func (p *Pipeline) Execute(ctx context.Context, gateway domain.OrderGateway, ord Order) (Outcome, error) {
	start := time.Now()
	log := p.logger.With(
		slog.String("request_id", ord.RequestID),
		slog.String("side", string(ord.Side)),
		slog.String("venue", string(ord.Venue)),
		slog.String("output_mint", ord.OutputMint),
	)

	if err := p.validate(ord); err != nil {
		return Outcome{}, err
	}

	quote, err := p.fetchQuote(ctx, gateway, ord, log)
	if err != nil {
		return Outcome{}, err
	}
	log.Info("quote accepted",
		slog.Uint64("in_amount", quote.InAmount),
		slog.Uint64("out_amount", quote.OutAmount),
	)

	unsigned, err := p.buildSwap(ctx, gateway, quote)
	if err != nil {
		return Outcome{}, err
	}

	sig, err := p.broadcast(ctx, unsigned, log)
	if err != nil {
		return Outcome{}, err
	}

	elapsed := time.Since(start)
	log.Info("trade confirmed",
		slog.String("signature", sig),
		slog.Duration("elapsed", elapsed),
	)
	return Outcome{Signature: sig, Quote: quote, Elapsed: elapsed}, nil
}

func (p *Pipeline) validate(ord Order) error {
	if ord.Amount == 0 {
		return &domain.ValidationError{Field: "amount", Reason: "zero"}
	}
	if err := domain.ValidateMint(ord.InputMint); err != nil {
		return err
	}
	return domain.ValidateMint(ord.OutputMint)
}

// fetchQuote retries transient quote failures with linear backoff. One
// deadline bounds the whole phase, attempts and pauses alike. A structural
// failure means the venue's response will never parse, so it is returned
// without using up the remaining attempts.
func (p *Pipeline) fetchQuote(ctx context.Context, gateway domain.OrderGateway, ord Order, log *slog.Logger) (domain.Quote, error) {
	phaseCtx, cancel := context.WithTimeout(ctx, p.quoteTimeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= p.quoteAttempts; attempt++ {
		quote, err := gateway.Quote(phaseCtx, ord.InputMint, ord.OutputMint, ord.Amount, ord.SlippageBps)
		if err == nil {
			return quote, nil
		}

		var structural *domain.StructuralError
		if errors.As(err, &structural) {
			return domain.Quote{}, err
		}

		lastErr = err
		log.Warn("quote attempt failed",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		if attempt < p.quoteAttempts {
			if err := p.sleeper.Sleep(phaseCtx, linearDelay(p.quoteBackoff, attempt)); err != nil {
				if ctx.Err() != nil {
					return domain.Quote{}, ctx.Err()
				}
				return domain.Quote{}, &domain.RetriesExhaustedError{Phase: "quote", Attempts: attempt, Last: lastErr}
			}
		}
	}
	return domain.Quote{}, &domain.RetriesExhaustedError{Phase: "quote", Attempts: p.quoteAttempts, Last: lastErr}
}

// buildSwap runs once. The quote is perishable: by the time a build failure
// surfaces, the quoted route may no longer exist, so the caller should
// restart from quoting rather than retry the build.
func (p *Pipeline) buildSwap(ctx context.Context, gateway domain.OrderGateway, quote domain.Quote) ([]byte, error) {
	buildCtx, cancel := context.WithTimeout(ctx, buildPhaseTimeout)
	defer cancel()

	priorityFee := p.fees.EstimatePriorityFee(buildCtx)
	unsigned, err := gateway.BuildSwap(buildCtx, quote, p.signer.PublicKey(), priorityFee)
	if err != nil {
		return nil, fmt.Errorf("executor: build swap: %w", err)
	}
	return unsigned, nil
}

// broadcast signs and submits with exponential backoff. Every attempt fetches
// a fresh blockhash and re-signs: a blockhash from a failed attempt expires
// within seconds and resubmitting it is guaranteed rejection. Signing
// failures are fatal because the key does not get better with retries.
func (p *Pipeline) broadcast(ctx context.Context, unsigned []byte, log *slog.Logger) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= p.sendAttempts; attempt++ {
		sig, err := p.sendOnce(ctx, unsigned)
		if err == nil {
			return sig, nil
		}

		var signing *domain.SigningError
		if errors.As(err, &signing) {
			return "", err
		}

		lastErr = err
		log.Warn("broadcast attempt failed",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		if attempt < p.sendAttempts {
			if err := p.sleeper.Sleep(ctx, exponentialDelay(p.sendBackoff, attempt)); err != nil {
				return "", err
			}
		}
	}
	return "", &domain.RetriesExhaustedError{Phase: "broadcast", Attempts: p.sendAttempts, Last: lastErr}
}

func (p *Pipeline) sendOnce(ctx context.Context, unsigned []byte) (string, error) {
	blockhash, err := p.chain.LatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch blockhash: %w", err)
	}

	signed, err := p.signer.Resign(unsigned, blockhash)
	if err != nil {
		return "", err
	}

	return p.chain.SendAndConfirm(ctx, signed)
}
