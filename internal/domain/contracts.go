package domain

import (
	"context"
	"time"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

// PriceSource returns the current price for a token mint.
type PriceSource interface {
	Price(ctx context.Context, mint string) (decimal.Decimal, error)
}

// OrderGateway is the venue-side half of the execution pipeline: produce a
// quote for an exact amount, then exchange it for an unsigned, base64-encoded
// transaction payload.
type OrderGateway interface {
	Quote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (Quote, error)
	BuildSwap(ctx context.Context, quote Quote, owner string, priorityFee uint64) ([]byte, error)
}

// Broadcaster is the ledger-side half: anti-replay nonces, submission with
// confirmation, and balance lookups.
type Broadcaster interface {
	LatestBlockhash(ctx context.Context) (string, error)
	SendAndConfirm(ctx context.Context, signedTx []byte) (string, error)
	TokenBalance(ctx context.Context, owner, mint string) (uint64, error)
	Balance(ctx context.Context, owner string) (uint64, error)
}

// FeeEstimator returns the priority fee to attach to a transaction. The
// implementation caps the estimate and falls back to a fixed value on failure,
// so Estimate never errors.
type FeeEstimator interface {
	EstimatePriorityFee(ctx context.Context) uint64
}

// Signer stamps a fresh blockhash into an unsigned transaction payload and
// signs it with the wallet key.
type Signer interface {
	PublicKey() string
	Resign(tx []byte, blockhash string) ([]byte, error)
}

// PositionStore owns the paired Position and ATHTracker maps. Both records are
// created and destroyed together; all mutation funnels through these methods.
type PositionStore interface {
	// Insert creates a position with its tracker. It fails with
	// ErrPositionExists when the token already has an open position.
	Insert(mint string, pos Position, tracker ATHTracker) error
	// Get returns snapshots of both records.
	Get(mint string) (Position, ATHTracker, bool)
	// List returns a snapshot of all open positions.
	List() []Position
	// UpdateWatermark records an observed price: it raises the watermark when
	// the price exceeds it (never lowers it) and refreshes the last price.
	// The returned tracker reflects the post-update state.
	UpdateWatermark(mint string, price decimal.Decimal, now time.Time) (ATHTracker, bool)
	// Remove deletes both records. Removing an absent mint is a no-op.
	Remove(mint string)
	// Len reports the number of open positions.
	Len() int
}

// ValidateMint checks that mint is a well-formed Solana address: base58 text
// decoding to exactly 32 bytes.
func ValidateMint(mint string) error {
	if mint == "" {
		return &ValidationError{Field: "token mint", Reason: "empty"}
	}
	raw, err := base58.Decode(mint)
	if err != nil {
		return &ValidationError{Field: "token mint", Reason: "not base58: " + err.Error()}
	}
	if len(raw) != 32 {
		return &ValidationError{Field: "token mint", Reason: "decoded length is not 32 bytes"}
	}
	return nil
}
