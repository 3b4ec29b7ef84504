package domain

import (
	"encoding/json"
	"time"
)

// Venue identifies which execution venue a trade is routed through.
type Venue string

const (
	// VenueJupiter is the liquidity aggregator used for established tokens
	// and for all sells.
	VenueJupiter Venue = "jupiter"
	// VenuePumpFun is the bonding-curve venue for freshly minted tokens.
	VenuePumpFun Venue = "pumpfun"
)

// Well-known mint addresses. Established tokens always route to the
// aggregator; they have no bonding curve.
const (
	MintSOL  = "So11111111111111111111111111111111111111112"
	MintUSDC = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	MintUSDT = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	MintBONK = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	MintJUP  = "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"
)

// KnownMints is the set of established token mints the venue selector never
// probes against the bonding curve.
var KnownMints = map[string]bool{
	MintSOL:  true,
	MintUSDC: true,
	MintUSDT: true,
	MintBONK: true,
	MintJUP:  true,
}

// Side distinguishes buys (SOL -> token) from sells (token -> SOL).
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// TradeRequest describes an entry order: spend AmountSOL buying TokenMint and
// manage the resulting position under Strategy.
type TradeRequest struct {
	ID          string
	TokenMint   string
	AmountSOL   float64
	SlippageBps int
	Strategy    StrategyType
}

// TradeResult is the structured outcome of one trade attempt, returned for
// success and failure alike.
type TradeResult struct {
	RequestID      string
	TokenMint      string
	Side           Side
	Signature      string
	Success        bool
	Error          string
	Elapsed        time.Duration
	Venue          Venue
	TokensReceived uint64  // buys: atomic token units credited
	SOLSpent       float64 // buys: SOL debited
	SOLReceived    float64 // sells: SOL credited
}

// Quote is the normalized representation of a venue quote. Raw preserves the
// venue's original response body because the swap-build endpoint expects the
// quote echoed back verbatim.
type Quote struct {
	InputMint   string
	OutputMint  string
	InAmount    uint64
	OutAmount   uint64
	SlippageBps int
	Raw         json.RawMessage
}

// ExitReport describes one exit executed by the monitoring loop.
type ExitReport struct {
	TokenMint string
	Strategy  StrategyType
	Reason    string
	Result    TradeResult
}
