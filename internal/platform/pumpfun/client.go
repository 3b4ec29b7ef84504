// Package pumpfun builds buy transactions for tokens still on the pump.fun
// bonding curve, via the PumpPortal local-transaction API.
package pumpfun

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"memetrader/internal/domain"
)

// Rough bonding-curve estimate used for sizing: a fresh launch credits about
// a million atomic token units per lamport spent. Execution is priced by the
// curve itself at broadcast time, so this never needs to be accurate.
const estimatedTokenUnitsPerLamport = 1_000_000

const probeTimeout = 3 * time.Second

// Client talks to the PumpPortal trade-local API and the pump.fun frontend
// API (for existence probes).
type Client struct {
	tradeHost  string
	frontHost  string
	httpClient *http.Client
}

// NewClient creates a pump.fun client. tradeHost is the PumpPortal API root,
// frontHost the pump.fun frontend API root.
func NewClient(tradeHost, frontHost string) *Client {
	return &Client{
		tradeHost: tradeHost,
		frontHost: frontHost,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Exists reports whether the mint has a pump.fun bonding curve. The probe is
// best effort: on timeout or transport failure it returns false and the
// caller routes through the aggregator instead.
func (c *Client) Exists(ctx context.Context, mint string) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/coins/%s", c.frontHost, mint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// Quote returns a synthetic quote. The bonding curve has no quote endpoint;
// the output amount is a linear estimate and the actual fill is decided by
// the curve when the transaction lands.
func (c *Client) Quote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (domain.Quote, error) {
	if amount == 0 {
		return domain.Quote{}, &domain.ValidationError{Field: "amount", Reason: "zero"}
	}

	estimated := amount * estimatedTokenUnitsPerLamport
	return domain.Quote{
		InputMint:   inputMint,
		OutputMint:  outputMint,
		InAmount:    amount,
		OutAmount:   estimated,
		SlippageBps: slippageBps,
	}, nil
}

// tradeRequest is the PumpPortal trade-local payload. Amounts are
// SOL-denominated and slippage is in percent, not basis points.
type tradeRequest struct {
	PublicKey        string  `json:"publicKey"`
	Action           string  `json:"action"`
	Mint             string  `json:"mint"`
	Amount           float64 `json:"amount"`
	DenominatedInSol string  `json:"denominatedInSol"`
	Slippage         float64 `json:"slippage"`
	PriorityFee      float64 `json:"priorityFee"`
	Pool             string  `json:"pool"`
}

// BuildSwap asks PumpPortal to build an unsigned buy transaction for the
// quoted amount. The response body is the serialized transaction itself.
func (c *Client) BuildSwap(ctx context.Context, quote domain.Quote, owner string, priorityFee uint64) ([]byte, error) {
	reqBody := tradeRequest{
		PublicKey:        owner,
		Action:           "buy",
		Mint:             quote.OutputMint,
		Amount:           float64(quote.InAmount) / 1e9,
		DenominatedInSol: "true",
		Slippage:         float64(quote.SlippageBps) / 100,
		PriorityFee:      float64(priorityFee) / 1e9,
		Pool:             "pump",
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("pumpfun: marshal trade request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tradeHost+"/trade-local", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("pumpfun: create trade request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pumpfun: trade request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("pumpfun: read trade response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pumpfun: trade HTTP %d: %s", resp.StatusCode, string(body))
	}
	if len(body) == 0 {
		return nil, &domain.StructuralError{Endpoint: "trade-local", Missing: "transaction bytes"}
	}

	return body, nil
}
