// Package jupiter is the REST client for the liquidity aggregator: price
// lookups, quotes, and swap-transaction building.
package jupiter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"memetrader/internal/domain"
)

// Slippage bounds applied before quoting: a zero request gets the default,
// anything above the cap is clamped.
const (
	defaultSlippageBps = 100
	maxSlippageBps     = 5000
)

// Client talks to the aggregator's quote/swap and price APIs.
type Client struct {
	quoteHost  string
	priceHost  string
	httpClient *http.Client
}

// NewClient creates an aggregator client.
//
// quoteHost is the quote/swap API root, e.g. "https://quote-api.jup.ag/v6".
// priceHost is the price API root, e.g. "https://price.jup.ag/v4".
func NewClient(quoteHost, priceHost string) *Client {
	return &Client{
		quoteHost: quoteHost,
		priceHost: priceHost,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Price returns the current price for the mint.
func (c *Client) Price(ctx context.Context, mint string) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	u := fmt.Sprintf("%s/price?ids=%s", c.priceHost, url.QueryEscape(mint))
	body, err := c.get(ctx, u)
	if err != nil {
		return decimal.Zero, fmt.Errorf("jupiter: get price: %w", err)
	}

	var resp priceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("jupiter: decode price: %w", err)
	}
	entry, ok := resp.Data[mint]
	if !ok || entry.Price == "" {
		return decimal.Zero, fmt.Errorf("jupiter: no price for %s", mint)
	}

	price, err := decimal.NewFromString(entry.Price.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("jupiter: parse price %q: %w", entry.Price, err)
	}
	return price, nil
}

// Quote requests a quote for swapping the exact input amount. The slippage is
// normalized before the call; the response is validated and normalized, and a
// missing output amount is a structural failure the pipeline must not retry.
func (c *Client) Quote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (domain.Quote, error) {
	if amount == 0 {
		return domain.Quote{}, &domain.ValidationError{Field: "amount", Reason: "zero"}
	}
	slippageBps = clampSlippage(slippageBps)

	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", strconv.FormatUint(amount, 10))
	q.Set("slippageBps", strconv.Itoa(slippageBps))

	body, err := c.get(ctx, c.quoteHost+"/quote?"+q.Encode())
	if err != nil {
		return domain.Quote{}, fmt.Errorf("jupiter: get quote: %w", err)
	}

	quote, err := parseQuote(body, inputMint, outputMint, amount, slippageBps)
	if err != nil {
		return domain.Quote{}, err
	}
	return quote, nil
}

// BuildSwap exchanges an accepted quote for an unsigned transaction payload.
// Failures here are not retried by the pipeline: the quote may already be
// stale by the time the error surfaces.
func (c *Client) BuildSwap(ctx context.Context, quote domain.Quote, owner string, priorityFee uint64) ([]byte, error) {
	reqBody := swapRequest{
		UserPublicKey:             owner,
		QuoteResponse:             quote.Raw,
		PrioritizationFeeLamports: priorityFee,
		AsLegacyTransaction:       false,
		DynamicComputeUnitLimit:   true,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("jupiter: marshal swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.quoteHost+"/swap", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("jupiter: create swap request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jupiter: swap request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("jupiter: read swap response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jupiter: swap HTTP %d: %s", resp.StatusCode, string(body))
	}

	var swap swapResponse
	if err := json.Unmarshal(body, &swap); err != nil {
		return nil, fmt.Errorf("jupiter: decode swap response: %w", err)
	}
	if swap.SwapTransaction == "" {
		return nil, &domain.StructuralError{Endpoint: "swap", Missing: "swapTransaction"}
	}

	tx, err := base64.StdEncoding.DecodeString(swap.SwapTransaction)
	if err != nil {
		return nil, fmt.Errorf("jupiter: decode swap transaction: %w", err)
	}
	return tx, nil
}

func clampSlippage(bps int) int {
	switch {
	case bps <= 0:
		return defaultSlippageBps
	case bps > maxSlippageBps:
		return maxSlippageBps
	default:
		return bps
	}
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
