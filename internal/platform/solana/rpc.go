// Package solana talks to the ledger: JSON-RPC submission and queries, plus
// transaction signing. It implements the Broadcaster and FeeEstimator
// contracts the execution pipeline depends on.
package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RPCClient is a JSON-RPC client for a Solana RPC node (typically Helius).
type RPCClient struct {
	url        string
	httpClient *http.Client

	maxPriorityFee      uint64
	fallbackPriorityFee uint64
	confirmPollInterval time.Duration
	confirmTimeout      time.Duration
}

// NewRPCClient creates a client for the given RPC endpoint URL.
// maxPriorityFee caps fee estimates; fallbackPriorityFee is used whenever the
// estimate call fails.
func NewRPCClient(url string, maxPriorityFee, fallbackPriorityFee uint64) *RPCClient {
	return &RPCClient{
		url: url,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxPriorityFee:      maxPriorityFee,
		fallbackPriorityFee: fallbackPriorityFee,
		confirmPollInterval: 2 * time.Second,
		confirmTimeout:      45 * time.Second,
	}
}

// rpcRequest is the JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// rpcResponse is the JSON-RPC 2.0 response envelope.
type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// LatestBlockhash fetches a fresh anti-replay blockhash.
func (c *RPCClient) LatestBlockhash(ctx context.Context) (string, error) {
	raw, err := c.call(ctx, "getLatestBlockhash", []any{map[string]any{"commitment": "processed"}})
	if err != nil {
		return "", fmt.Errorf("solana: get latest blockhash: %w", err)
	}

	var result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("solana: decode blockhash: %w", err)
	}
	if result.Value.Blockhash == "" {
		return "", fmt.Errorf("solana: empty blockhash in response")
	}
	return result.Value.Blockhash, nil
}

// SendAndConfirm submits a signed transaction and polls until the network
// confirms it or the confirmation window expires.
func (c *RPCClient) SendAndConfirm(ctx context.Context, signedTx []byte) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(signedTx)
	raw, err := c.call(ctx, "sendTransaction", []any{encoded, map[string]any{
		"encoding":      "base64",
		"skipPreflight": false,
		"maxRetries":    0,
	}})
	if err != nil {
		return "", fmt.Errorf("solana: send transaction: %w", err)
	}

	var signature string
	if err := json.Unmarshal(raw, &signature); err != nil {
		return "", fmt.Errorf("solana: decode send result: %w", err)
	}

	if err := c.waitForConfirmation(ctx, signature); err != nil {
		return "", err
	}
	return signature, nil
}

// waitForConfirmation polls getSignatureStatuses until the signature reaches
// at least "confirmed" commitment.
func (c *RPCClient) waitForConfirmation(ctx context.Context, signature string) error {
	deadline := time.Now().Add(c.confirmTimeout)
	ticker := time.NewTicker(c.confirmPollInterval)
	defer ticker.Stop()

	for {
		raw, err := c.call(ctx, "getSignatureStatuses", []any{[]string{signature}})
		if err == nil {
			var result struct {
				Value []*struct {
					ConfirmationStatus string          `json:"confirmationStatus"`
					Err                json.RawMessage `json:"err"`
				} `json:"value"`
			}
			if err := json.Unmarshal(raw, &result); err == nil && len(result.Value) > 0 && result.Value[0] != nil {
				status := result.Value[0]
				if len(status.Err) > 0 && string(status.Err) != "null" {
					return fmt.Errorf("solana: transaction %s failed on chain: %s", signature, status.Err)
				}
				if status.ConfirmationStatus == "confirmed" || status.ConfirmationStatus == "finalized" {
					return nil
				}
			}
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("solana: transaction %s not confirmed within %s", signature, c.confirmTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Balance returns the owner's SOL balance in lamports.
func (c *RPCClient) Balance(ctx context.Context, owner string) (uint64, error) {
	raw, err := c.call(ctx, "getBalance", []any{owner})
	if err != nil {
		return 0, fmt.Errorf("solana: get balance: %w", err)
	}

	var result struct {
		Value uint64 `json:"value"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return 0, fmt.Errorf("solana: decode balance: %w", err)
	}
	return result.Value, nil
}

// TokenBalance returns the owner's balance of the given mint in atomic token
// units. An owner with no token account holds zero; that is not an error.
func (c *RPCClient) TokenBalance(ctx context.Context, owner, mint string) (uint64, error) {
	raw, err := c.call(ctx, "getTokenAccountsByOwner", []any{
		owner,
		map[string]any{"mint": mint},
		map[string]any{"encoding": "jsonParsed"},
	})
	if err != nil {
		return 0, fmt.Errorf("solana: get token accounts: %w", err)
	}

	var result struct {
		Value []struct {
			Account struct {
				Data struct {
					Parsed struct {
						Info struct {
							TokenAmount struct {
								Amount string `json:"amount"`
							} `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"data"`
			} `json:"account"`
		} `json:"value"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return 0, fmt.Errorf("solana: decode token accounts: %w", err)
	}

	var total uint64
	for _, v := range result.Value {
		n, err := strconv.ParseUint(v.Account.Data.Parsed.Info.TokenAmount.Amount, 10, 64)
		if err != nil {
			continue
		}
		total += n
	}
	return total, nil
}

// EstimatePriorityFee asks the RPC provider for a priority-fee estimate,
// capped at the configured maximum. Any failure falls back to the fixed
// default; callers never see an error from this path.
func (c *RPCClient) EstimatePriorityFee(ctx context.Context) uint64 {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	raw, err := c.call(ctx, "getPriorityFeeEstimate", []any{map[string]any{
		"options": map[string]any{"priorityLevel": "High"},
	}})
	if err != nil {
		return c.fallbackPriorityFee
	}

	var result struct {
		PriorityFeeEstimate float64 `json:"priorityFeeEstimate"`
	}
	if err := json.Unmarshal(raw, &result); err != nil || result.PriorityFeeEstimate <= 0 {
		return c.fallbackPriorityFee
	}

	fee := uint64(result.PriorityFeeEstimate)
	if fee > c.maxPriorityFee {
		fee = c.maxPriorityFee
	}
	return fee
}

// call executes one JSON-RPC request and returns the raw result field.
func (c *RPCClient) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

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

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}
