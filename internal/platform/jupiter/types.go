package jupiter

import (
	"encoding/json"
	"strconv"

	"memetrader/internal/domain"
)

// The quote API has shipped two response shapes: v6 puts outAmount at the top
// level, v4 nests it under "data". parseQuote normalizes either into
// domain.Quote and keeps the raw body, which the swap endpoint expects echoed
// back verbatim.
type quoteEnvelope struct {
	InAmount  string          `json:"inAmount"`
	OutAmount string          `json:"outAmount"`
	Data      json.RawMessage `json:"data"`
}

func parseQuote(body []byte, inputMint, outputMint string, amount uint64, slippageBps int) (domain.Quote, error) {
	var env quoteEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.Quote{}, &domain.StructuralError{Endpoint: "quote", Missing: "JSON body"}
	}

	outStr := env.OutAmount
	if outStr == "" && len(env.Data) > 0 {
		var nested quoteEnvelope
		if err := json.Unmarshal(env.Data, &nested); err == nil {
			outStr = nested.OutAmount
		}
	}
	if outStr == "" {
		return domain.Quote{}, &domain.StructuralError{Endpoint: "quote", Missing: "outAmount"}
	}

	out, err := strconv.ParseUint(outStr, 10, 64)
	if err != nil {
		return domain.Quote{}, &domain.StructuralError{Endpoint: "quote", Missing: "numeric outAmount"}
	}

	return domain.Quote{
		InputMint:   inputMint,
		OutputMint:  outputMint,
		InAmount:    amount,
		OutAmount:   out,
		SlippageBps: slippageBps,
		Raw:         json.RawMessage(body),
	}, nil
}

// swapRequest is the payload for the swap-build endpoint.
type swapRequest struct {
	UserPublicKey             string          `json:"userPublicKey"`
	QuoteResponse             json.RawMessage `json:"quoteResponse"`
	PrioritizationFeeLamports uint64          `json:"prioritizationFeeLamports"`
	AsLegacyTransaction       bool            `json:"asLegacyTransaction"`
	DynamicComputeUnitLimit   bool            `json:"dynamicComputeUnitLimit"`
}

// swapResponse carries the unsigned transaction from the swap-build endpoint.
type swapResponse struct {
	SwapTransaction string `json:"swapTransaction"`
}

// priceResponse is the price API envelope: data keyed by mint.
type priceResponse struct {
	Data map[string]struct {
		Price json.Number `json:"price"`
	} `json:"data"`
}
