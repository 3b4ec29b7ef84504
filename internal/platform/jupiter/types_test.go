package jupiter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memetrader/internal/domain"
)

func TestParseQuoteTopLevelOutAmount(t *testing.T) {
	body := []byte(`{"inAmount":"1000000","outAmount":"42000000","routePlan":[]}`)

	q, err := parseQuote(body, "So11111111111111111111111111111111111111112", "mintX", 1_000_000, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(42_000_000), q.OutAmount)
	assert.Equal(t, uint64(1_000_000), q.InAmount)
	assert.Equal(t, 100, q.SlippageBps)
	assert.JSONEq(t, string(body), string(q.Raw), "raw body must be preserved for the swap echo")
}

func TestParseQuoteNestedDataOutAmount(t *testing.T) {
	body := []byte(`{"data":{"inAmount":"500","outAmount":"777"}}`)

	q, err := parseQuote(body, "in", "out", 500, 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(777), q.OutAmount)
}

func TestParseQuoteMissingOutAmount(t *testing.T) {
	cases := map[string][]byte{
		"empty object":   []byte(`{}`),
		"error payload":  []byte(`{"error":"route not found"}`),
		"non-numeric":    []byte(`{"outAmount":"lots"}`),
		"not json":       []byte(`route not found`),
		"nested missing": []byte(`{"data":{"inAmount":"500"}}`),
	}

	for name, body := range cases {
		_, err := parseQuote(body, "in", "out", 1, 100)
		require.Error(t, err, name)

		var structural *domain.StructuralError
		assert.True(t, errors.As(err, &structural), "%s: want StructuralError, got %v", name, err)
	}
}

func TestClampSlippage(t *testing.T) {
	assert.Equal(t, defaultSlippageBps, clampSlippage(0))
	assert.Equal(t, defaultSlippageBps, clampSlippage(-5))
	assert.Equal(t, 250, clampSlippage(250))
	assert.Equal(t, maxSlippageBps, clampSlippage(maxSlippageBps))
	assert.Equal(t, maxSlippageBps, clampSlippage(9000))
}
