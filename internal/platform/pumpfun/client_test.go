package pumpfun

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memetrader/internal/domain"
)

const testMint = "11111111111111111111111111111111"

func TestQuoteEstimatesFromLamports(t *testing.T) {
	c := NewClient("http://unused", "http://unused")

	q, err := c.Quote(context.Background(), domain.MintSOL, testMint, 100_000_000, 250)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000_000)*1_000_000, q.OutAmount, "a million atomic units per lamport")
	assert.Equal(t, uint64(100_000_000), q.InAmount)
	assert.Equal(t, 250, q.SlippageBps)
}

func TestQuoteRejectsZeroAmount(t *testing.T) {
	c := NewClient("http://unused", "http://unused")

	_, err := c.Quote(context.Background(), domain.MintSOL, testMint, 0, 100)
	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/coins/"+testMint {
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL)
	assert.True(t, c.Exists(context.Background(), testMint))
	assert.False(t, c.Exists(context.Background(), "Vote111111111111111111111111111111111111111"))
}

func TestBuildSwapReturnsRawTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/trade-local", r.URL.Path)
		w.Write([]byte{9, 8, 7})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL)
	quote := domain.Quote{InputMint: domain.MintSOL, OutputMint: testMint, InAmount: 1_000_000_000, SlippageBps: 100}
	tx, err := c.BuildSwap(context.Background(), quote, "wallet", 150_000)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8, 7}, tx)
}

func TestBuildSwapEmptyBodyIsStructural(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL)
	_, err := c.BuildSwap(context.Background(), domain.Quote{OutputMint: testMint, InAmount: 1}, "wallet", 0)
	var structural *domain.StructuralError
	assert.ErrorAs(t, err, &structural)
}
