package app

import (
	"context"
	"crypto/ed25519"
	"io"
	"log/slog"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memetrader/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	cfg := config.Defaults()
	cfg.Wallet.PrivateKey = base58.Encode(ed25519.NewKeyFromSeed(seed))
	return &cfg
}

func TestWireBuildsDependencies(t *testing.T) {
	deps, err := Wire(testConfig(t))
	require.NoError(t, err)
	assert.NotNil(t, deps.Trader)
	assert.NotNil(t, deps.Monitor)
	assert.NotNil(t, deps.Notifier)
	assert.NotEmpty(t, deps.Wallet)
}

func TestWireRejectsBadWalletKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Wallet.PrivateKey = "not-a-key"

	_, err := Wire(cfg)
	assert.Error(t, err)
}

func TestOnceModeWithEmptyBook(t *testing.T) {
	cfg := testConfig(t)
	deps, err := Wire(cfg)
	require.NoError(t, err)

	a := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NoError(t, a.OnceMode(context.Background(), deps))
}

func TestRunRejectsUnknownMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mode = "turbo"

	a := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, a.Run(context.Background()))
}
