package executor

import (
	"sync"

	"memetrader/internal/domain"
)

// InFlight serializes trades per token mint. A buy or sell that is already in
// the pipeline blocks a second submission for the same mint; without this,
// two concurrent orders would both pass the balance checks and one of the
// resulting transactions would fail on chain.
type InFlight struct {
	active map[string]bool
	mu     sync.Mutex
}

// NewInFlight creates an empty in-flight guard.
func NewInFlight() *InFlight {
	return &InFlight{active: make(map[string]bool)}
}

// Acquire claims the mint for the duration of one trade. It returns
// ErrTradeInFlight when another trade holds it.
func (g *InFlight) Acquire(mint string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active[mint] {
		return domain.ErrTradeInFlight
	}
	g.active[mint] = true
	return nil
}

// Release frees the mint. Releasing an unclaimed mint is a no-op.
func (g *InFlight) Release(mint string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, mint)
}
