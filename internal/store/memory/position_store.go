// Package memory holds the in-process position store. All engine state lives
// here for the lifetime of the process; there is no durable storage.
package memory

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"memetrader/internal/domain"
)

// PositionStore keeps the open positions and their ATH trackers in two maps
// guarded by a single RWMutex, so the pairing invariant (a tracker exists iff
// its position does) holds under concurrent access. Reads take the shared
// lock; mutations take the exclusive lock for the critical section only —
// never across a network call.
type PositionStore struct {
	mu        sync.RWMutex
	positions map[string]domain.Position
	trackers  map[string]domain.ATHTracker
}

// NewPositionStore returns an empty store.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		positions: make(map[string]domain.Position),
		trackers:  make(map[string]domain.ATHTracker),
	}
}

// Insert creates the position and its tracker atomically. It returns
// domain.ErrPositionExists when the mint already has an open position.
func (s *PositionStore) Insert(mint string, pos domain.Position, tracker domain.ATHTracker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.positions[mint]; ok {
		return domain.ErrPositionExists
	}
	s.positions[mint] = pos
	s.trackers[mint] = tracker
	return nil
}

// Get returns snapshots of the position and tracker for the mint.
func (s *PositionStore) Get(mint string) (domain.Position, domain.ATHTracker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.positions[mint]
	if !ok {
		return domain.Position{}, domain.ATHTracker{}, false
	}
	return pos, s.trackers[mint], true
}

// List returns a snapshot of all open positions. The slice is safe to use
// while the store mutates concurrently.
func (s *PositionStore) List() []domain.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Position, 0, len(s.positions))
	for _, pos := range s.positions {
		out = append(out, pos)
	}
	return out
}

// UpdateWatermark records an observed price for the mint. The watermark is
// raised to the price when it is a new high and never lowered; the last price
// and timestamp always refresh. The returned tracker is the post-update state,
// so the caller can evaluate pullback against a watermark set this same cycle.
func (s *PositionStore) UpdateWatermark(mint string, price decimal.Decimal, now time.Time) (domain.ATHTracker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tracker, ok := s.trackers[mint]
	if !ok {
		return domain.ATHTracker{}, false
	}
	if price.GreaterThan(tracker.ATHPrice) {
		tracker.ATHPrice = price
	}
	tracker.LastPrice = price
	tracker.LastUpdated = now
	s.trackers[mint] = tracker
	return tracker, true
}

// Remove deletes the position and tracker together. Absent mints are a no-op.
func (s *PositionStore) Remove(mint string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.positions, mint)
	delete(s.trackers, mint)
}

// Len reports the number of open positions.
func (s *PositionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.positions)
}

var _ domain.PositionStore = (*PositionStore)(nil)
