package service

import (
	"context"

	"memetrader/internal/domain"
)

// CurveProber checks whether a mint has an active bonding curve.
type CurveProber interface {
	Exists(ctx context.Context, mint string) bool
}

// VenueSelector routes orders to an execution venue. Established tokens and
// all sells go through the aggregator; unknown mints are probed against the
// bonding curve first, since freshly launched tokens have no aggregator route
// yet.
type VenueSelector struct {
	prober CurveProber
}

// NewVenueSelector creates a selector backed by the given curve prober.
func NewVenueSelector(prober CurveProber) *VenueSelector {
	return &VenueSelector{prober: prober}
}

// Select picks the venue for one order. The probe is bounded and best effort;
// when it cannot confirm a bonding curve the aggregator is used.
func (s *VenueSelector) Select(ctx context.Context, mint string, side domain.Side) domain.Venue {
	if side == domain.SideSell {
		return domain.VenueJupiter
	}
	if domain.KnownMints[mint] {
		return domain.VenueJupiter
	}
	if s.prober != nil && s.prober.Exists(ctx, mint) {
		return domain.VenuePumpFun
	}
	return domain.VenueJupiter
}
