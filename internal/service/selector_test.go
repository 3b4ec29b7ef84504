package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"memetrader/internal/domain"
)

type fakeProber struct {
	exists bool
	probed []string
}

func (p *fakeProber) Exists(_ context.Context, mint string) bool {
	p.probed = append(p.probed, mint)
	return p.exists
}

func TestSelectSellsAlwaysUseAggregator(t *testing.T) {
	prober := &fakeProber{exists: true}
	s := NewVenueSelector(prober)

	got := s.Select(context.Background(), "11111111111111111111111111111111", domain.SideSell)
	assert.Equal(t, domain.VenueJupiter, got)
	assert.Empty(t, prober.probed, "sells never probe the curve")
}

func TestSelectKnownMintsSkipProbe(t *testing.T) {
	prober := &fakeProber{exists: true}
	s := NewVenueSelector(prober)

	for mint := range domain.KnownMints {
		assert.Equal(t, domain.VenueJupiter, s.Select(context.Background(), mint, domain.SideBuy))
	}
	assert.Empty(t, prober.probed)
}

func TestSelectUnknownMintProbesCurve(t *testing.T) {
	mint := "11111111111111111111111111111111"

	s := NewVenueSelector(&fakeProber{exists: true})
	assert.Equal(t, domain.VenuePumpFun, s.Select(context.Background(), mint, domain.SideBuy))

	s = NewVenueSelector(&fakeProber{exists: false})
	assert.Equal(t, domain.VenueJupiter, s.Select(context.Background(), mint, domain.SideBuy))
}

func TestSelectWithoutProberFallsBack(t *testing.T) {
	s := NewVenueSelector(nil)
	got := s.Select(context.Background(), "11111111111111111111111111111111", domain.SideBuy)
	assert.Equal(t, domain.VenueJupiter, got)
}
