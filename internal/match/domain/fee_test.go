package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeeConfigValidate(t *testing.T) {
	valid := FeeConfig{SameNeighborhoodPct: 7, AdjacentPct: 12, FallbackPct: 12, OutsidePct: 20}
	require.NoError(t, valid.Validate())

	// ADJACENT и FALLBACK независимы, совпадать не обязаны
	uneven := FeeConfig{SameNeighborhoodPct: 5, AdjacentPct: 10, FallbackPct: 14, OutsidePct: 25}
	require.NoError(t, uneven.Validate())

	cases := []struct {
		name string
		cfg  FeeConfig
	}{
		{"same равен adjacent", FeeConfig{SameNeighborhoodPct: 12, AdjacentPct: 12, FallbackPct: 15, OutsidePct: 20}},
		{"same выше fallback", FeeConfig{SameNeighborhoodPct: 13, AdjacentPct: 14, FallbackPct: 12, OutsidePct: 20}},
		{"adjacent равен outside", FeeConfig{SameNeighborhoodPct: 7, AdjacentPct: 20, FallbackPct: 12, OutsidePct: 20}},
		{"fallback выше outside", FeeConfig{SameNeighborhoodPct: 7, AdjacentPct: 12, FallbackPct: 25, OutsidePct: 20}},
		{"отрицательный процент", FeeConfig{SameNeighborhoodPct: -1, AdjacentPct: 12, FallbackPct: 12, OutsidePct: 20}},
		{"больше 100", FeeConfig{SameNeighborhoodPct: 7, AdjacentPct: 12, FallbackPct: 12, OutsidePct: 120}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.cfg.Validate(), ErrInvalidFeeConfig)
		})
	}
}

func TestFeeConfigPctFor(t *testing.T) {
	cfg := FeeConfig{SameNeighborhoodPct: 7, AdjacentPct: 12, FallbackPct: 13, OutsidePct: 20}

	assert.Equal(t, 7.0, cfg.PctFor(TierSameNeighborhood))
	assert.Equal(t, 12.0, cfg.PctFor(TierAdjacentNeighborhood))
	assert.Equal(t, 13.0, cfg.PctFor(TierFallbackRadius))
	assert.Equal(t, 20.0, cfg.PctFor(TierOutsideFence))

	// неизвестный tier консервативно получает максимум
	assert.Equal(t, 20.0, cfg.PctFor("SOMETHING_ELSE"))
}

func TestNewFeeBreakdown(t *testing.T) {
	fb := NewFeeBreakdown(TierSameNeighborhood, 7, 100, "test")
	assert.Equal(t, 7.0, fb.FeeAmount)
	assert.Equal(t, 93.0, fb.DriverEarnings)

	// округление до копеек
	fb = NewFeeBreakdown(TierOutsideFence, 20, 33.33, "test")
	assert.Equal(t, 6.67, fb.FeeAmount)
	assert.Equal(t, 26.66, fb.DriverEarnings)

	fb = NewFeeBreakdown(TierFallbackRadius, 12, 0, "test")
	assert.Zero(t, fb.FeeAmount)
	assert.Zero(t, fb.DriverEarnings)
}

func TestOfferExpired(t *testing.T) {
	now := time.Now()
	offer := Offer{ExpiresAt: now}

	// дедлайн включительно: момент expires_at уже истек
	assert.True(t, offer.Expired(now))
	assert.True(t, offer.Expired(now.Add(time.Second)))
	assert.False(t, offer.Expired(now.Add(-time.Second)))
}
