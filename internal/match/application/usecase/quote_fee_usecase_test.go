package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/in"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
)

func newQuoteService(t *testing.T, drivers *fakeDriverRepo) *QuoteFeeService {
	t.Helper()
	territories := rioTerritories()
	resolver := NewTerritoryResolver(territories, 800, testLogger())
	feeCalc := NewFeeTierCalculator(&fakeFeeConfigRepo{cfg: validFeeConfig()}, territories, 800, testLogger())
	return NewQuoteFeeService(drivers, resolver, feeCalc)
}

func TestQuoteFeeLocalDriver(t *testing.T) {
	home := "hood-copacabana"
	drivers := newFakeDriverRepo()
	drivers.statuses["driver-1"] = &domain.DriverStatus{
		DriverID:           "driver-1",
		Availability:       domain.DriverOnline,
		HomeNeighborhoodID: &home,
	}

	service := newQuoteService(t, drivers)

	// обе точки внутри домашнего района водителя
	fb, err := service.Execute(context.Background(), in.QuoteFeeInput{
		DriverID:   "driver-1",
		PickupLat:  -22.97,
		PickupLng:  -43.19,
		DropoffLat: -22.975,
		DropoffLng: -43.185,
		Fare:       100,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TierSameNeighborhood, fb.Tier)
	assert.Equal(t, 93.0, fb.DriverEarnings)

	// dropoff в чужом районе понижает tier до ADJACENT
	fb, err = service.Execute(context.Background(), in.QuoteFeeInput{
		DriverID:   "driver-1",
		PickupLat:  -22.97,
		PickupLng:  -43.19,
		DropoffLat: -22.984,
		DropoffLng: -43.215,
		Fare:       100,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TierAdjacentNeighborhood, fb.Tier)
}

func TestQuoteFeeUnknownDriver(t *testing.T) {
	service := newQuoteService(t, newFakeDriverRepo())

	_, err := service.Execute(context.Background(), in.QuoteFeeInput{
		DriverID:   "ghost",
		PickupLat:  -22.97,
		PickupLng:  -43.19,
		DropoffLat: -22.975,
		DropoffLng: -43.185,
		Fare:       100,
	})
	require.ErrorIs(t, err, domain.ErrDriverNotFound)
}

func TestQuoteFeeValidation(t *testing.T) {
	service := newQuoteService(t, newFakeDriverRepo())

	_, err := service.Execute(context.Background(), in.QuoteFeeInput{PickupLat: -22.97, PickupLng: -43.19})
	assert.Error(t, err)

	_, err = service.Execute(context.Background(), in.QuoteFeeInput{DriverID: "d", PickupLat: 95, PickupLng: -43.19, DropoffLat: -22.97, DropoffLng: -43.19})
	assert.ErrorIs(t, err, domain.ErrInvalidCoordinates)
}

func TestReleaseDriver(t *testing.T) {
	drivers := newFakeDriverRepo()
	drivers.statuses["driver-1"] = &domain.DriverStatus{DriverID: "driver-1", Availability: domain.DriverBusy}

	service := NewReleaseDriverService(drivers, testLogger())

	require.NoError(t, service.Execute(context.Background(), "driver-1", "ride-1"))
	status, err := drivers.FindStatus(context.Background(), "driver-1")
	require.NoError(t, err)
	assert.Equal(t, domain.DriverOnline, status.Availability)

	assert.ErrorIs(t, service.Execute(context.Background(), "", "ride-1"), domain.ErrDriverNotFound)
}
