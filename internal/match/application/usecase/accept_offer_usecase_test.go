package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/in"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/out"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
)

type acceptFixture struct {
	rides     *fakeRideRepo
	offers    *fakeOfferRepo
	drivers   *fakeDriverRepo
	publisher *fakePublisher
	service   *AcceptOfferService
	now       time.Time
}

// newAcceptFixture готовит поездку в OFFERED с одним PENDING offer
// водителю driver-1 (домашний район hood-copacabana).
func newAcceptFixture(t *testing.T) *acceptFixture {
	t.Helper()

	home := "hood-copacabana"
	ride := requestedRide("ride-1")
	ride.Status = domain.RideStatusOffered
	ride.NeighborhoodID = &home
	ride.DropoffNeighborhoodID = &home
	ride.Price = 100

	f := &acceptFixture{
		rides:     newFakeRideRepo(ride),
		drivers:   newFakeDriverRepo(),
		publisher: &fakePublisher{},
		now:       time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
	f.offers = newFakeOfferRepo(f.rides, f.drivers)
	f.rides.offers = f.offers
	f.drivers.statuses["driver-1"] = &domain.DriverStatus{
		DriverID:           "driver-1",
		Availability:       domain.DriverOnline,
		HomeNeighborhoodID: &home,
	}
	f.offers.offers["offer-1"] = &domain.Offer{
		ID:        "offer-1",
		RideID:    "ride-1",
		DriverID:  "driver-1",
		Status:    domain.OfferStatusPending,
		ExpiresAt: f.now.Add(15 * time.Second),
	}

	feeCalc := NewFeeTierCalculator(&fakeFeeConfigRepo{cfg: validFeeConfig()}, rioTerritories(), 800, testLogger())
	f.service = NewAcceptOfferService(f.offers, f.rides, f.drivers, feeCalc, f.publisher, testLogger())
	f.service.now = func() time.Time { return f.now }
	return f
}

func TestAcceptOfferHappyPath(t *testing.T) {
	f := newAcceptFixture(t)

	output, err := f.service.Execute(context.Background(), in.AcceptOfferInput{OfferID: "offer-1", DriverID: "driver-1"})
	require.NoError(t, err)

	assert.Equal(t, "ride-1", output.RideID)
	assert.Equal(t, domain.RideStatusAccepted, output.Status)
	assert.Equal(t, domain.TierSameNeighborhood, output.FeeTier)
	assert.Equal(t, 7.0, output.FeePct)
	assert.Equal(t, 93.0, output.DriverEarnings)

	ride := f.rides.get("ride-1")
	assert.Equal(t, domain.RideStatusAccepted, ride.Status)
	require.NotNil(t, ride.DriverID)
	assert.Equal(t, "driver-1", *ride.DriverID)
	require.NotNil(t, ride.AcceptedAt)
	assert.Equal(t, f.now, *ride.AcceptedAt)

	// fee сохранена на поездке
	require.NotNil(t, ride.FeeTier)
	assert.Equal(t, domain.TierSameNeighborhood, *ride.FeeTier)
	require.NotNil(t, ride.FeeAmount)
	assert.Equal(t, 7.0, *ride.FeeAmount)

	status, err := f.drivers.FindStatus(context.Background(), "driver-1")
	require.NoError(t, err)
	assert.Equal(t, domain.DriverBusy, status.Availability)

	assert.Contains(t, f.publisher.types(), out.EventRideAccepted)
}

func TestAcceptOfferWrongDriver(t *testing.T) {
	f := newAcceptFixture(t)

	_, err := f.service.Execute(context.Background(), in.AcceptOfferInput{OfferID: "offer-1", DriverID: "driver-impostor"})
	require.ErrorIs(t, err, domain.ErrNotOfferOwner)

	// offer и поездка не тронуты
	offer, _ := f.offers.FindByID(context.Background(), "offer-1")
	assert.Equal(t, domain.OfferStatusPending, offer.Status)
	assert.Equal(t, domain.RideStatusOffered, f.rides.get("ride-1").Status)
}

func TestAcceptOfferTwiceFails(t *testing.T) {
	f := newAcceptFixture(t)

	_, err := f.service.Execute(context.Background(), in.AcceptOfferInput{OfferID: "offer-1", DriverID: "driver-1"})
	require.NoError(t, err)

	_, err = f.service.Execute(context.Background(), in.AcceptOfferInput{OfferID: "offer-1", DriverID: "driver-1"})
	require.ErrorIs(t, err, domain.ErrOfferNotPending)
}

func TestAcceptOfferExpired(t *testing.T) {
	f := newAcceptFixture(t)
	f.now = f.now.Add(15 * time.Second) // дедлайн включительно

	_, err := f.service.Execute(context.Background(), in.AcceptOfferInput{OfferID: "offer-1", DriverID: "driver-1"})
	require.ErrorIs(t, err, domain.ErrOfferExpired)

	// опоздавший ответ ничего не мутирует: offer остается PENDING,
	// его закрытие и возврат поездки в пул принадлежат sweep'у
	offer, _ := f.offers.FindByID(context.Background(), "offer-1")
	assert.Equal(t, domain.OfferStatusPending, offer.Status)
	assert.Equal(t, domain.RideStatusOffered, f.rides.get("ride-1").Status)
}

func TestAcceptOfferUnknown(t *testing.T) {
	f := newAcceptFixture(t)

	_, err := f.service.Execute(context.Background(), in.AcceptOfferInput{OfferID: "ghost", DriverID: "driver-1"})
	require.ErrorIs(t, err, domain.ErrOfferNotFound)

	_, err = f.service.Execute(context.Background(), in.AcceptOfferInput{OfferID: "", DriverID: "driver-1"})
	require.ErrorIs(t, err, domain.ErrOfferNotFound)
}

// Конкурентные accept одного offer: побеждает ровно один вызов.
func TestAcceptOfferConcurrentSingleWinner(t *testing.T) {
	f := newAcceptFixture(t)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.Execute(context.Background(), in.AcceptOfferInput{OfferID: "offer-1", DriverID: "driver-1"})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, domain.ErrOfferNotPending)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, domain.RideStatusAccepted, f.rides.get("ride-1").Status)
}
