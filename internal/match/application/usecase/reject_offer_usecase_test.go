package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/in"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
)

func TestRejectOfferRedispatches(t *testing.T) {
	f := newDispatchFixture(t, requestedRide("ride-1"))
	f.addOnlineDriver("driver-1", -22.972, -43.19)
	f.addOnlineDriver("driver-2", -22.975, -43.19)

	require.NoError(t, f.dispatch.Execute(context.Background(), "ride-1"))
	first := f.offers.byRide("ride-1")[0]

	service := NewRejectOfferService(f.offers, f.dispatch, testLogger())
	service.now = func() time.Time { return f.now }

	err := service.Execute(context.Background(), in.RejectOfferInput{
		OfferID:  first.ID,
		DriverID: first.DriverID,
		Reason:   "too far",
	})
	require.NoError(t, err)

	offers := f.offers.byRide("ride-1")
	require.Len(t, offers, 2)
	for _, o := range offers {
		if o.ID == first.ID {
			assert.Equal(t, domain.OfferStatusRejected, o.Status)
		} else {
			// следующая попытка запущена сразу
			assert.Equal(t, domain.OfferStatusPending, o.Status)
		}
	}
	assert.Equal(t, domain.RideStatusOffered, f.rides.get("ride-1").Status)
}

func TestRejectOfferWrongDriver(t *testing.T) {
	f := newDispatchFixture(t, requestedRide("ride-1"))
	f.addOnlineDriver("driver-1", -22.972, -43.19)

	require.NoError(t, f.dispatch.Execute(context.Background(), "ride-1"))
	first := f.offers.byRide("ride-1")[0]

	service := NewRejectOfferService(f.offers, f.dispatch, testLogger())
	service.now = func() time.Time { return f.now }

	err := service.Execute(context.Background(), in.RejectOfferInput{OfferID: first.ID, DriverID: "driver-impostor"})
	require.ErrorIs(t, err, domain.ErrNotOfferOwner)

	offer, _ := f.offers.FindByID(context.Background(), first.ID)
	assert.Equal(t, domain.OfferStatusPending, offer.Status)
}

func TestRejectOfferLate(t *testing.T) {
	f := newDispatchFixture(t, requestedRide("ride-1"))
	f.addOnlineDriver("driver-1", -22.972, -43.19)

	require.NoError(t, f.dispatch.Execute(context.Background(), "ride-1"))
	first := f.offers.byRide("ride-1")[0]

	service := NewRejectOfferService(f.offers, f.dispatch, testLogger())
	service.now = func() time.Time { return f.now.Add(time.Minute) }

	err := service.Execute(context.Background(), in.RejectOfferInput{OfferID: first.ID, DriverID: first.DriverID})
	require.ErrorIs(t, err, domain.ErrOfferExpired)

	// опоздавший reject не закрывает offer — это сделает sweep
	offer, _ := f.offers.FindByID(context.Background(), first.ID)
	assert.Equal(t, domain.OfferStatusPending, offer.Status)
}
