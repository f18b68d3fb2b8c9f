package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRideTransitions(t *testing.T) {
	// прямой путь матчинга
	assert.True(t, CanRideTransition(RideStatusRequested, RideStatusOffered))
	assert.True(t, CanRideTransition(RideStatusOffered, RideStatusAccepted))
	assert.True(t, CanRideTransition(RideStatusAccepted, RideStatusCompleted))

	// возврат в пул после истечения/отклонения offer
	assert.True(t, CanRideTransition(RideStatusOffered, RideStatusRequested))

	// исчерпание попыток
	assert.True(t, CanRideTransition(RideStatusRequested, RideStatusNoDriver))
	assert.True(t, CanRideTransition(RideStatusOffered, RideStatusNoDriver))

	// запрещенные переходы
	assert.False(t, CanRideTransition(RideStatusRequested, RideStatusAccepted))
	assert.False(t, CanRideTransition(RideStatusAccepted, RideStatusRequested))
	assert.False(t, CanRideTransition(RideStatusNoDriver, RideStatusRequested))
	assert.False(t, CanRideTransition(RideStatusCompleted, RideStatusAccepted))
	assert.False(t, CanRideTransition(RideStatusCancelled, RideStatusRequested))
}

func TestOfferTransitions(t *testing.T) {
	for _, to := range []string{OfferStatusAccepted, OfferStatusRejected, OfferStatusExpired, OfferStatusCancelled} {
		assert.True(t, CanOfferTransition(OfferStatusPending, to))
	}

	// все конечные статусы терминальны
	assert.False(t, CanOfferTransition(OfferStatusAccepted, OfferStatusPending))
	assert.False(t, CanOfferTransition(OfferStatusExpired, OfferStatusAccepted))
	assert.False(t, CanOfferTransition(OfferStatusRejected, OfferStatusPending))
}

func TestIsTerminalOfferStatus(t *testing.T) {
	// в потолок попыток входят только истекшие и отклоненные
	assert.True(t, IsTerminalOfferStatus(OfferStatusExpired))
	assert.True(t, IsTerminalOfferStatus(OfferStatusRejected))

	assert.False(t, IsTerminalOfferStatus(OfferStatusPending))
	assert.False(t, IsTerminalOfferStatus(OfferStatusAccepted))
	assert.False(t, IsTerminalOfferStatus(OfferStatusCancelled))
}
