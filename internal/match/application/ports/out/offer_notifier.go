package out

import (
	"context"
	"time"
)

// OfferNotification — payload для realtime push водителю
type OfferNotification struct {
	OfferID        string    `json:"offer_id"`
	RideID         string    `json:"ride_id"`
	ExpiresAt      time.Time `json:"expires_at"`
	PickupLat      float64   `json:"pickup_lat"`
	PickupLng      float64   `json:"pickup_lng"`
	PickupAddress  string    `json:"pickup_address"`
	DropoffLat     float64   `json:"dropoff_lat"`
	DropoffLng     float64   `json:"dropoff_lng"`
	DropoffAddress string    `json:"dropoff_address"`
	Price          float64   `json:"price"`
	DistanceKm     float64   `json:"distance_km"`
}

// OfferNotifier — best-effort доставка offer на живое соединение водителя.
// Доставка at-most-once; корректность цикла диспетчеризации от нее не зависит.
type OfferNotifier interface {
	// NotifyOffer отправляет offer водителю
	NotifyOffer(ctx context.Context, driverID string, n OfferNotification) error

	// NotifyOfferRevoked сообщает водителю, что offer больше не действителен
	NotifyOfferRevoked(ctx context.Context, driverID, offerID, reason string) error

	// IsDriverConnected проверяет живое соединение водителя
	IsDriverConnected(driverID string) bool
}
