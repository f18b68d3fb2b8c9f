package out

import (
	"context"
)

// Типы событий жизненного цикла поездки
const (
	EventRideRequested    = "RIDE_REQUESTED"
	EventRideOffered      = "RIDE_OFFERED"
	EventRideAccepted     = "RIDE_ACCEPTED"
	EventRideOfferExpired = "RIDE_OFFER_EXPIRED"
	EventRideNoDriver     = "RIDE_NO_DRIVER"
)

// RideEventData — данные события для шины сообщений
type RideEventData struct {
	RideID         string         `json:"ride_id"`
	PassengerID    string         `json:"passenger_id,omitempty"`
	DriverID       string         `json:"driver_id,omitempty"`
	OfferID        string         `json:"offer_id,omitempty"`
	Status         string         `json:"status"`
	AdditionalData map[string]any `json:"additional_data,omitempty"`
}

// EventPublisher публикует события поездок в шину сообщений
type EventPublisher interface {
	PublishRideEvent(ctx context.Context, eventType string, data RideEventData) error
}
