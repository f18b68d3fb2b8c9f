package out_ws

import (
	"context"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/out"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/ws"
)

// WsOfferNotifier доставляет offers на живые WebSocket соединения водителей.
// Доставка best-effort: водитель без соединения получает ошибку, которую
// диспетчер логирует и игнорирует (offer все равно истечет по TTL).
type WsOfferNotifier struct {
	hub *ws.Hub
	log *logger.Logger
}

// NewWsOfferNotifier создает новый notifier
func NewWsOfferNotifier(hub *ws.Hub, log *logger.Logger) *WsOfferNotifier {
	return &WsOfferNotifier{
		hub: hub,
		log: log,
	}
}

type offerMessage struct {
	Type  string                `json:"type"`
	Offer out.OfferNotification `json:"offer"`
}

type revokeMessage struct {
	Type    string `json:"type"`
	OfferID string `json:"offer_id"`
	Reason  string `json:"reason"`
}

// NotifyOffer отправляет offer водителю
func (n *WsOfferNotifier) NotifyOffer(ctx context.Context, driverID string, notification out.OfferNotification) error {
	msg := offerMessage{Type: "ride_offer", Offer: notification}

	if err := n.hub.SendToUserJSON(driverID, msg); err != nil {
		n.log.Warn(logger.Entry{
			Action:   "notify_offer_failed",
			Message:  err.Error(),
			RideID:   notification.RideID,
			OfferID:  notification.OfferID,
			DriverID: driverID,
		})
		return err
	}

	n.log.Debug(logger.Entry{
		Action:   "driver_offer_sent",
		Message:  "ride_offer",
		RideID:   notification.RideID,
		OfferID:  notification.OfferID,
		DriverID: driverID,
	})

	return nil
}

// NotifyOfferRevoked сообщает водителю, что offer больше не действителен
func (n *WsOfferNotifier) NotifyOfferRevoked(ctx context.Context, driverID, offerID, reason string) error {
	msg := revokeMessage{Type: "offer_revoked", OfferID: offerID, Reason: reason}

	if err := n.hub.SendToUserJSON(driverID, msg); err != nil {
		n.log.Debug(logger.Entry{
			Action:   "notify_offer_revoked_failed",
			Message:  err.Error(),
			OfferID:  offerID,
			DriverID: driverID,
		})
		return err
	}

	return nil
}

// IsDriverConnected проверяет живое соединение водителя
func (n *WsOfferNotifier) IsDriverConnected(driverID string) bool {
	return n.hub.IsUserConnected(driverID)
}
