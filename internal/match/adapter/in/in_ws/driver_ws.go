package in_ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/in"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/out"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/ws"
)

// offerResponsePayload — ответ водителя на offer по WebSocket
type offerResponsePayload struct {
	OfferID  string `json:"offer_id"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// locationUpdatePayload — обновление локации по WebSocket
type locationUpdatePayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DriverWSHandler роутит входящие WebSocket сообщения водителей
// в use cases матчинга. Идентичность водителя берется из аутентифицированного
// соединения, а не из payload.
type DriverWSHandler struct {
	hub     *ws.Hub
	accept  in.AcceptOfferUseCase
	reject  in.RejectOfferUseCase
	drivers out.DriverRepository
	log     *logger.Logger
}

// NewDriverWSHandler создает обработчик и регистрирует его в hub
func NewDriverWSHandler(
	hub *ws.Hub,
	accept in.AcceptOfferUseCase,
	reject in.RejectOfferUseCase,
	drivers out.DriverRepository,
	log *logger.Logger,
) *DriverWSHandler {
	h := &DriverWSHandler{
		hub:     hub,
		accept:  accept,
		reject:  reject,
		drivers: drivers,
		log:     log,
	}
	hub.SetMessageHandler(h.handleMessage)
	return h
}

func (h *DriverWSHandler) handleMessage(client *ws.Client, messageType string, data json.RawMessage) error {
	ctx := context.Background()

	switch messageType {
	case "offer_response":
		return h.handleOfferResponse(ctx, client, data)
	case "location_update":
		return h.handleLocationUpdate(ctx, client, data)
	case "go_online":
		return h.drivers.SetAvailability(ctx, client.UserID, domain.DriverOnline)
	case "go_offline":
		return h.drivers.SetAvailability(ctx, client.UserID, domain.DriverOffline)
	default:
		h.log.Debug(logger.Entry{
			Action:  "driver_ws_unknown_message_type",
			Message: messageType,
			Additional: map[string]any{
				"driver_id": client.UserID,
			},
		})
		return nil
	}
}

func (h *DriverWSHandler) handleOfferResponse(ctx context.Context, client *ws.Client, data json.RawMessage) error {
	var payload offerResponsePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse offer_response: %w", err)
	}
	if payload.OfferID == "" {
		return fmt.Errorf("offer_id is required")
	}

	if payload.Accepted {
		output, err := h.accept.Execute(ctx, in.AcceptOfferInput{
			OfferID:  payload.OfferID,
			DriverID: client.UserID,
		})
		if err != nil {
			return client.Send(map[string]any{
				"type":     "offer_response_result",
				"offer_id": payload.OfferID,
				"accepted": false,
				"error":    responseCode(err),
			})
		}
		return client.Send(map[string]any{
			"type":            "offer_response_result",
			"offer_id":        payload.OfferID,
			"accepted":        true,
			"ride_id":         output.RideID,
			"fee_tier":        output.FeeTier,
			"fee_pct":         output.FeePct,
			"driver_earnings": output.DriverEarnings,
		})
	}

	if err := h.reject.Execute(ctx, in.RejectOfferInput{
		OfferID:  payload.OfferID,
		DriverID: client.UserID,
		Reason:   payload.Reason,
	}); err != nil {
		return client.Send(map[string]any{
			"type":     "offer_response_result",
			"offer_id": payload.OfferID,
			"accepted": false,
			"error":    responseCode(err),
		})
	}
	return nil
}

func (h *DriverWSHandler) handleLocationUpdate(ctx context.Context, client *ws.Client, data json.RawMessage) error {
	var payload locationUpdatePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse location_update: %w", err)
	}
	if err := domain.ValidateCoordinates(payload.Latitude, payload.Longitude); err != nil {
		return err
	}
	return h.drivers.UpsertLocation(ctx, client.UserID, payload.Latitude, payload.Longitude, time.Now())
}

// responseCode — машиночитаемый код отказа для клиента
func responseCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrOfferExpired):
		return "offer_expired"
	case errors.Is(err, domain.ErrOfferNotPending):
		return "offer_taken"
	case errors.Is(err, domain.ErrNotOfferOwner):
		return "not_offer_owner"
	case errors.Is(err, domain.ErrOfferNotFound):
		return "offer_not_found"
	default:
		return "internal_error"
	}
}
