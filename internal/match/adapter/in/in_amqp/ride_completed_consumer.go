package in_amqp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/out"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/usecase"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/mq"
)

// RideCompletedMessage — событие завершения поездки от внешнего
// ride-management
type RideCompletedMessage struct {
	RideID      string    `json:"ride_id"`
	DriverID    string    `json:"driver_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// RideCompletedConsumer закрывает поездку и возвращает водителя в пул
type RideCompletedConsumer struct {
	mqConn  *mq.RabbitMQ
	rides   out.RideRepository
	release *usecase.ReleaseDriverService
	log     *logger.Logger
}

// NewRideCompletedConsumer создает новый consumer
func NewRideCompletedConsumer(
	mqConn *mq.RabbitMQ,
	rides out.RideRepository,
	release *usecase.ReleaseDriverService,
	log *logger.Logger,
) *RideCompletedConsumer {
	return &RideCompletedConsumer{
		mqConn:  mqConn,
		rides:   rides,
		release: release,
		log:     log,
	}
}

// Start запускает consumer очереди завершенных поездок
func (c *RideCompletedConsumer) Start(ctx context.Context) error {
	return c.mqConn.Consume(ctx, mq.QueueRideCompleted, "match-ride-completed", func(msg amqp.Delivery) {
		if err := c.handle(ctx, msg); err != nil {
			c.log.Error(logger.Entry{
				Action:  "handle_ride_completed_failed",
				Message: err.Error(),
				Error:   &logger.ErrObj{Msg: err.Error()},
			})
			_ = msg.Nack(false, true)
			return
		}
		_ = msg.Ack(false)
	})
}

func (c *RideCompletedConsumer) handle(ctx context.Context, msg amqp.Delivery) error {
	var event RideCompletedMessage
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.log.Warn(logger.Entry{
			Action:  "ride_completed_malformed",
			Message: err.Error(),
		})
		return nil
	}

	at := event.CompletedAt
	if at.IsZero() {
		at = time.Now()
	}

	err := c.rides.TransitionStatus(ctx, event.RideID, domain.RideStatusAccepted, domain.RideStatusCompleted, at)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrIllegalTransition), errors.Is(err, domain.ErrRideNotFound):
		// повторная доставка или поездка чужого региона; идемпотентный no-op
		c.log.Debug(logger.Entry{
			Action:  "ride_completed_noop",
			Message: err.Error(),
			RideID:  event.RideID,
		})
	default:
		return err
	}

	if event.DriverID == "" {
		return nil
	}
	return c.release.Execute(ctx, event.DriverID, event.RideID)
}
