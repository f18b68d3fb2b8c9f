package in_amqp

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/out"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/mq"
)

// LocationMessage — обновление локации водителя из шины
type LocationMessage struct {
	DriverID  string    `json:"driver_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// LocationConsumer принимает поток локаций водителей.
// Поток высокочастотный и терпимый к потерям: битые и неудачные
// сообщения дропаются без requeue, следующее обновление их перекроет.
type LocationConsumer struct {
	mqConn  *mq.RabbitMQ
	drivers out.DriverRepository
	log     *logger.Logger
}

// NewLocationConsumer создает новый consumer
func NewLocationConsumer(mqConn *mq.RabbitMQ, drivers out.DriverRepository, log *logger.Logger) *LocationConsumer {
	return &LocationConsumer{
		mqConn:  mqConn,
		drivers: drivers,
		log:     log,
	}
}

// Start запускает consumer очереди локаций
func (c *LocationConsumer) Start(ctx context.Context) error {
	return c.mqConn.Consume(ctx, mq.QueueDriverLocations, "match-driver-locations", func(msg amqp.Delivery) {
		c.handle(ctx, msg)
		_ = msg.Ack(false)
	})
}

func (c *LocationConsumer) handle(ctx context.Context, msg amqp.Delivery) {
	var loc LocationMessage
	if err := json.Unmarshal(msg.Body, &loc); err != nil {
		c.log.Warn(logger.Entry{
			Action:  "location_message_malformed",
			Message: err.Error(),
		})
		return
	}

	if loc.DriverID == "" {
		return
	}
	if err := domain.ValidateCoordinates(loc.Latitude, loc.Longitude); err != nil {
		c.log.Warn(logger.Entry{
			Action:   "location_invalid_coordinates",
			Message:  err.Error(),
			DriverID: loc.DriverID,
		})
		return
	}

	at := loc.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	if err := c.drivers.UpsertLocation(ctx, loc.DriverID, loc.Latitude, loc.Longitude, at); err != nil {
		c.log.Error(logger.Entry{
			Action:   "upsert_location_failed",
			Message:  err.Error(),
			DriverID: loc.DriverID,
			Error:    &logger.ErrObj{Msg: err.Error()},
		})
	}
}
