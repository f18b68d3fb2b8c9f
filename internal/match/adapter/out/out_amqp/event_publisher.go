package out_amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/out"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/mq"
)

// RideEventPublisher публикует события жизненного цикла поездок в RabbitMQ
type RideEventPublisher struct {
	mq  *mq.RabbitMQ
	log *logger.Logger
}

// NewRideEventPublisher создает новый publisher
func NewRideEventPublisher(mqConn *mq.RabbitMQ, log *logger.Logger) *RideEventPublisher {
	return &RideEventPublisher{
		mq:  mqConn,
		log: log,
	}
}

// PublishRideEvent публикует событие поездки в ride_topic
func (p *RideEventPublisher) PublishRideEvent(ctx context.Context, eventType string, data out.RideEventData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	routingKey := getRoutingKey(eventType)

	if err := p.mq.Publish(ctx, mq.ExchangeRide, routingKey, payload); err != nil {
		p.log.Error(logger.Entry{
			Action:  "publish_ride_event_failed",
			Message: err.Error(),
			RideID:  data.RideID,
			Error:   &logger.ErrObj{Msg: err.Error()},
			Additional: map[string]any{
				"event_type":  eventType,
				"routing_key": routingKey,
			},
		})
		return fmt.Errorf("publish to rabbitmq: %w", err)
	}

	p.log.Debug(logger.Entry{
		Action:  "ride_event_published",
		Message: eventType,
		RideID:  data.RideID,
		Additional: map[string]any{
			"routing_key": routingKey,
		},
	})

	return nil
}

// getRoutingKey возвращает routing key для события
func getRoutingKey(eventType string) string {
	switch eventType {
	case out.EventRideRequested:
		return "ride.requested"
	case out.EventRideOffered:
		return "ride.offered"
	case out.EventRideAccepted:
		return "ride.accepted"
	case out.EventRideOfferExpired:
		return "ride.offer_expired"
	case out.EventRideNoDriver:
		return "ride.no_driver"
	default:
		return "ride.event"
	}
}
