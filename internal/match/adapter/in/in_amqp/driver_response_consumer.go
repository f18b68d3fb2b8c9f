package in_amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/application/ports/in"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/match/domain"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/logger"
	"github.com/usbtecnok/kaviar-v2-sub001/internal/shared/mq"
)

// errMalformed — сообщение не разобрано, повторная доставка бессмысленна
var errMalformed = errors.New("malformed message")

// DriverResponseMessage — ответ водителя на offer из шины
type DriverResponseMessage struct {
	OfferID       string `json:"offer_id"`
	DriverID      string `json:"driver_id"`
	Accepted      bool   `json:"accepted"`
	Reason        string `json:"reason,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// DriverResponseConsumer обрабатывает accept/reject водителей из RabbitMQ.
// Второй входной канал ответов наряду с WebSocket; оба сходятся в одни
// и те же use cases, поэтому гонки разрешает acceptance-транзакция.
type DriverResponseConsumer struct {
	mqConn *mq.RabbitMQ
	accept in.AcceptOfferUseCase
	reject in.RejectOfferUseCase
	log    *logger.Logger
}

// NewDriverResponseConsumer создает новый consumer
func NewDriverResponseConsumer(
	mqConn *mq.RabbitMQ,
	accept in.AcceptOfferUseCase,
	reject in.RejectOfferUseCase,
	log *logger.Logger,
) *DriverResponseConsumer {
	return &DriverResponseConsumer{
		mqConn: mqConn,
		accept: accept,
		reject: reject,
		log:    log,
	}
}

// Start запускает consumer очереди ответов водителей
func (c *DriverResponseConsumer) Start(ctx context.Context) error {
	return c.mqConn.Consume(ctx, mq.QueueDriverResponses, "match-driver-responses", func(msg amqp.Delivery) {
		if err := c.handle(ctx, msg); err != nil {
			c.log.Error(logger.Entry{
				Action:  "handle_driver_response_failed",
				Message: err.Error(),
				Error:   &logger.ErrObj{Msg: err.Error()},
			})
			// бизнес-отказы не перечитываем, это окончательный ответ
			_ = msg.Nack(false, requeueable(err))
			return
		}
		_ = msg.Ack(false)
	})
}

func (c *DriverResponseConsumer) handle(ctx context.Context, msg amqp.Delivery) error {
	var response DriverResponseMessage
	if err := json.Unmarshal(msg.Body, &response); err != nil {
		return fmt.Errorf("%w: parse driver response: %v", errMalformed, err)
	}

	c.log.Info(logger.Entry{
		Action:   "driver_response_received",
		Message:  fmt.Sprintf("accepted=%t", response.Accepted),
		OfferID:  response.OfferID,
		DriverID: response.DriverID,
		Additional: map[string]any{
			"routing_key": msg.RoutingKey,
		},
	})

	if response.Accepted {
		_, err := c.accept.Execute(ctx, in.AcceptOfferInput{
			OfferID:  response.OfferID,
			DriverID: response.DriverID,
		})
		return err
	}

	return c.reject.Execute(ctx, in.RejectOfferInput{
		OfferID:  response.OfferID,
		DriverID: response.DriverID,
		Reason:   response.Reason,
	})
}

// requeueable — только инфраструктурные ошибки возвращаются в очередь;
// типизированные отказы доменного уровня окончательны
func requeueable(err error) bool {
	switch {
	case errors.Is(err, errMalformed),
		errors.Is(err, domain.ErrOfferNotFound),
		errors.Is(err, domain.ErrOfferNotPending),
		errors.Is(err, domain.ErrOfferExpired),
		errors.Is(err, domain.ErrNotOfferOwner):
		return false
	}
	return true
}
