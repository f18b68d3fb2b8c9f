package mq

import (
	"fmt"
)

// Exchanges и очереди системы матчинга
const (
	ExchangeRide   = "ride_topic"
	ExchangeDriver = "driver_topic"

	QueueDriverResponses = "match.driver_responses"
	QueueDriverLocations = "match.driver_locations"
	QueueRideCompleted   = "match.ride_completed"
)

// SetupTopology создает exchanges, queues и bindings
func SetupTopology(mq *RabbitMQ) error {
	ch := mq.Channel()
	if ch == nil {
		return fmt.Errorf("rabbitmq channel not available")
	}

	// 1. Exchange: ride_topic (topic) — исходящие события жизненного цикла поездки
	if err := ch.ExchangeDeclare(
		ExchangeRide, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // args
	); err != nil {
		return fmt.Errorf("declare %s: %w", ExchangeRide, err)
	}

	// 2. Exchange: driver_topic (topic) — входящие ответы и локации водителей
	if err := ch.ExchangeDeclare(
		ExchangeDriver,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("declare %s: %w", ExchangeDriver, err)
	}

	// 3. Очереди событий поездок (на них подписаны внешние сервисы)
	rideQueues := []string{
		"ride.requested",
		"ride.offered",
		"ride.accepted",
		"ride.offer_expired",
		"ride.no_driver",
	}
	for _, q := range rideQueues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
		if err := ch.QueueBind(q, q, ExchangeRide, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", q, err)
		}
	}

	// 4. Очереди match-service на driver_topic
	bindings := map[string]string{
		QueueDriverResponses: "driver.response",
		QueueDriverLocations: "driver.location_updated",
		QueueRideCompleted:   "ride.completed",
	}
	for q, key := range bindings {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
		exchange := ExchangeDriver
		if key == "ride.completed" {
			exchange = ExchangeRide
		}
		if err := ch.QueueBind(q, key, exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", q, err)
		}
	}

	return nil
}
