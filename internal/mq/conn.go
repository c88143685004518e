// Package mq wraps RabbitMQ topic-exchange publishing and consuming.
package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Dial opens a connection shared by a Publisher and any number of Consumers.
func Dial(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	return conn, nil
}

func declareExchange(ch *amqp.Channel, exchange string) error {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	return nil
}
