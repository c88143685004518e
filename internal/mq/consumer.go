package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Consumer struct {
	ch       *amqp.Channel
	exchange string
	queue    string
	keys     []string
	autoAck  bool
}

// NewConsumer binds queue to exchange for each routing key. An empty queue
// name declares a server-named, exclusive, auto-deleted queue whose
// deliveries are auto-acknowledged, suited to one live subscriber.
func NewConsumer(conn *amqp.Connection, exchange, queue string, keys []string) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareExchange(ch, exchange); err != nil {
		_ = ch.Close()
		return nil, err
	}
	ephemeral := queue == ""
	q, err := ch.QueueDeclare(queue, !ephemeral, ephemeral, ephemeral, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	for _, rk := range keys {
		if err := ch.QueueBind(q.Name, rk, exchange, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("bind %s: %w", rk, err)
		}
	}
	return &Consumer{ch: ch, exchange: exchange, queue: q.Name, keys: keys, autoAck: ephemeral}, nil
}

// Deliveries starts consuming. The channel closes when ctx is cancelled or the
// consumer is closed.
func (c *Consumer) Deliveries(ctx context.Context) (<-chan amqp.Delivery, error) {
	return c.ch.ConsumeWithContext(ctx, c.queue, "", c.autoAck, c.autoAck, false, false, nil)
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		return c.ch.Close()
	}
	return nil
}
