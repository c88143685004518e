package chat

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/skillshare/backend/internal/metrics"
	"github.com/skillshare/backend/internal/models"
	"github.com/skillshare/backend/internal/mq"
)

// JSONPublisher is satisfied by *mq.Publisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// BrokerFanout routes events through a RabbitMQ topic exchange so a stream
// held by any API instance receives events published by any worker.
type BrokerFanout struct {
	conn      *amqp.Connection
	exchange  string
	publisher JSONPublisher
	log       *slog.Logger
}

var _ Fanout = (*BrokerFanout)(nil)

func NewBrokerFanout(conn *amqp.Connection, exchange string, pub JSONPublisher, log *slog.Logger) *BrokerFanout {
	if log == nil {
		log = slog.Default()
	}
	return &BrokerFanout{conn: conn, exchange: exchange, publisher: pub, log: log}
}

func (f *BrokerFanout) Publish(ctx context.Context, ev models.ChatEvent) error {
	return f.publisher.PublishJSON(ctx, mq.UserKey(ev.RecipientID.String()), ev)
}

// Subscribe binds a private queue to the user's routing key. The returned
// channel closes when ctx ends or unsubscribe is called.
func (f *BrokerFanout) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan models.ChatEvent, func(), error) {
	consumer, err := mq.NewConsumer(f.conn, f.exchange, "", []string{mq.UserKey(userID.String())})
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	deliveries, err := consumer.Deliveries(ctx)
	if err != nil {
		cancel()
		_ = consumer.Close()
		return nil, nil, err
	}
	metrics.ChatStreamSubscribers.Inc()

	out := make(chan models.ChatEvent, subscriberBuffer)
	go func() {
		defer close(out)
		defer metrics.ChatStreamSubscribers.Dec()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				var ev models.ChatEvent
				if err := json.Unmarshal(d.Body, &ev); err != nil {
					f.log.Warn("dropping malformed chat event", "error", err)
					continue
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()
	unsub := func() {
		cancel()
		_ = consumer.Close()
	}
	return out, unsub, nil
}
