package chat

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/skillshare/backend/internal/metrics"
	"github.com/skillshare/backend/internal/models"
)

const subscriberBuffer = 16

// Fanout delivers chat events to the live streams of their recipients.
type Fanout interface {
	Publish(ctx context.Context, ev models.ChatEvent) error
	Subscribe(ctx context.Context, userID uuid.UUID) (<-chan models.ChatEvent, func(), error)
}

// Hub is an in-process Fanout. A subscriber that falls behind loses events
// rather than blocking the publisher.
type Hub struct {
	mu      sync.Mutex
	clients map[uuid.UUID]map[chan models.ChatEvent]struct{}
}

var _ Fanout = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{clients: make(map[uuid.UUID]map[chan models.ChatEvent]struct{})}
}

func (h *Hub) Publish(_ context.Context, ev models.ChatEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients[ev.RecipientID] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (h *Hub) Subscribe(_ context.Context, userID uuid.UUID) (<-chan models.ChatEvent, func(), error) {
	ch := make(chan models.ChatEvent, subscriberBuffer)
	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[chan models.ChatEvent]struct{})
	}
	h.clients[userID][ch] = struct{}{}
	h.mu.Unlock()
	metrics.ChatStreamSubscribers.Inc()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients[userID], ch)
			if len(h.clients[userID]) == 0 {
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			close(ch)
			metrics.ChatStreamSubscribers.Dec()
		})
	}
	return ch, unsub, nil
}

// Subscribers returns the number of open streams for userID.
func (h *Hub) Subscribers(userID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}
