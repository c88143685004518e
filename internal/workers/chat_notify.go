// Package workers holds the River background jobs.
package workers

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/skillshare/backend/internal/metrics"
	"github.com/skillshare/backend/internal/models"
)

type ChatNotifyArgs struct {
	Event models.ChatEvent `json:"event"`
}

func (ChatNotifyArgs) Kind() string { return "chat_notify" }

func (ChatNotifyArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: 3}
}

// Publisher hands an event to the live delivery fanout.
type Publisher interface {
	Publish(ctx context.Context, ev models.ChatEvent) error
}

type ChatNotifyWorker struct {
	river.WorkerDefaults[ChatNotifyArgs]
	publisher Publisher
}

func NewChatNotifyWorker(p Publisher) *ChatNotifyWorker {
	return &ChatNotifyWorker{publisher: p}
}

// Work publishes the event. A recipient without an open stream simply
// misses it; only a failing fanout makes River retry.
func (w *ChatNotifyWorker) Work(ctx context.Context, job *river.Job[ChatNotifyArgs]) error {
	if err := w.publisher.Publish(ctx, job.Args.Event); err != nil {
		metrics.ChatEventsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("publish chat event: %w", err)
	}
	metrics.ChatEventsPublished.WithLabelValues("ok").Inc()
	return nil
}
