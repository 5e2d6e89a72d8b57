package events

import (
	"context"
	"log/slog"
)

// Sink delivers events to an external system (Kafka in production).
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Worker drains the publisher's outbox into a sink. Delivery failures are
// logged and skipped rather than retried: the store keeps the authoritative
// record, the sink feed is advisory for notification subscribers.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run consumes until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.WarnContext(ctx, "event delivery failed",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
