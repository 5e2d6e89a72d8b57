package events

import (
	"context"

	"github.com/yazedalasad/bloodbank/pkg/requestcontext"
)

// Publisher records domain events. Events are appended to the store
// synchronously (they are part of the domain outcome) and offered to the
// outbox channel for asynchronous delivery to external sinks. A full outbox
// never blocks domain logic; delivery is best-effort, the store is not.
type Publisher struct {
	store  Store
	outbox chan Event
}

// NewPublisher builds a publisher with a buffered outbox. The returned
// channel is consumed by a Worker.
func NewPublisher(store Store, outboxSize int) *Publisher {
	if outboxSize <= 0 {
		outboxSize = 256
	}
	return &Publisher{store: store, outbox: make(chan Event, outboxSize)}
}

// Outbox exposes the delivery channel for wiring a Worker.
func (p *Publisher) Outbox() <-chan Event { return p.outbox }

// Emit stamps and records an event.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.CorrelationID == "" {
		event.CorrelationID = requestcontext.RequestID(ctx)
	}
	if event.ActorID == "" {
		event.ActorID = requestcontext.ActorID(ctx)
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	select {
	case p.outbox <- event:
	default:
		// Outbox full: drop from the delivery path, the store still has it.
	}
	return nil
}

// List replays recorded events.
func (p *Publisher) List(ctx context.Context) ([]Event, error) {
	return p.store.List(ctx)
}
