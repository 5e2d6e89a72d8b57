package events

import "context"

// Store is an append-only event sink with replay for dashboards and tests.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
}
