package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "github.com/yazedalasad/bloodbank/pkg/domain"
	"github.com/yazedalasad/bloodbank/pkg/requestcontext"
)

func TestPublisher_Emit(t *testing.T) {
	t.Run("stamps request-scoped time and correlation id", func(t *testing.T) {
		store := NewInMemoryStore()
		pub := NewPublisher(store, 4)

		fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(context.Background(), fixed)
		ctx = requestcontext.WithRequestID(ctx, "req-123")

		donorID := id.NewDonorID()
		require.NoError(t, pub.Emit(ctx, Event{Action: ActionDonationRecorded, DonorID: donorID, VolumeML: 450}))

		recorded, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, recorded, 1)
		assert.Equal(t, fixed, recorded[0].Timestamp)
		assert.Equal(t, "req-123", recorded[0].CorrelationID)
		assert.Equal(t, donorID, recorded[0].DonorID)
	})

	t.Run("full outbox never blocks emission", func(t *testing.T) {
		store := NewInMemoryStore()
		pub := NewPublisher(store, 1)
		ctx := context.Background()

		for i := 0; i < 10; i++ {
			require.NoError(t, pub.Emit(ctx, Event{Action: ActionRequestCreated}))
		}

		recorded, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, recorded, 10, "store keeps every event even when delivery lags")
	})
}

type captureSink struct {
	got chan Event
}

func (c *captureSink) Publish(_ context.Context, event Event) error {
	c.got <- event
	return nil
}

func TestWorker_DrainsOutbox(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, 4)
	sink := &captureSink{got: make(chan Event, 4)}
	worker := NewWorker(sink, pub.Outbox(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	require.NoError(t, pub.Emit(ctx, Event{Action: ActionRequestFulfilled}))

	select {
	case event := <-sink.got:
		assert.Equal(t, ActionRequestFulfilled, event.Action)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not deliver event")
	}
}
