package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "github.com/notorious-utopia/egrn/pkg/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func waitForEvents(t *testing.T, store *InMemoryStore, externalID string, want int) []Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events, err := store.ListByOrder(context.Background(), externalID)
		require.NoError(t, err)
		if len(events) >= want {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events on %s", want, externalID)
	return nil
}

func TestWorkerPersistsEmittedEvents(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(16, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = NewWorker(store, nil, pub.Inbox(), discardLogger()).Run(ctx)
	}()

	orderID := id.NewOrderID()
	pub.Emit(ctx, Event{
		OrderID:    orderID,
		ExternalID: "EXT-1",
		Username:   "alice",
		Action:     ActionStatusUpdated,
		OldStatus:  "Заявка только что создана",
		NewStatus:  "В работе",
	})

	events := waitForEvents(t, store, "EXT-1", 1)
	assert.Equal(t, ActionStatusUpdated, events[0].Action)
	assert.Equal(t, orderID, events[0].OrderID)
	assert.False(t, events[0].Timestamp.IsZero(), "worker input must be stamped")

	cancel()
	wg.Wait()
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recordingSink) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestWorkerFansOutToSink(t *testing.T) {
	store := NewInMemoryStore()
	sink := &recordingSink{}
	pub := NewPublisher(16, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = NewWorker(store, sink, pub.Inbox(), discardLogger()).Run(ctx) }()

	pub.Emit(ctx, Event{OrderID: id.NewOrderID(), ExternalID: "EXT-2", Action: ActionOrderCompleted})
	waitForEvents(t, store, "EXT-2", 1)

	deadline := time.Now().Add(time.Second)
	for sink.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 1, sink.count())
}

// TestWorkerSinkFailureDoesNotBlock verifies that a broken export sink never
// prevents events from reaching the primary store.
func TestWorkerSinkFailureDoesNotBlock(t *testing.T) {
	store := NewInMemoryStore()
	sink := &recordingSink{err: errors.New("broker down")}
	pub := NewPublisher(16, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = NewWorker(store, sink, pub.Inbox(), discardLogger()).Run(ctx) }()

	pub.Emit(ctx, Event{OrderID: id.NewOrderID(), ExternalID: "EXT-3", Action: ActionOrderSubmitted})
	pub.Emit(ctx, Event{OrderID: id.NewOrderID(), ExternalID: "EXT-3", Action: ActionStatusUpdated})

	events := waitForEvents(t, store, "EXT-3", 2)
	assert.Len(t, events, 2)
}
