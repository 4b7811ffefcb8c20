package audit

import (
	"context"
	"log/slog"
)

// Sink receives a copy of every event after it is persisted. Optional; used
// for the Kafka export.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Worker consumes audit events from the publisher's inbox and persists them.
// Persistence failures are logged and skipped: the audit trail is
// best-effort and must not wedge the channel.
type Worker struct {
	store  Store
	sink   Sink // may be nil
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", event.Action,
					"external_id", event.ExternalID,
					"error", err,
				)
				continue
			}
			if w.sink != nil {
				if err := w.sink.Publish(ctx, event); err != nil {
					w.logger.ErrorContext(ctx, "audit sink publish failed",
						"action", event.Action,
						"external_id", event.ExternalID,
						"error", err,
					)
				}
			}
		}
	}
}
