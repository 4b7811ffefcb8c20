package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher hands events to the background worker through a buffered channel.
// Emit never blocks domain logic: when the buffer is full the event is
// dropped and counted, because a stalled audit trail must not stall
// reconciliation.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewPublisher creates a publisher with the given buffer size and the worker
// inbox it feeds.
func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Inbox exposes the channel the Worker drains.
func (p *Publisher) Inbox() <-chan Event { return p.inbox }

// Emit queues an event for persistence, stamping it if needed.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", event.Action,
			"external_id", event.ExternalID,
		)
	}
}
