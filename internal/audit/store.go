package audit

import (
	"context"
	"sync"
)

// Store persists audit events. Append-only; events are never updated or
// deleted by the service.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByOrder(ctx context.Context, externalID string) ([]Event, error)
}

// InMemoryStore keeps events per external order id. Backs tests and the
// database-less dev mode.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ExternalID] = append(s.events[event.ExternalID], event)
	return nil
}

func (s *InMemoryStore) ListByOrder(_ context.Context, externalID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[externalID]...), nil
}

// ListAll returns every recorded event. Test helper.
func (s *InMemoryStore) ListAll(_ context.Context) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []Event
	for _, events := range s.events {
		all = append(all, events...)
	}
	return all, nil
}
