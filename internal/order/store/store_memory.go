package store

import (
	"context"
	"sort"
	"sync"

	"github.com/notorious-utopia/egrn/internal/order/models"
	"github.com/notorious-utopia/egrn/pkg/platform/sentinel"
)

// InMemoryOrderStore keeps orders in a map keyed by external registry id.
// It backs unit tests and the database-less dev mode.
type InMemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
}

// NewMemory creates an empty in-memory order store.
func NewMemory() *InMemoryOrderStore {
	return &InMemoryOrderStore{orders: make(map[string]*models.Order)}
}

func (s *InMemoryOrderStore) Create(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ExternalID]; exists {
		return sentinel.ErrConflict
	}
	cp := *order
	s.orders[order.ExternalID] = &cp
	return nil
}

func (s *InMemoryOrderStore) ListByUser(_ context.Context, username string) ([]*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Order
	for _, o := range s.orders {
		if o.Username == username {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryOrderStore) ListOpenByUser(ctx context.Context, username string) ([]*models.Order, error) {
	all, err := s.ListByUser(ctx, username)
	if err != nil {
		return nil, err
	}
	open := all[:0]
	for _, o := range all {
		if !o.Status.Terminal() {
			open = append(open, o)
		}
	}
	return open, nil
}

func (s *InMemoryOrderStore) FindByExternalID(_ context.Context, externalID string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[externalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *InMemoryOrderStore) UpdateStatus(_ context.Context, externalID string, status models.Status, trackingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[externalID]
	if !ok {
		return sentinel.ErrNotFound
	}
	o.Status = status
	if trackingID != "" {
		o.TrackingID = trackingID
	}
	return nil
}
