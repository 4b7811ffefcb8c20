package user

import (
	"context"
	"sort"
	"sync"

	"github.com/notorious-utopia/egrn/pkg/platform/sentinel"
)

// InMemoryStore holds users for tests and the database-less dev mode. Seeding
// happens through Add; the Store interface itself stays read-only.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewMemory creates an empty in-memory user store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{users: make(map[string]*User)}
}

// Add registers a user. Not part of the Store interface: the core never
// creates users, only test fixtures and dev seeding do.
func (s *InMemoryStore) Add(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.Username] = &cp
}

func (s *InMemoryStore) List(_ context.Context) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *InMemoryStore) FindByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *u
	return &cp, nil
}
