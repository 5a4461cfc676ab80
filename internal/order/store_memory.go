package order

import (
	"context"
	"sort"
	"sync"
)

type MemStore struct {
	mu sync.RWMutex
	m  map[string]Order
}

func NewMemStore() *MemStore {
	return &MemStore{m: map[string]Order{}}
}

func (s *MemStore) Create(_ context.Context, o Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[o.ID]; ok {
		return ErrDuplicateID
	}
	s.m[o.ID] = o
	return nil
}

func (s *MemStore) Get(_ context.Context, id string) (Order, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.m[id]
	return o, ok, nil
}

func (s *MemStore) List(_ context.Context, limit int) ([]Order, error) {
	s.mu.RLock()
	out := make([]Order, 0, len(s.m))
	for _, o := range s.m {
		out = append(out, o)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if n := clampLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *MemStore) Ping(context.Context) error { return nil }
