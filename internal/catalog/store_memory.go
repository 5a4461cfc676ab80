package catalog

import (
	"context"
	"sync"
	"sync/atomic"
)

type MemStore struct {
	mu   sync.RWMutex
	m    map[int64]Product
	down atomic.Bool
}

func NewMemStore(products ...Product) *MemStore {
	s := &MemStore{m: make(map[int64]Product, len(products))}
	for _, p := range products {
		s.m[p.ID] = p
	}
	return s
}

// SetAvailable simulates losing or regaining the store.
func (s *MemStore) SetAvailable(up bool) { s.down.Store(!up) }

func (s *MemStore) Available() bool { return !s.down.Load() }

func (s *MemStore) Ping(context.Context) error {
	if !s.Available() {
		return ErrUnavailable
	}
	return nil
}

func (s *MemStore) Find(_ context.Context, f Filter) ([]Product, error) {
	if !s.Available() {
		return nil, ErrUnavailable
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]Product, 0, len(s.m))
	for _, p := range s.m {
		all = append(all, p)
	}
	return Apply(all, f), nil
}

func (s *MemStore) FindOne(_ context.Context, id int64) (Product, bool, error) {
	if !s.Available() {
		return Product{}, false, ErrUnavailable
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[id]
	return p, ok, nil
}

func (s *MemStore) Insert(_ context.Context, p Product) error {
	if !s.Available() {
		return ErrUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[p.ID]; ok {
		return ErrDuplicateID
	}
	s.m[p.ID] = p
	return nil
}

func (s *MemStore) Update(_ context.Context, p Product) (bool, error) {
	if !s.Available() {
		return false, ErrUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[p.ID]; !ok {
		return false, nil
	}
	s.m[p.ID] = p
	return true, nil
}

func (s *MemStore) Delete(_ context.Context, id int64) (bool, error) {
	if !s.Available() {
		return false, ErrUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[id]; !ok {
		return false, nil
	}
	delete(s.m, id)
	return true, nil
}

func (s *MemStore) Upsert(_ context.Context, products []Product) error {
	if !s.Available() {
		return ErrUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range products {
		s.m[p.ID] = p
	}
	return nil
}

func (s *MemStore) Count(context.Context) (int64, error) {
	if !s.Available() {
		return 0, ErrUnavailable
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.m)), nil
}
