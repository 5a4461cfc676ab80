package admin

import (
	"context"
	"sync"
	"time"
)

type MemSessions struct {
	mu  sync.Mutex
	exp map[string]time.Time
	now func() time.Time
}

func NewMemSessions(now func() time.Time) *MemSessions {
	if now == nil {
		now = time.Now
	}
	return &MemSessions{exp: make(map[string]time.Time), now: now}
}

func (s *MemSessions) Register(_ context.Context, id string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, at := range s.exp {
		if !now.Before(at) {
			delete(s.exp, k)
		}
	}
	s.exp[id] = now.Add(ttl)
	return nil
}

func (s *MemSessions) Active(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.exp[id]
	if !ok {
		return false, nil
	}
	if !s.now().Before(at) {
		delete(s.exp, id)
		return false, nil
	}
	return true, nil
}

func (s *MemSessions) Revoke(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.exp, id)
	return nil
}
