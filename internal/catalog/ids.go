package catalog

import (
	"sync"
	"sync/atomic"
	"time"
)

// IDAllocator hands out product ids. Implementations must never return the
// same id twice within a process.
type IDAllocator interface {
	NextID() int64
}

// ClockIDs issues millisecond timestamps, bumped past the previous id when
// the clock stalls or steps back.
type ClockIDs struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewClockIDs(now func() time.Time) *ClockIDs {
	if now == nil {
		now = time.Now
	}
	return &ClockIDs{now: now}
}

func (c *ClockIDs) NextID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.now().UnixMilli()
	if id <= c.last {
		id = c.last + 1
	}
	c.last = id
	return id
}

// SequenceIDs counts up from a fixed start.
type SequenceIDs struct {
	next atomic.Int64
}

func NewSequenceIDs(start int64) *SequenceIDs {
	s := &SequenceIDs{}
	s.next.Store(start)
	return s
}

func (s *SequenceIDs) NextID() int64 {
	return s.next.Add(1) - 1
}
