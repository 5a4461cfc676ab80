package database

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"
)

// Health tracks the last known connectivity state of a store.
// Reads never touch the network. After a failure the store is reported down
// until retryAfter elapses; then one caller is let through to probe it again.
type Health struct {
	mu         sync.Mutex
	up         bool
	downSince  time.Time
	probedAt   time.Time
	retryAfter time.Duration
	now        func() time.Time
	onChange   func(up bool)
}

func NewHealth(retryAfter time.Duration) *Health {
	return &Health{retryAfter: retryAfter, now: time.Now}
}

// WithClock swaps the time source; tests only.
func (h *Health) WithClock(now func() time.Time) *Health {
	h.now = now
	return h
}

// OnChange registers a callback fired on every up/down transition.
func (h *Health) OnChange(fn func(up bool)) {
	h.mu.Lock()
	h.onChange = fn
	h.mu.Unlock()
}

func (h *Health) Available() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.up {
		return true
	}

	now := h.now()
	if h.downSince.IsZero() {
		// Never seen up or down, e.g. the only failure so far was not a
		// transport error. Probe once per retry window.
		if !h.probedAt.IsZero() && (h.retryAfter <= 0 || now.Sub(h.probedAt) < h.retryAfter) {
			return false
		}
		h.probedAt = now
		return true
	}
	if h.retryAfter <= 0 {
		return false
	}
	if now.Sub(h.downSince) >= h.retryAfter {
		// Re-arm so concurrent callers keep using the fallback while one probes.
		h.downSince = now
		return true
	}
	return false
}

// Up reports the raw state without granting a probe.
func (h *Health) Up() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.up
}

func (h *Health) MarkUp() {
	h.set(true)
}

func (h *Health) MarkDown() {
	h.set(false)
}

func (h *Health) set(up bool) {
	h.mu.Lock()
	changed := h.up != up || (!up && h.downSince.IsZero())
	h.up = up
	h.probedAt = time.Time{}
	if up {
		h.downSince = time.Time{}
	} else if changed {
		h.downSince = h.now()
	}
	fn := h.onChange
	h.mu.Unlock()

	if changed && fn != nil {
		fn(up)
	}
}

// Observe feeds an operation outcome into the tracker and reports whether err
// means the store could not be reached.
func (h *Health) Observe(err error, transient func(error) bool) bool {
	if err == nil {
		h.MarkUp()
		return false
	}
	if transient(err) {
		h.MarkDown()
		return true
	}
	return false
}

// IsNetErr matches failures any driver surfaces when the server is unreachable.
func IsNetErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
