package kit

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// IPRateLimiter is a sliding-window limiter keyed by client IP.
type IPRateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
	now    func() time.Time
}

func NewIPRateLimiter(limit int, window time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// WithClock swaps the time source; tests only.
func (l *IPRateLimiter) WithClock(now func() time.Time) *IPRateLimiter {
	l.now = now
	return l
}

func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := l.now()
		retryAfter, limited := l.recordAndCheck(ClientIP(r), now)
		if limited {
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			WriteError(w, r, http.StatusTooManyRequests, "too many requests, please try again later", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *IPRateLimiter) recordAndCheck(ip string, now time.Time) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := prune(l.hits[ip], now.Add(-l.window))

	if len(ts) >= l.limit {
		l.hits[ip] = ts
		return ts[0].Add(l.window).Sub(now), true
	}

	l.hits[ip] = append(ts, now)
	return 0, false
}

func prune(ts []time.Time, cutoff time.Time) []time.Time {
	n := 0
	for _, t := range ts {
		if t.After(cutoff) {
			ts[n] = t
			n++
		}
	}
	return ts[:n]
}

// ClientIP is the socket peer address. Forwarded headers are only honored
// when a trusted proxy rewrites RemoteAddr upstream of this call (chi's
// middleware.RealIP, mounted when server.trust_proxy is set).
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}

	return r.RemoteAddr
}
