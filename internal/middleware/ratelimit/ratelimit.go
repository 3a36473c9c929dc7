package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const (
	window   = time.Minute
	staleAge = 10 * time.Minute
)

// DefaultRequestsPerMinute applies when no positive limit is configured.
const DefaultRequestsPerMinute = 60

// Limiter allows a fixed number of requests per client per minute. Stale
// clients are dropped by CleanExpired, which the cache manager calls.
type Limiter struct {
	mu                sync.Mutex
	clients           map[string]*clientInfo
	requestsPerMinute int
	now               func() time.Time

	hits atomic.Int64
}

type clientInfo struct {
	windowStart time.Time
	lastRequest time.Time
	requests    int
}

type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

func NewLimiter(requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRequestsPerMinute
	}
	return &Limiter{
		clients:           make(map[string]*clientInfo),
		requestsPerMinute: requestsPerMinute,
		now:               time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (rl *Limiter) WithClock(now func() time.Time) *Limiter {
	rl.now = now
	return rl
}

// Allow reports whether a request from clientIP fits in its current window.
func (rl *Limiter) Allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	client, exists := rl.clients[clientIP]
	if !exists || now.Sub(client.windowStart) >= window {
		rl.clients[clientIP] = &clientInfo{windowStart: now, lastRequest: now, requests: 1}
		return true
	}

	client.lastRequest = now
	client.requests++
	if client.requests > rl.requestsPerMinute {
		rl.hits.Add(1)
		return false
	}
	return true
}

// retryAfter returns the seconds until clientIP's window resets.
func (rl *Limiter) retryAfter(clientIP string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	client, ok := rl.clients[clientIP]
	if !ok {
		return 0
	}
	secs := int((window - rl.now().Sub(client.windowStart)).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}

// CleanExpired removes clients idle for longer than ten minutes.
func (rl *Limiter) CleanExpired() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-staleAge)
	removed := 0
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
			removed++
		}
	}
	return removed
}

func (rl *Limiter) GetMetrics() Metrics {
	rl.mu.Lock()
	clientCount := int64(len(rl.clients))
	rl.mu.Unlock()

	return Metrics{
		TotalHits:   rl.hits.Load(),
		ClientCount: clientCount,
	}
}

// Middleware rejects over-limit requests with onLimit, or a plain 429 when
// onLimit is nil.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := extractIP(r)
			if !rl.Allow(clientIP) {
				w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter(clientIP)))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
