package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Evans-Junior/chat-bot/internal/identity"
)

// RateLimitMessage is the body returned once a client exhausts its window.
const RateLimitMessage = "Too many requests from this IP, please try again later."

type rateWindow struct {
	count   int
	resetAt time.Time
}

// RateLimiter implements a per-IP fixed-window rate limiter.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewRateLimiter creates a limiter that admits limit requests per key in each
// window. Call StartEviction to bound memory.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*rateWindow),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Allow records a request for key and reports whether it is admitted, how
// many requests remain and when the current window resets.
func (r *RateLimiter) Allow(key string) (bool, int, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	w, ok := r.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(r.window)}
		r.windows[key] = w
	}

	if w.count >= r.limit {
		return false, 0, w.resetAt
	}
	w.count++
	return true, r.limit - w.count, w.resetAt
}

// StartEviction runs a background goroutine that periodically removes expired
// windows, preventing unbounded memory growth. It stops when ctx is done.
func (r *RateLimiter) StartEviction(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.window)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := r.evictExpired(); n > 0 {
					slog.Debug("Rate limiter evicted expired windows", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (r *RateLimiter) evictExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	evicted := 0
	for key, w := range r.windows {
		if !now.Before(w.resetAt) {
			delete(r.windows, key)
			evicted++
		}
	}
	return evicted
}

// Middleware throttles requests by client IP and sets the RateLimit-*
// headers on every response.
func (r *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		allowed, remaining, resetAt := r.Allow(identity.IPFromRequest(req))

		resetIn := int(resetAt.Sub(r.now()).Round(time.Second).Seconds())
		if resetIn < 0 {
			resetIn = 0
		}
		h := w.Header()
		h.Set("RateLimit-Limit", strconv.Itoa(r.limit))
		h.Set("RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("RateLimit-Reset", strconv.Itoa(resetIn))

		if !allowed {
			h.Set("Retry-After", strconv.Itoa(resetIn))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": RateLimitMessage})
			return
		}
		next.ServeHTTP(w, req)
	})
}
