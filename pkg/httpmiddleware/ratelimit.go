package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the per-client sliding window rate limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per window.
	Max int
	// Window is the sliding window duration.
	Window time.Duration
	// KeyFunc derives the limiter key from a request. Nil means key by
	// client IP (X-Forwarded-For, then X-Real-IP, then RemoteAddr).
	KeyFunc func(*http.Request) string
}

// window holds request counts for one client across the current and previous
// window, enough to interpolate a sliding count.
type window struct {
	start     time.Time
	count     int
	prevCount int
}

type limiter struct {
	cfg   RateLimitConfig
	clock func() time.Time

	mu      sync.Mutex
	clients map[string]*window
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	return &limiter{
		cfg:     cfg,
		clock:   time.Now,
		clients: make(map[string]*window),
	}
}

// take records one request for key and reports whether it fits the limit,
// along with the remaining budget and when the current window resets.
func (l *limiter) take(key string) (remaining int, resetAt time.Time, ok bool) {
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	win, exists := l.clients[key]
	if !exists {
		win = &window{start: now}
		l.clients[key] = win
	}

	if age := now.Sub(win.start); age >= l.cfg.Window {
		if age >= 2*l.cfg.Window {
			win.prevCount = 0
		} else {
			win.prevCount = win.count
		}
		win.count = 0
		win.start = now.Truncate(l.cfg.Window)
	}

	// Weight the previous window by how much of it still overlaps the
	// sliding window ending now.
	frac := 1 - now.Sub(win.start).Seconds()/l.cfg.Window.Seconds()
	if frac < 0 {
		frac = 0
	}
	effective := float64(win.prevCount)*frac + float64(win.count)
	resetAt = win.start.Add(l.cfg.Window)

	if effective >= float64(l.cfg.Max) {
		return 0, resetAt, false
	}

	win.count++
	remaining = int(float64(l.cfg.Max) - effective - 1)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, resetAt, true
}

// evictStale drops clients whose windows have fully aged out.
func (l *limiter) evictStale() {
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, win := range l.clients {
		if now.Sub(win.start) >= 2*l.cfg.Window {
			delete(l.clients, key)
		}
	}
}

// RateLimit returns a middleware enforcing a per-key sliding window limit.
// Rejected requests get 429 with a JSON body; every response carries
// X-RateLimit-Limit, X-RateLimit-Remaining, and X-RateLimit-Reset. State for
// idle clients is only reclaimed on demand; long-running servers should use
// RateLimitWithCleanup instead.
func RateLimit(cfg RateLimitConfig) Middleware {
	return newLimiter(cfg).middleware()
}

// RateLimitWithCleanup is RateLimit plus a background goroutine that evicts
// idle client state every two windows. The goroutine exits when ctx is done.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg)
	go func() {
		ticker := time.NewTicker(2 * cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.evictStale()
			}
		}
	}()
	return l.middleware()
}

func (l *limiter) middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, resetAt, ok := l.take(l.cfg.KeyFunc(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !ok {
				retryAfter := time.Until(resetAt)
				if retryAfter < 0 {
					retryAfter = 0
				}
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				h.Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"code":429,"message":"rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the client address for keying. Proxy headers win over
// the socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First entry is the originating client.
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
