package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doFrom(handler http.Handler, addr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = addr
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestRateLimit_UnderLimit(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 5, Window: time.Minute})(okHandler())

	for i := range 5 {
		w := doFrom(handler, "192.168.1.1:12345")

		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimit_OverLimit(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 2, Window: time.Minute})(okHandler())

	for range 2 {
		w := doFrom(handler, "10.0.0.1:9999")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doFrom(handler, "10.0.0.1:9999")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(429), body["code"])
}

func TestRateLimit_SeparateClients(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	assert.Equal(t, http.StatusOK, doFrom(handler, "10.0.0.1:1111").Code)
	assert.Equal(t, http.StatusTooManyRequests, doFrom(handler, "10.0.0.1:2222").Code,
		"same IP shares the budget")
	assert.Equal(t, http.StatusOK, doFrom(handler, "10.0.0.2:1111").Code,
		"different IP gets its own budget")
}

func TestRateLimit_KeyFunc(t *testing.T) {
	handler := RateLimit(RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		KeyFunc: func(r *http.Request) string {
			return r.Header.Get("X-Tenant")
		},
	})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Tenant", "a")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	req.Header.Set("X-Tenant", "b")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLimiter_WindowSlides(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	l := newLimiter(RateLimitConfig{Max: 2, Window: time.Minute})
	l.clock = func() time.Time { return now }

	_, _, ok := l.take("c")
	require.True(t, ok)
	_, _, ok = l.take("c")
	require.True(t, ok)
	_, _, ok = l.take("c")
	require.False(t, ok, "budget exhausted within the window")

	// A window and a half later the previous count still weighs in, but no
	// longer fills the whole budget.
	now = now.Add(90 * time.Second)
	_, _, ok = l.take("c")
	require.True(t, ok, "weighted count leaves room")
	_, _, ok = l.take("c")
	require.False(t, ok, "weighted count back at the limit")

	// Two full windows later the client starts fresh.
	now = now.Add(2 * time.Minute)
	_, _, ok = l.take("c")
	require.True(t, ok)
}

func TestLimiter_EvictStale(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	l := newLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	l.clock = func() time.Time { return now }

	l.take("a")
	l.take("b")
	require.Len(t, l.clients, 2)

	now = now.Add(3 * time.Minute)
	l.evictStale()
	assert.Empty(t, l.clients)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*http.Request)
		remote string
		want   string
	}{
		{
			name:   "remote addr",
			remote: "203.0.113.5:443",
			want:   "203.0.113.5",
		},
		{
			name: "x-forwarded-for single",
			setup: func(r *http.Request) {
				r.Header.Set("X-Forwarded-For", "198.51.100.1")
			},
			remote: "203.0.113.5:443",
			want:   "198.51.100.1",
		},
		{
			name: "x-forwarded-for chain",
			setup: func(r *http.Request) {
				r.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
			},
			remote: "203.0.113.5:443",
			want:   "198.51.100.1",
		},
		{
			name: "x-real-ip",
			setup: func(r *http.Request) {
				r.Header.Set("X-Real-IP", "198.51.100.7")
			},
			remote: "203.0.113.5:443",
			want:   "198.51.100.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.setup != nil {
				tt.setup(req)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
