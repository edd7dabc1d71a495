package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, perMinute int, methods ...string) (*Limiter, *time.Time) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, Methods: methods})
	t.Cleanup(rl.Stop)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestAllow(t *testing.T) {
	rl, now := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "clients are counted separately")
	assert.Equal(t, int64(1), rl.Hits())

	*now = now.Add(window)
	assert.True(t, rl.Allow("10.0.0.1"), "a new window starts after a minute")
}

func TestSteadyTrafficGetsNewWindows(t *testing.T) {
	rl, now := newTestLimiter(t, 2)

	for i := 0; i < 6; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d", i+1)
		*now = now.Add(window / 2)
	}
	assert.Zero(t, rl.Hits())
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, now := newTestLimiter(t, 3)
	rl.Allow("a")
	rl.Allow("b")
	assert.Equal(t, 2, rl.ActiveClients())

	*now = now.Add(window)
	rl.Allow("b")
	rl.cleanupStaleEntries()
	assert.Equal(t, 1, rl.ActiveClients())
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

func TestMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, http.MethodPost)
	handler := rl.Middleware(func(*http.Request) string { return "ip" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

	serve := func(method string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(method, "/", nil))
		return rr
	}

	assert.Equal(t, http.StatusNoContent, serve(http.MethodPost).Code)
	rr := serve(http.MethodPost)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNoContent, serve(http.MethodGet).Code, "GET is not limited")
	}
}
