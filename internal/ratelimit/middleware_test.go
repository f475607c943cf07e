package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func doRequest(h http.Handler, path string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	r.RemoteAddr = "192.0.2.1:1234"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestMiddleware_RejectsOverLimit(t *testing.T) {
	limiter := NewMemoryLimiter(2, time.Minute)
	defer limiter.Close()
	h := Middleware(limiter, Config{})(okHandler)

	for i := 0; i < 2; i++ {
		w := doRequest(h, "/")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := doRequest(h, "/")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
}

func TestMiddleware_CustomHandlerAndSkip(t *testing.T) {
	limiter := NewMemoryLimiter(1, time.Minute)
	defer limiter.Close()

	called := false
	h := Middleware(limiter, Config{
		SkipFunc: func(r *http.Request) bool { return r.URL.Path == "/health" },
		OnLimited: func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusTooManyRequests)
		},
	})(okHandler)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(h, "/health").Code)
	}
	assert.Equal(t, http.StatusOK, doRequest(h, "/").Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(h, "/").Code)
	assert.True(t, called)
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (Result, error) {
	return Result{}, errors.New("redis unavailable")
}
func (brokenLimiter) Reset(context.Context, string) error { return nil }
func (brokenLimiter) Close() error                        { return nil }

func TestMiddleware_FailsOpen(t *testing.T) {
	h := Middleware(brokenLimiter{}, Config{})(okHandler)
	assert.Equal(t, http.StatusOK, doRequest(h, "/").Code)
}

func TestThrottle_Delay(t *testing.T) {
	th := Throttle{After: 3, Step: 100 * time.Millisecond, MaxDelay: 250 * time.Millisecond}

	assert.Zero(t, th.Delay(1))
	assert.Zero(t, th.Delay(3))
	assert.Equal(t, 100*time.Millisecond, th.Delay(4))
	assert.Equal(t, 200*time.Millisecond, th.Delay(5))
	assert.Equal(t, 250*time.Millisecond, th.Delay(9))

	assert.Zero(t, Throttle{}.Delay(100))
}

func TestMiddleware_ThrottlesBeforeLimiting(t *testing.T) {
	limiter := NewMemoryLimiter(4, time.Minute)
	defer limiter.Close()

	var slept []time.Duration
	cfg := Config{Throttle: Throttle{After: 2, Step: time.Second, MaxDelay: 10 * time.Second}}
	cfg.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	h := Middleware(limiter, cfg)(okHandler)

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		codes = append(codes, doRequest(h, "/").Code)
	}

	assert.Equal(t, []int{200, 200, 200, 200, 429}, codes)
	// rejected requests are not delayed
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, slept)
}

func TestMiddleware_ThrottleAbortsOnCancel(t *testing.T) {
	limiter := NewMemoryLimiter(10, time.Minute)
	defer limiter.Close()

	reached := false
	h := Middleware(limiter, Config{Throttle: Throttle{After: 0}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))
	doRequest(h, "/")
	assert.True(t, reached)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
