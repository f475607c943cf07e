package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Throttle delays requests once a client passes After requests in a window.
// Each further request waits Step longer than the previous one, up to
// MaxDelay. After == 0 disables it.
type Throttle struct {
	After    int
	Step     time.Duration
	MaxDelay time.Duration
}

// Delay returns how long the count-th request of a window should wait.
func (t Throttle) Delay(count int) time.Duration {
	if t.After <= 0 || count <= t.After {
		return 0
	}
	d := time.Duration(count-t.After) * t.Step
	if t.MaxDelay > 0 && d > t.MaxDelay {
		d = t.MaxDelay
	}
	return d
}

type Config struct {
	KeyFunc   func(r *http.Request) string
	SkipFunc  func(r *http.Request) bool
	OnLimited func(w http.ResponseWriter, r *http.Request)
	Throttle  Throttle
	Logger    zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// Middleware counts every request against limiter. Requests over the limit get
// OnLimited (429 by default) with Retry-After set; requests under it but past
// the throttle threshold are delayed first. Limiter failures let the request
// through.
func Middleware(limiter Limiter, cfg Config) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = GetClientIP
	}

	onLimited := cfg.OnLimited
	if onLimited == nil {
		onLimited = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		}
	}

	sleep := cfg.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.SkipFunc != nil && cfg.SkipFunc(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFunc(r)
			res, err := limiter.Allow(r.Context(), key)
			if err != nil {
				cfg.Logger.Error().Err(err).Str("key", key).Msg("rate limit check failed")
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining()))
			h.Set("X-RateLimit-Reset", res.ResetAt.UTC().Format(time.RFC3339))

			if !res.Allowed {
				retryAfter := int(time.Until(res.ResetAt).Seconds())
				if retryAfter < 0 {
					retryAfter = 0
				}
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				onLimited(w, r)
				return
			}

			if d := cfg.Throttle.Delay(res.Count); d > 0 {
				if err := sleep(r.Context(), d); err != nil {
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
