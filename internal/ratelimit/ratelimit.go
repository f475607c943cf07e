// Package ratelimit implements per-client fixed-window request limits.
package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"
)

// Limiter counts requests per key inside fixed windows.
type Limiter interface {
	// Allow records one request for key and reports the window state after it.
	Allow(ctx context.Context, key string) (Result, error)
	Reset(ctx context.Context, key string) error
	Close() error
}

// Result describes a key's window after a request was counted.
type Result struct {
	Allowed bool
	// Count includes the request just recorded, rejected ones too.
	Count   int
	Limit   int
	ResetAt time.Time
}

func (r Result) Remaining() int {
	if r.Count >= r.Limit {
		return 0
	}
	return r.Limit - r.Count
}

// GetClientIP returns the host part of RemoteAddr. Forwarding headers are
// ignored; use ClientIPFunc when the server sits behind a proxy.
func GetClientIP(r *http.Request) string {
	return remoteHost(r.RemoteAddr)
}

// ClientIPFunc returns a key function that honours X-Forwarded-For and
// X-Real-IP only when the connecting peer is one of trusted. The client is
// the rightmost X-Forwarded-For hop that is not itself a trusted proxy.
func ClientIPFunc(trusted []netip.Prefix) func(r *http.Request) string {
	if len(trusted) == 0 {
		return GetClientIP
	}

	isTrusted := func(s string) bool {
		addr, err := netip.ParseAddr(strings.TrimSpace(s))
		if err != nil {
			return false
		}
		addr = addr.Unmap()
		for _, p := range trusted {
			if p.Contains(addr) {
				return true
			}
		}
		return false
	}

	return func(r *http.Request) string {
		peer := remoteHost(r.RemoteAddr)
		if !isTrusted(peer) {
			return peer
		}

		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			hops := strings.Split(xff, ",")
			for i := len(hops) - 1; i >= 0; i-- {
				hop := strings.TrimSpace(hops[i])
				if hop == "" {
					continue
				}
				if !isTrusted(hop) {
					return hop
				}
			}
		}

		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
		return peer
	}
}

// ParseTrustedProxies accepts bare addresses and CIDR prefixes.
func ParseTrustedProxies(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.Contains(v, "/") {
			p, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", v, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", v, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func remoteHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps counters in process. A key's window opens on its first
// request and lasts for the configured duration.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	rate    int
	period  time.Duration
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

func NewMemoryLimiter(rate int, period time.Duration) *MemoryLimiter {
	return newMemoryLimiter(rate, period, time.Now)
}

func newMemoryLimiter(rate int, period time.Duration, now func() time.Time) *MemoryLimiter {
	ml := &MemoryLimiter{
		windows: make(map[string]*window),
		rate:    rate,
		period:  period,
		now:     now,
		done:    make(chan struct{}),
	}

	go ml.cleanup()

	return ml
}

func (m *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, exists := m.windows[key]
	if !exists || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(m.period)}
		m.windows[key] = w
	}
	w.count++

	return Result{
		Allowed: w.count <= m.rate,
		Count:   w.count,
		Limit:   m.rate,
		ResetAt: w.resetAt,
	}, nil
}

func (m *MemoryLimiter) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, key)
	return nil
}

func (m *MemoryLimiter) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}

func (m *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(m.period)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.removeExpired()
		}
	}
}

func (m *MemoryLimiter) removeExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, key)
		}
	}
}

func (m *MemoryLimiter) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}
