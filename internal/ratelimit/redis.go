package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the counter and starts its expiry on the first
// hit, returning {count, ttl in ms}.
var fixedWindowScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl < 0 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
		ttl = tonumber(ARGV[1])
	end
	return {count, ttl}
`)

// RedisLimiter shares fixed-window counters between server instances.
type RedisLimiter struct {
	client    redis.Cmdable
	keyPrefix string
	rate      int
	period    time.Duration
}

type RedisConfig struct {
	Client redis.Cmdable
	// KeyPrefix defaults to "notes:ratelimit:".
	KeyPrefix string
	Rate      int
	Window    time.Duration
}

func NewRedisLimiter(cfg *RedisConfig) *RedisLimiter {
	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "notes:ratelimit:"
	}

	return &RedisLimiter{
		client:    cfg.Client,
		keyPrefix: keyPrefix,
		rate:      cfg.Rate,
		period:    cfg.Window,
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	vals, err := fixedWindowScript.Run(ctx, r.client, []string{r.keyPrefix + key}, r.period.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("redis rate limit script failed: %w", err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("redis rate limit script returned %d values", len(vals))
	}

	count := int(vals[0])
	return Result{
		Allowed: count <= r.rate,
		Count:   count,
		Limit:   r.rate,
		ResetAt: time.Now().Add(time.Duration(vals[1]) * time.Millisecond),
	}, nil
}

func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.keyPrefix+key).Err()
}

// Close is a no-op; the caller owns the client.
func (r *RedisLimiter) Close() error {
	return nil
}
