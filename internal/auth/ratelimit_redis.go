package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// failureScript increments the attempt counter. The first failure starts the
// window; reaching the limit stretches the key's lifetime to the lockout.
var failureScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
if n >= tonumber(ARGV[3]) then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return n
`)

// RedisRateLimiter is a LoginLimiter shared by every instance pointing at the
// same Redis. Redis errors fail open so an outage never blocks logins.
type RedisRateLimiter struct {
	client *redis.Client
	prefix string
	cfg    RateLimitConfig
}

var _ LoginLimiter = (*RedisRateLimiter)(nil)

func NewRedisRateLimiter(client *redis.Client, cfg RateLimitConfig) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		prefix: "bookshelf:login:",
		cfg:    cfg.withDefaults(),
	}
}

func (rl *RedisRateLimiter) key(ip, username string) string {
	return rl.prefix + limiterKey(ip, username)
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, ip, username string) (bool, time.Duration) {
	key := rl.key(ip, username)

	count, err := rl.client.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return true, 0
	}
	if err != nil {
		slog.Warn("login limiter unavailable", "error", err)
		return true, 0
	}
	if count < rl.cfg.MaxAttempts {
		return true, 0
	}

	ttl, err := rl.client.PTTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		return false, rl.cfg.LockoutDuration
	}
	return false, ttl
}

func (rl *RedisRateLimiter) RecordFailure(ctx context.Context, ip, username string) (bool, time.Duration) {
	n, err := failureScript.Run(ctx, rl.client,
		[]string{rl.key(ip, username)},
		rl.cfg.WindowDuration.Milliseconds(),
		rl.cfg.LockoutDuration.Milliseconds(),
		rl.cfg.MaxAttempts,
	).Int64()
	if err != nil {
		slog.Warn("failed to record login failure", "error", err)
		return false, 0
	}
	if n >= int64(rl.cfg.MaxAttempts) {
		return true, rl.cfg.LockoutDuration
	}
	return false, 0
}

func (rl *RedisRateLimiter) RecordSuccess(ctx context.Context, ip, username string) {
	if err := rl.client.Del(ctx, rl.key(ip, username)).Err(); err != nil {
		slog.Warn("failed to reset login limiter", "error", err)
	}
}
