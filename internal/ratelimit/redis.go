package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// countCastScript increments the actor's window counter and, on the first
// cast of the window, stamps its expiry. Both happen in one round trip so
// concurrent casters on different engine instances agree on the count.
var countCastScript = redis.NewScript(`
local casts = redis.call("INCR", KEYS[1])
if casts == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return casts
`)

// RedisLimiter counts casts per actor in Redis, for deployments running more
// than one engine instance behind a load balancer.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter constructs a RedisLimiter.
func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: strings.TrimSpace(prefix),
	}
}

// Allow counts the cast against the actor's current window in Redis.
func (l *RedisLimiter) Allow(ctx context.Context, key string, policy Policy, now time.Time) (Result, error) {
	if policy.Limit <= 0 || key == "" || l == nil || l.client == nil {
		return Result{Allowed: true}, nil
	}
	bucket := policy.bucket(now)
	reset := policy.resetAt(bucket)

	// Keep the counter one second past the window edge so a cast landing on
	// the boundary still finds it.
	ttl := policy.windowSeconds() + 1
	reply, errEval := countCastScript.Run(ctx, l.client, []string{l.windowKey(key, bucket)}, ttl).Result()
	if errEval != nil {
		return Result{}, errEval
	}
	casts, ok := reply.(int64)
	if !ok {
		return Result{}, fmt.Errorf("ratelimit: unexpected script reply %T", reply)
	}

	if casts > int64(policy.Limit) {
		return Result{Allowed: false, Remaining: 0, Reset: reset}, nil
	}
	remaining := policy.Limit - int(casts)
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: true, Remaining: remaining, Reset: reset}, nil
}

// windowKey names the counter for one actor's window bucket.
func (l *RedisLimiter) windowKey(key string, bucket int64) string {
	if l.prefix == "" {
		return fmt.Sprintf("%s:%d", key, bucket)
	}
	return fmt.Sprintf("%s:%s:%d", l.prefix, key, bucket)
}
