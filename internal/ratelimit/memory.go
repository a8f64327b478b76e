package ratelimit

import (
	"context"
	"sync"
	"time"
)

// castWindow counts the casts one actor resolved in one window bucket.
type castWindow struct {
	bucket int64
	casts  int
}

// MemoryLimiter counts casts per actor in process memory. It is the default
// backend; single-instance deployments need nothing more.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*castWindow
}

// NewMemoryLimiter constructs a MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]*castWindow)}
}

// Allow counts the cast against the actor's current window.
func (l *MemoryLimiter) Allow(_ context.Context, key string, policy Policy, now time.Time) (Result, error) {
	if policy.Limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}
	bucket := policy.bucket(now)
	reset := policy.resetAt(bucket)

	l.mu.Lock()
	defer l.mu.Unlock()
	window := l.windows[key]
	if window == nil || window.bucket != bucket {
		window = &castWindow{bucket: bucket}
		l.windows[key] = window
	}
	if window.casts >= policy.Limit {
		return Result{Allowed: false, Remaining: 0, Reset: reset}, nil
	}
	window.casts++
	return Result{Allowed: true, Remaining: policy.Limit - window.casts, Reset: reset}, nil
}
