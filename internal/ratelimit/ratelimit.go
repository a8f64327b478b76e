// Package ratelimit throttles ability casts per actor using fixed windows
// sized by the settings table.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Policy is the active cast-throttling rule: how many casts an actor may
// resolve per window. A zero limit disables throttling.
type Policy struct {
	Limit  int
	Window time.Duration
}

// windowSeconds returns the window length in whole seconds, at least one.
func (p Policy) windowSeconds() int64 {
	sec := int64(p.Window / time.Second)
	if sec < 1 {
		sec = 1
	}
	return sec
}

// bucket returns the index of the fixed window containing now.
func (p Policy) bucket(now time.Time) int64 {
	return now.Unix() / p.windowSeconds()
}

// resetAt returns the instant the given window closes.
func (p Policy) resetAt(bucket int64) time.Time {
	return time.Unix((bucket+1)*p.windowSeconds(), 0).UTC()
}

// Result describes the outcome of a cast throttle check.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter applies a cast policy to one actor key.
type Limiter interface {
	Allow(ctx context.Context, key string, policy Policy, now time.Time) (Result, error)
}

// CastKey builds the limiter key for an actor's cast requests.
func CastKey(actorID uint64) string {
	if actorID == 0 {
		return ""
	}
	return fmt.Sprintf("cast:%d", actorID)
}
