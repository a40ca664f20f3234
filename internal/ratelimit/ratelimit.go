// Package ratelimit provides sliding-window rate limiting keyed by caller.
package ratelimit

import (
	"context"
	"time"
)

// Result describes one admission decision. Limit, Remaining and ResetAt feed
// the response headers regardless of the outcome; RetryAfter is the number of
// seconds to wait, zero when allowed.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int
}

// Limiter admits or rejects one request for a key.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// Unlimited is a Limiter that admits everything, for dev runs with limiting
// disabled.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (*Result, error) {
	return &Result{Allowed: true, Limit: 0, Remaining: 0, ResetAt: time.Now()}, nil
}
