package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryLimiter keeps per-key event timestamps and admits a request when
// fewer than limit events fall inside the trailing window.
type InMemoryLimiter struct {
	mu     sync.Mutex
	events map[string][]time.Time

	limit  int
	window time.Duration
	now    func() time.Time
}

type MemoryOption func(*InMemoryLimiter)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(l *InMemoryLimiter) { l.now = now }
}

func NewInMemoryLimiter(limit int, window time.Duration, opts ...MemoryOption) *InMemoryLimiter {
	l := &InMemoryLimiter{
		events: make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *InMemoryLimiter) Allow(_ context.Context, key string) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.events[key][:0]
	for _, ts := range l.events[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.limit {
		l.events[key] = kept
		resetAt := kept[0].Add(l.window)
		return &Result{
			Allowed:    false,
			Limit:      l.limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retryAfterSeconds(now, resetAt),
		}, nil
	}

	kept = append(kept, now)
	l.events[key] = kept
	return &Result{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - len(kept),
		ResetAt:   kept[0].Add(l.window),
	}, nil
}

// retryAfterSeconds rounds up so callers never retry before the window opens.
func retryAfterSeconds(now, resetAt time.Time) int {
	secs := int((resetAt.Sub(now) + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
