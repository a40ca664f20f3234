package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter implements the sliding window over a Redis sorted set per key,
// scored by event time, so limits hold across replicas.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

type RedisOption func(*RedisLimiter)

// WithRedisClock overrides the time source, for tests.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(l *RedisLimiter) { l.now = now }
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, opts ...RedisOption) *RedisLimiter {
	l := &RedisLimiter{client: client, limit: limit, window: window, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	redisKey := "ratelimit:" + key
	now := l.now()
	cutoff := now.Add(-l.window)

	if err := l.client.ZRemRangeByScore(ctx, redisKey,
		"-inf", formatScore(cutoff)).Err(); err != nil {
		return nil, fmt.Errorf("prune rate limit window: %w", err)
	}

	count, err := l.client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return nil, fmt.Errorf("count rate limit window: %w", err)
	}

	if int(count) >= l.limit {
		oldest, err := l.client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
		if err != nil {
			return nil, fmt.Errorf("inspect rate limit window: %w", err)
		}
		resetAt := now.Add(l.window)
		if len(oldest) > 0 {
			resetAt = timeFromScore(oldest[0].Score).Add(l.window)
		}
		return &Result{
			Allowed:    false,
			Limit:      l.limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retryAfterSeconds(now, resetAt),
		}, nil
	}

	pipe := l.client.TxPipeline()
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("record rate limit event: %w", err)
	}

	return &Result{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - int(count) - 1,
		ResetAt:   now.Add(l.window),
	}, nil
}

func formatScore(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}

func timeFromScore(score float64) time.Time {
	return time.Unix(0, int64(score))
}
