package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/glindberg2000/ella-ai-sub000/pkg/database"
)

// RateLimiter throttles agent calls per caller using a sliding window
// log in Redis. The HTTP surface is agent-facing, so the window guards
// against runaway tool loops rather than human traffic.
type RateLimiter struct {
	redis *database.Redis
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redis *database.Redis) *RateLimiter {
	return &RateLimiter{redis: redis}
}

// Allow reports whether one more request fits in the window for key
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	now := time.Now()
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	err := r.redis.Client.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(now.Add(-window).Unix(), 10)).Err()
	if err != nil {
		return false, 0, fmt.Errorf("failed to trim rate window: %w", err)
	}

	count, err := r.redis.Client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to count rate window: %w", err)
	}

	if count >= int64(limit) {
		retryAfter := window
		oldest, err := r.redis.Client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
		if err == nil && len(oldest) > 0 {
			retryAfter = window - time.Since(time.Unix(int64(oldest[0].Score), 0))
			if retryAfter < 0 {
				retryAfter = 0
			}
		}
		return false, retryAfter.Round(time.Second), nil
	}

	err = r.redis.Client.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.Unix()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	}).Err()
	if err != nil {
		return false, 0, fmt.Errorf("failed to record request: %w", err)
	}

	// Keep the key from lingering forever once traffic stops
	_ = r.redis.Client.Expire(ctx, redisKey, window+time.Minute).Err()

	return true, 0, nil
}

// Remaining returns how many requests are left in the current window
func (r *RateLimiter) Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	err := r.redis.Client.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(time.Now().Add(-window).Unix(), 10)).Err()
	if err != nil {
		return 0, fmt.Errorf("failed to trim rate window: %w", err)
	}

	count, err := r.redis.Client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count rate window: %w", err)
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
