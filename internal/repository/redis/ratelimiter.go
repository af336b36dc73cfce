package redis

import (
	"context"
	"fmt"
	"time"
)

const (
	rateLimitKeyPrefix = "dispatch:ratelimit:"
	rateLimitWindow    = time.Minute
)

// RateLimiter bounds how many reminder dispatches may start per minute
// against one browser profile, using a Redis sliding window.
type RateLimiter struct {
	client      *Client
	limitPerMin int
}

// NewRateLimiter creates a new RateLimiter
func NewRateLimiter(client *Client, limitPerMin int) *RateLimiter {
	return &RateLimiter{
		client:      client,
		limitPerMin: limitPerMin,
	}
}

func rateLimitKey(profile string) string {
	return rateLimitKeyPrefix + profile
}

// Allow checks if a dispatch is allowed under the rate limit
func (r *RateLimiter) Allow(ctx context.Context, profile string) (bool, error) {
	key := rateLimitKey(profile)
	now := time.Now()
	windowStart := now.Add(-rateLimitWindow)

	pipe := r.client.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
	countCmd := pipe.ZCard(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	if countCmd.Val() >= int64(r.limitPerMin) {
		return false, nil
	}

	if err := r.client.client.ZAdd(ctx, key, struct {
		Score  float64
		Member any
	}{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	}).Err(); err != nil {
		return false, fmt.Errorf("failed to record dispatch: %w", err)
	}

	r.client.client.Expire(ctx, key, 2*rateLimitWindow)

	return true, nil
}
