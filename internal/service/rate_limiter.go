package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/starterkit-auth/pkg/database"
	"github.com/redis/go-redis/v9"
)

// RateLimitResult describes the outcome of a rate limit check
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter handles rate limiting using a Redis sliding window log
type RateLimiter struct {
	redis *database.Redis
	now   func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redis *database.Redis) *RateLimiter {
	return &RateLimiter{redis: redis, now: time.Now}
}

// slidingWindowScript trims the window, then either records the request or reports
// the oldest entry. It runs atomically so concurrent requests cannot overshoot the limit.
//
// KEYS[1] window key
// ARGV: window start (ms), now (ms), limit, member, ttl (ms)
// Returns {allowed, count before this request, oldest score or ""}
var slidingWindowScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
local count = redis.call('ZCARD', KEYS[1])
if count >= tonumber(ARGV[3]) then
	local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
	return {0, count, oldest[2] or ''}
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return {1, count, ''}
`)

// Allow records a request for key and reports whether it fits in the window
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	now := r.now()
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	reply, err := slidingWindowScript.Run(ctx, r.redis.Client, []string{redisKey},
		now.Add(-window).UnixMilli(),
		now.UnixMilli(),
		limit,
		uuid.NewString(),
		(window + time.Minute).Milliseconds(),
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit window: %w", err)
	}
	if len(reply) != 3 {
		return nil, fmt.Errorf("unexpected rate limit reply: %v", reply)
	}

	allowed, _ := reply[0].(int64)
	count, _ := reply[1].(int64)

	if allowed == 1 {
		return &RateLimitResult{Allowed: true, Limit: limit, Remaining: limit - int(count) - 1}, nil
	}

	retryAfter := window
	if oldest, _ := reply[2].(string); oldest != "" {
		score, err := strconv.ParseFloat(oldest, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse oldest entry: %w", err)
		}
		retryAfter = time.UnixMilli(int64(score)).Add(window).Sub(now)
	}
	if retryAfter < time.Second {
		retryAfter = time.Second
	}

	return &RateLimitResult{Allowed: false, Limit: limit, Remaining: 0, RetryAfter: retryAfter}, nil
}

// GetRemainingRequests returns the number of requests still allowed in the current window
func (r *RateLimiter) GetRemainingRequests(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	windowStart := r.now().Add(-window).UnixMilli()
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := r.redis.Client.ZCount(ctx, redisKey, strconv.FormatInt(windowStart+1, 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return remaining, nil
}
