package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

// RateLimiterImpl implements domain.RateLimiter with a fixed window per
// bucket key backed by Redis. The INCR is a single atomic read-modify-
// write, so concurrent requests against the same bucket cannot both slip
// past the cap on a stale count.
//
// This is a fixed window, not a token bucket: a burst of up to 2x the cap
// can span a window boundary. That is an intentional approximation kept
// for its implementation simplicity, not a bug.
type RateLimiterImpl struct {
	redisClient *redis.Client
}

// NewRateLimiter creates a new Redis-based fixed-window rate limiter
func NewRateLimiter(redisClient *redis.Client) domain.RateLimiter {
	return &RateLimiterImpl{redisClient: redisClient}
}

// Consume implements domain.RateLimiter
func (s *RateLimiterImpl) Consume(ctx context.Context, bucketKey string, cap int, window time.Duration) (*domain.RateLimitResult, error) {
	key := "rl:" + bucketKey

	count, err := s.redisClient.Incr(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to increment rate limit bucket: %w", err)
	}

	// First hit in a window starts it. ExpireNX also repairs a key that
	// lost its TTL, so a bucket can never get stuck full forever.
	if _, err := s.redisClient.ExpireNX(ctx, key, window).Result(); err != nil {
		return nil, fmt.Errorf("failed to set rate limit window: %w", err)
	}

	if count <= int64(cap) {
		return &domain.RateLimitResult{Allowed: true}, nil
	}

	ttl, err := s.redisClient.TTL(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read rate limit window: %w", err)
	}
	retryAfter := int64(ttl.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	return &domain.RateLimitResult{Allowed: false, RetryAfterSeconds: retryAfter}, nil
}

// BucketKey composes the conventional "<operation>:<discriminator>"
// bucket key, letting IP-scoped and invitation-scoped throttles compose.
func BucketKey(operation, discriminator string) string {
	return operation + ":" + discriminator
}
