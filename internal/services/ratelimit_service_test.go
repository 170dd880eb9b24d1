package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

func newTestRateLimiter(t *testing.T) (domain.RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRateLimiter(client), mr
}

func TestRateLimiter_AllowsExactlyCapInWindow(t *testing.T) {
	limiter, _ := newTestRateLimiter(t)
	ctx := context.Background()
	key := BucketKey("otp-request", "10.0.0.1")

	for i := 0; i < 10; i++ {
		result, err := limiter.Consume(ctx, key, 10, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
	}

	result, err := limiter.Consume(ctx, key, 10, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Greater(t, result.RetryAfterSeconds, int64(0))
	assert.LessOrEqual(t, result.RetryAfterSeconds, int64(60))
}

func TestRateLimiter_WindowResets(t *testing.T) {
	limiter, mr := newTestRateLimiter(t)
	ctx := context.Background()
	key := BucketKey("otp-verify", "inv-1")

	for i := 0; i < 3; i++ {
		_, err := limiter.Consume(ctx, key, 2, time.Minute)
		require.NoError(t, err)
	}

	result, err := limiter.Consume(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	require.False(t, result.Allowed)

	mr.FastForward(61 * time.Second)

	result, err = limiter.Consume(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRateLimiter_BucketsAreIndependent(t *testing.T) {
	limiter, _ := newTestRateLimiter(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Consume(ctx, BucketKey("otp-request", "10.0.0.1"), 2, time.Minute)
		require.NoError(t, err)
		require.True(t, result.Allowed)
	}

	result, err := limiter.Consume(ctx, BucketKey("otp-request", "10.0.0.1"), 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)

	// A different discriminator has its own counter.
	result, err = limiter.Consume(ctx, BucketKey("otp-request", "10.0.0.2"), 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	// Same discriminator under a different operation is also unaffected.
	result, err = limiter.Consume(ctx, BucketKey("otp-verify", "10.0.0.1"), 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRateLimiter_WindowStartsAtFirstHit(t *testing.T) {
	limiter, mr := newTestRateLimiter(t)
	ctx := context.Background()
	key := BucketKey("invite-open", "10.0.0.1")

	_, err := limiter.Consume(ctx, key, 5, time.Minute)
	require.NoError(t, err)

	// Later hits must not push the window deadline out.
	mr.FastForward(30 * time.Second)
	_, err = limiter.Consume(ctx, key, 5, time.Minute)
	require.NoError(t, err)

	mr.FastForward(31 * time.Second)
	for i := 0; i < 5; i++ {
		result, err := limiter.Consume(ctx, key, 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}
}

func TestBucketKey(t *testing.T) {
	assert.Equal(t, "otp-request:10.0.0.1", BucketKey("otp-request", "10.0.0.1"))
	assert.Equal(t, "otp-verify:inv-42", BucketKey("otp-verify", "inv-42"))
}
