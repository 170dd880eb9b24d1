package mocks

import (
	"context"
	"time"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

// MockRateLimiter implements domain.RateLimiter for testing. The default
// behavior allows everything.
type MockRateLimiter struct {
	ConsumeFunc func(ctx context.Context, bucketKey string, cap int, window time.Duration) (*domain.RateLimitResult, error)

	Keys []string
}

// NewMockRateLimiter creates a new MockRateLimiter
func NewMockRateLimiter() *MockRateLimiter {
	return &MockRateLimiter{}
}

// Consume implements domain.RateLimiter
func (m *MockRateLimiter) Consume(ctx context.Context, bucketKey string, cap int, window time.Duration) (*domain.RateLimitResult, error) {
	m.Keys = append(m.Keys, bucketKey)
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, bucketKey, cap, window)
	}
	return &domain.RateLimitResult{Allowed: true}, nil
}
