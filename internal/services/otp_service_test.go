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

func newTestOTPService(t *testing.T) (domain.OTPService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	svc := NewOTPService(client, OTPConfig{
		Length:      6,
		TTL:         10 * time.Minute,
		MaxAttempts: 3,
		Cooldown:    5 * time.Minute,
	})
	return svc, mr
}

func TestOTPService_UpsertIssuesSixDigitCode(t *testing.T) {
	svc, _ := newTestOTPService(t)
	ctx := context.Background()

	code, err := svc.Upsert(ctx, "inv-1")
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.True(t, ValidOTPShape(code))
}

func TestOTPService_VerifyCorrectCode(t *testing.T) {
	svc, _ := newTestOTPService(t)
	ctx := context.Background()

	code, err := svc.Upsert(ctx, "inv-1")
	require.NoError(t, err)

	result, err := svc.Verify(ctx, "inv-1", code)
	require.NoError(t, err)
	assert.True(t, result.OK)
}

func TestOTPService_VerifyIsOneShot(t *testing.T) {
	svc, _ := newTestOTPService(t)
	ctx := context.Background()

	code, err := svc.Upsert(ctx, "inv-1")
	require.NoError(t, err)

	first, err := svc.Verify(ctx, "inv-1", code)
	require.NoError(t, err)
	require.True(t, first.OK)

	// Replaying the same correct code finds no challenge left.
	second, err := svc.Verify(ctx, "inv-1", code)
	require.NoError(t, err)
	assert.False(t, second.OK)
	assert.Equal(t, domain.OTPReasonExpired, second.Reason)
}

func TestOTPService_VerifyWrongCode(t *testing.T) {
	svc, _ := newTestOTPService(t)
	ctx := context.Background()

	code, err := svc.Upsert(ctx, "inv-1")
	require.NoError(t, err)

	result, err := svc.Verify(ctx, "inv-1", "000000")
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, domain.OTPReasonInvalid, result.Reason)

	// A wrong guess does not burn the challenge.
	result, err = svc.Verify(ctx, "inv-1", code)
	require.NoError(t, err)
	assert.True(t, result.OK)
}

func TestOTPService_VerifyWithoutChallenge(t *testing.T) {
	svc, _ := newTestOTPService(t)
	ctx := context.Background()

	result, err := svc.Verify(ctx, "inv-unknown", "123456")
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, domain.OTPReasonExpired, result.Reason)
}

func TestOTPService_VerifyExpiredChallenge(t *testing.T) {
	svc, mr := newTestOTPService(t)
	ctx := context.Background()

	code, err := svc.Upsert(ctx, "inv-1")
	require.NoError(t, err)

	mr.FastForward(11 * time.Minute)

	result, err := svc.Verify(ctx, "inv-1", code)
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, domain.OTPReasonExpired, result.Reason)
}

func TestOTPService_CooldownAfterMaxAttempts(t *testing.T) {
	svc, _ := newTestOTPService(t)
	ctx := context.Background()

	code, err := svc.Upsert(ctx, "inv-1")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		result, err := svc.Verify(ctx, "inv-1", "000000")
		require.NoError(t, err)
		assert.Equal(t, domain.OTPReasonInvalid, result.Reason)
	}

	// Exhausted: even the correct code is rejected by the cooldown.
	result, err := svc.Verify(ctx, "inv-1", code)
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, domain.OTPReasonCooldown, result.Reason)
	assert.Greater(t, result.RetryAfterSeconds, int64(0))
}

func TestOTPService_CooldownExpires(t *testing.T) {
	svc, mr := newTestOTPService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, "inv-1")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.Verify(ctx, "inv-1", "000000")
		require.NoError(t, err)
	}

	mr.FastForward(6 * time.Minute)

	// Cooldown over, but the challenge was consumed when it tripped.
	result, err := svc.Verify(ctx, "inv-1", "000000")
	require.NoError(t, err)
	assert.Equal(t, domain.OTPReasonExpired, result.Reason)
}

func TestOTPService_UpsertResetsAttemptsAndCooldown(t *testing.T) {
	svc, _ := newTestOTPService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, "inv-1")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.Verify(ctx, "inv-1", "000000")
		require.NoError(t, err)
	}

	// A fresh challenge clears the cooldown and the attempt counter.
	code, err := svc.Upsert(ctx, "inv-1")
	require.NoError(t, err)

	result, err := svc.Verify(ctx, "inv-1", code)
	require.NoError(t, err)
	assert.True(t, result.OK)
}

func TestValidOTPShape(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		valid bool
	}{
		{"six digits", "123456", true},
		{"leading zeros", "000042", true},
		{"too short", "12345", false},
		{"too long", "1234567", false},
		{"letters", "12345a", false},
		{"empty", "", false},
		{"spaces", "123 56", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidOTPShape(tt.code))
		})
	}
}
