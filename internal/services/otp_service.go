package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
	"github.com/MikeMehr/patient-intake-2-sub002/internal/infrastructure/auth"
)

// OTPServiceImpl implements domain.OTPService using Redis persistence.
// Only hashes of codes are stored; the Redis TTLs carry the challenge
// expiry and cooldown deadlines.
type OTPServiceImpl struct {
	redisClient *redis.Client
	config      OTPConfig
}

type OTPConfig struct {
	Length      int
	TTL         time.Duration
	MaxAttempts int
	Cooldown    time.Duration
}

var otpShape = regexp.MustCompile(`^[0-9]{6}$`)

// ValidOTPShape reports whether a submitted code is exactly six ASCII
// digits. Malformed codes are rejected before touching the store.
func ValidOTPShape(code string) bool {
	return otpShape.MatchString(code)
}

// NewOTPService creates a new Redis-based OTP challenge manager
func NewOTPService(redisClient *redis.Client, config OTPConfig) domain.OTPService {
	return &OTPServiceImpl{
		redisClient: redisClient,
		config:      config,
	}
}

func otpKey(invitationID string) string      { return "otp:inv:" + invitationID }
func attemptsKey(invitationID string) string { return "otp:att:inv:" + invitationID }
func cooldownKey(invitationID string) string { return "otp:cd:inv:" + invitationID }
func verifiedKey(invitationID string) string { return "otp:ok:inv:" + invitationID }

// Upsert implements domain.OTPService. Re-requesting overwrites the
// active challenge: attempts reset to zero and any cooldown is cleared.
func (s *OTPServiceImpl) Upsert(ctx context.Context, invitationID string) (string, error) {
	code, err := s.generateSecureCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP code: %w", err)
	}

	if err := s.redisClient.Set(ctx, otpKey(invitationID), auth.HashSecret(code), s.config.TTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store OTP challenge: %w", err)
	}
	if err := s.redisClient.Set(ctx, attemptsKey(invitationID), 0, s.config.TTL).Err(); err != nil {
		return "", fmt.Errorf("failed to reset attempts counter: %w", err)
	}
	if err := s.redisClient.Del(ctx, cooldownKey(invitationID), verifiedKey(invitationID)).Err(); err != nil {
		return "", fmt.Errorf("failed to clear cooldown: %w", err)
	}

	return code, nil
}

// Verify implements domain.OTPService. All comparisons are over hashes
// and constant time; attempt increments are a single atomic INCR so
// concurrent guesses cannot both pass the cap.
func (s *OTPServiceImpl) Verify(ctx context.Context, invitationID, code string) (*domain.OTPVerifyResult, error) {
	// An active cooldown rejects without consuming an attempt.
	cooldownTTL, err := s.redisClient.TTL(ctx, cooldownKey(invitationID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check cooldown: %w", err)
	}
	if cooldownTTL > 0 {
		return &domain.OTPVerifyResult{
			Reason:            domain.OTPReasonCooldown,
			RetryAfterSeconds: int64(cooldownTTL.Seconds()) + 1,
		}, nil
	}

	storedHash, err := s.redisClient.Get(ctx, otpKey(invitationID)).Result()
	if err == redis.Nil {
		// No challenge, an expired challenge, and an already-verified
		// challenge all look the same to the caller.
		return &domain.OTPVerifyResult{Reason: domain.OTPReasonExpired}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load OTP challenge: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(auth.HashSecret(code)), []byte(storedHash)) != 1 {
		attempts, err := s.redisClient.Incr(ctx, attemptsKey(invitationID)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to increment attempts: %w", err)
		}
		if attempts >= int64(s.config.MaxAttempts) {
			if err := s.redisClient.Set(ctx, cooldownKey(invitationID), 1, s.config.Cooldown).Err(); err != nil {
				return nil, fmt.Errorf("failed to set cooldown: %w", err)
			}
			if err := s.redisClient.Del(ctx, otpKey(invitationID), attemptsKey(invitationID)).Err(); err != nil {
				return nil, fmt.Errorf("failed to consume exhausted challenge: %w", err)
			}
		}
		return &domain.OTPVerifyResult{Reason: domain.OTPReasonInvalid}, nil
	}

	// One-shot: consuming the challenge makes a second verification of
	// the same code fail as expired.
	if err := s.redisClient.Del(ctx, otpKey(invitationID), attemptsKey(invitationID)).Err(); err != nil {
		return nil, fmt.Errorf("failed to consume challenge: %w", err)
	}
	if err := s.redisClient.Set(ctx, verifiedKey(invitationID), time.Now().UTC().Format(time.RFC3339), s.config.TTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to record verification: %w", err)
	}

	return &domain.OTPVerifyResult{OK: true}, nil
}

// generateSecureCode draws a zero-padded numeric code from crypto/rand;
// each digit is uniform so guessing resistance is bounded only by the
// attempt budget.
func (s *OTPServiceImpl) generateSecureCode() (string, error) {
	digits := make([]byte, s.config.Length)
	for i := 0; i < s.config.Length; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + num.Int64())
	}
	return string(digits), nil
}
