package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
	"github.com/MikeMehr/patient-intake-2-sub002/internal/infrastructure/auth"
)

// SessionServiceImpl implements domain.SessionService. A session is a
// two-factor check: the signed cookie envelope and a matching persisted
// record must both agree before the invitation is trusted. A stolen
// signing secret alone cannot forge a long-lived session (the DB half is
// revocable), and a compromised DB row cannot be replayed without the
// signing secret.
type SessionServiceImpl struct {
	sessionRepo domain.SessionRepository
	invRepo     domain.InvitationRepository
	codec       domain.CookieCodec
	config      SessionConfig
}

type SessionConfig struct {
	TTL      time.Duration
	Issuer   string
	Audience string
}

// NewSessionService creates a new session service
func NewSessionService(
	sessionRepo domain.SessionRepository,
	invRepo domain.InvitationRepository,
	codec domain.CookieCodec,
	config SessionConfig,
) domain.SessionService {
	return &SessionServiceImpl{
		sessionRepo: sessionRepo,
		invRepo:     invRepo,
		codec:       codec,
		config:      config,
	}
}

// Create implements domain.SessionService
func (s *SessionServiceImpl) Create(ctx context.Context, invitationID string) (*domain.SessionCookie, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to mint session token: %w", err)
	}
	tokenHash := auth.HashSecret(hex.EncodeToString(buf))

	expiresAt := time.Now().Add(s.config.TTL)
	record := &domain.InvitationSession{
		ID:           uuid.NewString(),
		InvitationID: invitationID,
		TokenHash:    tokenHash,
		Issuer:       s.config.Issuer,
		Audience:     s.config.Audience,
		TokenType:    domain.SessionTokenType,
		TokenContext: domain.SessionTokenContext,
		ExpiresAt:    expiresAt,
	}
	if err := s.sessionRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist session record: %w", err)
	}

	value, err := s.codec.Encode(&domain.SessionCookiePayload{
		InvitationID:     invitationID,
		SessionTokenHash: tokenHash,
		Issuer:           s.config.Issuer,
		Audience:         s.config.Audience,
		TokenType:        domain.SessionTokenType,
		TokenContext:     domain.SessionTokenContext,
		ExpiresAtMs:      expiresAt.UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode session cookie: %w", err)
	}

	return &domain.SessionCookie{
		Value:        value,
		InvitationID: invitationID,
		TokenHash:    tokenHash,
		ExpiresAt:    expiresAt,
		MaxAge:       int(time.Until(expiresAt).Seconds()),
	}, nil
}

// Resolve implements domain.SessionService
func (s *SessionServiceImpl) Resolve(ctx context.Context, cookieValue string) (*domain.SessionResolveResult, error) {
	payload, reason := s.codec.Decode(cookieValue)
	if reason != domain.CookieReasonOK {
		return &domain.SessionResolveResult{Reason: reason}, nil
	}

	record, err := s.sessionRepo.Find(ctx, payload.InvitationID, payload.SessionTokenHash)
	if err != nil {
		switch err {
		case domain.ErrSessionNotFound:
			// A structurally valid cookie with no matching record fails
			// closed.
			return &domain.SessionResolveResult{Reason: domain.CookieReasonIntegrity}, nil
		case domain.ErrSessionExpired:
			return &domain.SessionResolveResult{Reason: domain.CookieReasonExpired}, nil
		}
		return nil, fmt.Errorf("failed to load session record: %w", err)
	}

	// The persisted claims must agree with the cookie exactly.
	if record.Issuer != payload.Issuer ||
		record.Audience != payload.Audience ||
		record.TokenType != payload.TokenType ||
		record.TokenContext != payload.TokenContext {
		return &domain.SessionResolveResult{Reason: domain.CookieReasonIntegrity}, nil
	}

	inv, err := s.invRepo.FindByID(ctx, payload.InvitationID)
	if err != nil {
		if err == domain.ErrInvitationNotFound {
			return &domain.SessionResolveResult{Reason: domain.CookieReasonIntegrity}, nil
		}
		return nil, fmt.Errorf("failed to load invitation: %w", err)
	}

	// The invitation's live state wins over a cryptographically valid
	// cookie: a used or revoked invitation ends the session.
	if inv.RevokedAt != nil || inv.UsedAt != nil || !inv.EffectiveExpiry().After(time.Now()) {
		return &domain.SessionResolveResult{Reason: domain.CookieReasonInvitation}, nil
	}

	return &domain.SessionResolveResult{OK: true, Invitation: inv, Session: record}, nil
}

// Destroy implements domain.SessionService
func (s *SessionServiceImpl) Destroy(ctx context.Context, invitationID, tokenHash string) error {
	return s.sessionRepo.Delete(ctx, invitationID, tokenHash)
}
