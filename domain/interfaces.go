package domain

import (
	"context"
	"time"
)

// InvitationRepository defines invitation data access operations.
// Lookups by token always go through the token hash; no raw-value
// queries exist.
type InvitationRepository interface {
	Create(ctx context.Context, inv *Invitation) error
	FindByID(ctx context.Context, id string) (*Invitation, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*Invitation, error)
	MarkOpened(ctx context.Context, id string, at time.Time) error
	// MarkUsed consumes the invitation. It only succeeds while the
	// invitation is still unused and unrevoked.
	MarkUsed(ctx context.Context, id string, at time.Time) error
	Revoke(ctx context.Context, id string, at time.Time) error
	ClearSummaries(ctx context.Context, id string, at time.Time) error
	// ClearExpiredSummaries purges every row past its summary TTL in a
	// single statement and returns the number of rows purged.
	ClearExpiredSummaries(ctx context.Context, now time.Time) (int64, error)
}

// SessionRepository defines persisted invitation-session operations.
type SessionRepository interface {
	Create(ctx context.Context, session *InvitationSession) error
	Find(ctx context.Context, invitationID, tokenHash string) (*InvitationSession, error)
	Delete(ctx context.Context, invitationID, tokenHash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AuditRepository defines append-only audit event storage.
type AuditRepository interface {
	Append(ctx context.Context, event *AuditEvent) error
	ListByInvitation(ctx context.Context, invitationID string, limit int) ([]AuditEvent, error)
}

// TokenIssuer mints invitation link tokens.
type TokenIssuer interface {
	CreateInvitationToken() (*IssuedToken, error)
}

// OTPService manages the per-invitation OTP challenge: issue, store
// hashed, verify with attempt counting and cooldown.
type OTPService interface {
	// Upsert issues a fresh challenge for the invitation, overwriting any
	// active one, and returns the raw code for out-of-band delivery.
	Upsert(ctx context.Context, invitationID string) (string, error)
	Verify(ctx context.Context, invitationID, code string) (*OTPVerifyResult, error)
}

// RateLimiter is a fixed-window counter keyed by an arbitrary bucket
// string. Window-boundary bursts up to twice the cap are an accepted
// tradeoff of the fixed window.
type RateLimiter interface {
	Consume(ctx context.Context, bucketKey string, cap int, window time.Duration) (*RateLimitResult, error)
}

// CookieCodec builds and parses the signed session cookie envelope.
type CookieCodec interface {
	Encode(payload *SessionCookiePayload) (string, error)
	// Decode verifies shape, signature, expiry, and each expected claim
	// independently; any single mismatch is a full rejection.
	Decode(value string) (*SessionCookiePayload, CookieRejectReason)
}

// SessionService mints and resolves verified patient sessions.
type SessionService interface {
	Create(ctx context.Context, invitationID string) (*SessionCookie, error)
	// Resolve cross-checks the cookie against the persisted session
	// record and the invitation's live state before trusting it.
	Resolve(ctx context.Context, cookieValue string) (*SessionResolveResult, error)
	Destroy(ctx context.Context, invitationID, tokenHash string) error
}

// InvitationService implements invitation issuance and lifecycle
// resolution.
type InvitationService interface {
	Issue(ctx context.Context, physicianID, patientEmail, patientName string, dob *time.Time) (*IssuedInvitation, error)
	// ResolveByToken hashes the presented raw token and loads the
	// matching invitation regardless of openability.
	ResolveByToken(ctx context.Context, rawToken string) (*Invitation, error)
	// Open resolves the invitation and returns its patient-facing
	// projection, recording first-open time.
	Open(ctx context.Context, rawToken string) (*InvitationProjection, error)
	MarkUsed(ctx context.Context, invitationID string) error
	Revoke(ctx context.Context, invitationID string) error
}

// AuditService records security-relevant events. Log never fails the
// caller; a write failure surfaces only as AuditDropped.
type AuditService interface {
	Log(ctx context.Context, event *AuditEvent) AuditOutcome
	ListByInvitation(ctx context.Context, invitationID string, limit int) ([]AuditEvent, error)
}

// PurgeService enforces the hard deletion deadline on cached document
// summaries and sweeps expired session records.
type PurgeService interface {
	ClearExpired(ctx context.Context) (int64, error)
	Clear(ctx context.Context, invitationID string) error
	Start() error
	Stop()
}

// NotificationService defines out-of-band delivery operations.
type NotificationService interface {
	SendEmail(to, subject, body string) error
	SendSMS(to, message string) error
}

// TokenService defines staff bearer token operations for the clinician
// API surface.
type TokenService interface {
	GenerateStaffToken(staffID, role string) (string, error)
	ValidateStaffToken(token string) (*StaffClaims, error)
}

// StaffClaims represents validated staff JWT claims.
type StaffClaims struct {
	StaffID   string `json:"staff_id"`
	Role      string `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
