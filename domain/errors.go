package domain

import "errors"

// Invitation errors
var (
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationUsed     = errors.New("invitation already used")
	ErrInvitationRevoked  = errors.New("invitation revoked")
)

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session has expired")
)

// Staff token errors
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("malformed token")
)

// Configuration errors. The cookie codec and staff token service fail
// closed when any of these are missing.
var (
	ErrMissingSigningSecret = errors.New("session signing secret is not configured")
	ErrMissingIssuer        = errors.New("session issuer is not configured")
	ErrMissingAudience      = errors.New("session audience is not configured")
)

// Validation errors, rejected before touching any store.
var (
	ErrMalformedToken = errors.New("malformed invitation token")
	ErrMalformedOTP   = errors.New("malformed otp code")
)
