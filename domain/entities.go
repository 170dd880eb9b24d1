package domain

import (
	"strings"
	"time"
)

// Invitation represents a single-use patient intake invitation. The raw
// link token is never stored; only TokenHash is persisted.
type Invitation struct {
	ID           string
	PhysicianID  string
	PatientEmail string
	PatientName  string
	PatientDOB   *time.Time

	TokenHash      string
	TokenExpiresAt time.Time
	// ExpiresAt is the legacy overall expiry. TokenExpiresAt wins when set.
	ExpiresAt time.Time

	OpenedAt  *time.Time
	UsedAt    *time.Time
	RevokedAt *time.Time

	LabReportSummary         string
	PreviousLabReportSummary string
	FormSummary              string
	SummaryExpiresAt         *time.Time
	SummaryDeletedAt         *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InvalidReason classifies why a non-openable invitation cannot be opened.
type InvalidReason string

const (
	ReasonRevoked InvalidReason = "revoked"
	ReasonUsed    InvalidReason = "used"
	ReasonExpired InvalidReason = "expired"
)

// EffectiveExpiry returns the token expiry, falling back to the legacy
// overall expiry when no token expiry was recorded.
func (i *Invitation) EffectiveExpiry() time.Time {
	if !i.TokenExpiresAt.IsZero() {
		return i.TokenExpiresAt
	}
	return i.ExpiresAt
}

// IsOpenable reports whether the invitation can currently start the
// verification flow: not revoked, not used, not past its effective expiry.
func (i *Invitation) IsOpenable(now time.Time) bool {
	return i.RevokedAt == nil && i.UsedAt == nil && i.EffectiveExpiry().After(now)
}

// InvalidReasonAt classifies a non-openable invitation. Revocation and
// consumption are terminal administrative facts and take precedence over
// a merely-expired reading.
func (i *Invitation) InvalidReasonAt(now time.Time) InvalidReason {
	switch {
	case i.RevokedAt != nil:
		return ReasonRevoked
	case i.UsedAt != nil:
		return ReasonUsed
	default:
		return ReasonExpired
	}
}

// summariesVisible reports whether cached document summaries may still be
// disclosed. An elapsed TTL means absent even if the purge job has not
// physically run yet.
func (i *Invitation) summariesVisible(now time.Time) bool {
	if i.SummaryDeletedAt != nil {
		return false
	}
	if i.SummaryExpiresAt == nil {
		return false
	}
	return i.SummaryExpiresAt.After(now)
}

// LabSummary returns the cached lab report summary, or "" once its TTL
// has elapsed or it has been purged.
func (i *Invitation) LabSummary(now time.Time) string {
	if !i.summariesVisible(now) {
		return ""
	}
	return i.LabReportSummary
}

// PreviousLabSummary returns the cached previous lab report summary,
// subject to the same TTL gating as LabSummary.
func (i *Invitation) PreviousLabSummary(now time.Time) string {
	if !i.summariesVisible(now) {
		return ""
	}
	return i.PreviousLabReportSummary
}

// IntakeFormSummary returns the cached form summary, subject to the same
// TTL gating as LabSummary.
func (i *Invitation) IntakeFormSummary(now time.Time) string {
	if !i.summariesVisible(now) {
		return ""
	}
	return i.FormSummary
}

// MaskedEmail returns the patient email with the local part reduced to
// its first character, e.g. "j***@example.org".
func (i *Invitation) MaskedEmail() string {
	return MaskEmail(i.PatientEmail)
}

// MaskEmail masks the local part of an email address for patient-facing
// responses.
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// InvitationProjection is the minimal patient-facing view of an
// invitation. The patient display name is disclosed even when the
// invitation is no longer openable so the legitimate patient can tell a
// consumed link apart from a wrong one. The raw token is never echoed.
type InvitationProjection struct {
	InvitationID  string        `json:"invitation_id"`
	PhysicianID   string        `json:"physician_id"`
	PatientName   string        `json:"patient_name"`
	MaskedEmail   string        `json:"masked_email"`
	Openable      bool          `json:"openable"`
	InvalidReason InvalidReason `json:"invalid_reason,omitempty"`

	LabReportSummary         string `json:"lab_report_summary,omitempty"`
	PreviousLabReportSummary string `json:"previous_lab_report_summary,omitempty"`
	FormSummary              string `json:"form_summary,omitempty"`
}

// Project builds the patient-facing projection of the invitation.
func (i *Invitation) Project(now time.Time) *InvitationProjection {
	p := &InvitationProjection{
		InvitationID: i.ID,
		PhysicianID:  i.PhysicianID,
		PatientName:  i.PatientName,
		MaskedEmail:  i.MaskedEmail(),
		Openable:     i.IsOpenable(now),
	}
	if !p.Openable {
		p.InvalidReason = i.InvalidReasonAt(now)
		return p
	}
	p.LabReportSummary = i.LabSummary(now)
	p.PreviousLabReportSummary = i.PreviousLabSummary(now)
	p.FormSummary = i.IntakeFormSummary(now)
	return p
}

// IssuedToken is the result of minting an invitation link token. RawToken
// is returned exactly once and never persisted.
type IssuedToken struct {
	RawToken  string
	TokenHash string
	ExpiresAt time.Time
}

// IssuedInvitation pairs a freshly created invitation with its one-time
// raw link token.
type IssuedInvitation struct {
	Invitation *Invitation
	RawToken   string
}

// InvitationSession is the persisted server-side half of a patient
// session. The signed cookie is only trusted when a matching, unexpired
// record with identical claims exists.
type InvitationSession struct {
	ID           string
	InvitationID string
	TokenHash    string
	Issuer       string
	Audience     string
	TokenType    string
	TokenContext string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// SessionCookiePayload is the self-describing signed half of a patient
// session. It is never persisted; the wire form is
// base64url(JSON) + "." + base64url(HMAC-SHA256).
type SessionCookiePayload struct {
	InvitationID     string `json:"invitation_id"`
	SessionTokenHash string `json:"session_token_hash"`
	Issuer           string `json:"iss"`
	Audience         string `json:"aud"`
	TokenType        string `json:"type"`
	TokenContext     string `json:"context"`
	ExpiresAtMs      int64  `json:"exp"`
}

// ExpiresAt returns the payload expiry as a time.Time.
func (p *SessionCookiePayload) ExpiresAt() time.Time {
	return time.UnixMilli(p.ExpiresAtMs)
}

// Fixed claim literals distinguishing this cookie purpose from any other
// cookie the surrounding application sets.
const (
	SessionTokenType    = "invitation_session"
	SessionTokenContext = "invitation_verified_session"
)

// SessionCookie is a minted cookie value plus the attributes the HTTP
// layer needs to set it.
type SessionCookie struct {
	Value        string
	InvitationID string
	TokenHash    string
	ExpiresAt    time.Time
	MaxAge       int
}

// OTPVerifyReason discriminates OTP verification failures.
type OTPVerifyReason string

const (
	OTPReasonExpired  OTPVerifyReason = "expired"
	OTPReasonCooldown OTPVerifyReason = "cooldown"
	OTPReasonInvalid  OTPVerifyReason = "invalid"
)

// OTPVerifyResult is the discriminated outcome of an OTP verification.
// Callers branch on OK/Reason instead of catching errors so a
// security-relevant failure cannot be ignored by a generic handler.
type OTPVerifyResult struct {
	OK                bool
	Reason            OTPVerifyReason
	RetryAfterSeconds int64
}

// RateLimitResult is the outcome of consuming one slot from a
// fixed-window rate-limit bucket.
type RateLimitResult struct {
	Allowed           bool
	RetryAfterSeconds int64
}

// CookieRejectReason discriminates why a presented session cookie was
// rejected. Callers surface at most "invalid or expired" to end users.
type CookieRejectReason string

const (
	CookieReasonOK              CookieRejectReason = ""
	CookieReasonMalformed       CookieRejectReason = "malformed"
	CookieReasonBadSignature    CookieRejectReason = "signature"
	CookieReasonExpired         CookieRejectReason = "expired"
	CookieReasonIssuerMismatch  CookieRejectReason = "issuer_mismatch"
	CookieReasonAudMismatch     CookieRejectReason = "audience_mismatch"
	CookieReasonTypeMismatch    CookieRejectReason = "type_mismatch"
	CookieReasonContextMismatch CookieRejectReason = "context_mismatch"
	CookieReasonIntegrity       CookieRejectReason = "integrity"
	CookieReasonInvitation      CookieRejectReason = "invitation_closed"
)

// SessionResolveResult is the discriminated outcome of presenting a
// session cookie: either a live invitation plus its session record, or a
// rejection reason.
type SessionResolveResult struct {
	OK         bool
	Reason     CookieRejectReason
	Invitation *Invitation
	Session    *InvitationSession
}
