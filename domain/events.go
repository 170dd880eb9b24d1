package domain

import "time"

// AuditEventType defines the type of a security-relevant invitation event
type AuditEventType string

const (
	InviteOpenedEvent        AuditEventType = "invite_opened"
	InviteOpenFailedEvent    AuditEventType = "invite_open_failed"
	OTPRequestedEvent        AuditEventType = "otp_requested"
	OTPFailedEvent           AuditEventType = "otp_failed"
	OTPVerifiedEvent         AuditEventType = "otp_verified"
	SessionSavedEvent        AuditEventType = "session_saved"
	SessionRejectedEvent     AuditEventType = "session_rejected"
	IdentityOverrideEvent    AuditEventType = "identity_override_attempt"
	InviteRevokedEvent       AuditEventType = "invite_revoked"
	SummariesPurgedEvent     AuditEventType = "summaries_purged"
)

// AuditEvent is an append-only record of a security-relevant branch in
// the invitation flow. InvitationID is empty for failures that occur
// before an invitation could be resolved.
type AuditEvent struct {
	ID           uint
	InvitationID string
	EventType    AuditEventType
	IPAddress    string
	UserAgent    string
	Metadata     map[string]interface{}
	CreatedAt    time.Time
}

// AuditOutcome makes the best-effort nature of audit logging explicit:
// a dropped event is visible to tests and observability without ever
// failing the request that triggered it.
type AuditOutcome int

const (
	AuditRecorded AuditOutcome = iota
	AuditDropped
)

func (o AuditOutcome) String() string {
	if o == AuditRecorded {
		return "recorded"
	}
	return "dropped"
}

// ClientContext carries request attribution for audit events.
type ClientContext struct {
	IPAddress string
	UserAgent string
}

// NewAuditEvent creates an audit event with common fields populated.
func NewAuditEvent(eventType AuditEventType, invitationID string) *AuditEvent {
	return &AuditEvent{
		InvitationID: invitationID,
		EventType:    eventType,
		Metadata:     make(map[string]interface{}),
		CreatedAt:    time.Now().UTC(),
	}
}

// WithClientContext sets request attribution on the event.
func (e *AuditEvent) WithClientContext(ctx *ClientContext) *AuditEvent {
	if ctx != nil {
		e.IPAddress = ctx.IPAddress
		e.UserAgent = ctx.UserAgent
	}
	return e
}

// WithMetadata adds one metadata entry to the event.
func (e *AuditEvent) WithMetadata(key string, value interface{}) *AuditEvent {
	e.Metadata[key] = value
	return e
}
