package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
	"github.com/MikeMehr/patient-intake-2-sub002/internal/http/middleware"
	"github.com/MikeMehr/patient-intake-2-sub002/internal/services"
)

// InviteHandlers handles the unauthenticated patient-facing invitation
// flow: open, OTP request, OTP verify.
type InviteHandlers struct {
	invitationSvc   domain.InvitationService
	otpSvc          domain.OTPService
	sessionSvc      domain.SessionService
	auditSvc        domain.AuditService
	rateLimiter     domain.RateLimiter
	notificationSvc domain.NotificationService
	limits          InviteRateLimits
	production      bool
}

// InviteRateLimits are the invitation-scoped caps; IP-scoped caps are
// applied by router middleware before these.
type InviteRateLimits struct {
	OTPRequestCap    int
	OTPRequestWindow time.Duration
	OTPVerifyCap     int
	OTPVerifyWindow  time.Duration
}

// NewInviteHandlers creates new invitation flow handlers
func NewInviteHandlers(
	invitationSvc domain.InvitationService,
	otpSvc domain.OTPService,
	sessionSvc domain.SessionService,
	auditSvc domain.AuditService,
	rateLimiter domain.RateLimiter,
	notificationSvc domain.NotificationService,
	limits InviteRateLimits,
	production bool,
) *InviteHandlers {
	return &InviteHandlers{
		invitationSvc:   invitationSvc,
		otpSvc:          otpSvc,
		sessionSvc:      sessionSvc,
		auditSvc:        auditSvc,
		rateLimiter:     rateLimiter,
		notificationSvc: notificationSvc,
		limits:          limits,
		production:      production,
	}
}

// OTPVerifyRequest represents an OTP verification request
type OTPVerifyRequest struct {
	Code string `json:"code" binding:"required"`
}

func clientContext(c *gin.Context) *domain.ClientContext {
	return &domain.ClientContext{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// Open handles GET /invites/:token. The projection discloses the patient
// display name even for a non-openable invitation; the raw token is
// never echoed and the email stays masked.
func (h *InviteHandlers) Open(c *gin.Context) {
	projection, err := h.invitationSvc.Open(c.Request.Context(), c.Param("token"))
	if err != nil {
		switch err {
		case domain.ErrMalformedToken, domain.ErrInvitationNotFound:
			// No existence oracle: malformed and unknown look identical.
			h.auditSvc.Log(c.Request.Context(),
				domain.NewAuditEvent(domain.InviteOpenFailedEvent, "").
					WithClientContext(clientContext(c)))
			c.JSON(http.StatusNotFound, gin.H{"error": "invalid or expired"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open invitation"})
		}
		return
	}

	eventType := domain.InviteOpenedEvent
	if !projection.Openable {
		eventType = domain.InviteOpenFailedEvent
	}
	event := domain.NewAuditEvent(eventType, projection.InvitationID).
		WithClientContext(clientContext(c))
	if !projection.Openable {
		event.WithMetadata("reason", string(projection.InvalidReason))
	}
	h.auditSvc.Log(c.Request.Context(), event)

	c.JSON(http.StatusOK, gin.H{"data": projection})
}

// RequestOTP handles POST /invites/:token/otp/request
func (h *InviteHandlers) RequestOTP(c *gin.Context) {
	inv, ok := h.resolveOpenable(c)
	if !ok {
		return
	}
	if !h.consumeInvitationBucket(c, "invite-otp-request", inv.ID, h.limits.OTPRequestCap, h.limits.OTPRequestWindow) {
		return
	}

	code, err := h.otpSvc.Upsert(c.Request.Context(), inv.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send code"})
		return
	}

	body := "Your verification code is: " + code + ". It expires in a few minutes."
	if err := h.notificationSvc.SendEmail(inv.PatientEmail, "Your intake verification code", body); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send code"})
		return
	}

	h.auditSvc.Log(c.Request.Context(),
		domain.NewAuditEvent(domain.OTPRequestedEvent, inv.ID).
			WithClientContext(clientContext(c)))

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"message": "verification code sent",
		"email":   inv.MaskedEmail(),
	}})
}

// VerifyOTP handles POST /invites/:token/otp/verify. Success mints the
// signed session cookie and its persisted companion record.
func (h *InviteHandlers) VerifyOTP(c *gin.Context) {
	inv, ok := h.resolveOpenable(c)
	if !ok {
		return
	}
	if !h.consumeInvitationBucket(c, "invite-otp-verify", inv.ID, h.limits.OTPVerifyCap, h.limits.OTPVerifyWindow) {
		return
	}

	h.detectIdentityOverride(c, inv)

	var req OTPVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || !services.ValidOTPShape(req.Code) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired"})
		return
	}

	result, err := h.otpSvc.Verify(c.Request.Context(), inv.ID, req.Code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}
	if !result.OK {
		h.auditSvc.Log(c.Request.Context(),
			domain.NewAuditEvent(domain.OTPFailedEvent, inv.ID).
				WithClientContext(clientContext(c)).
				WithMetadata("reason", string(result.Reason)))

		if result.Reason == domain.OTPReasonCooldown {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many attempts",
				"retry_after": result.RetryAfterSeconds,
			})
			return
		}
		// Wrong code, unknown challenge, and expired challenge all share
		// one user-visible shape.
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired"})
		return
	}

	h.auditSvc.Log(c.Request.Context(),
		domain.NewAuditEvent(domain.OTPVerifiedEvent, inv.ID).
			WithClientContext(clientContext(c)))

	cookie, err := h.sessionSvc.Create(c.Request.Context(), inv.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	h.auditSvc.Log(c.Request.Context(),
		domain.NewAuditEvent(domain.SessionSavedEvent, inv.ID).
			WithClientContext(clientContext(c)))

	// SameSite=Lax survives top-level navigation from the emailed link
	// while resisting CSRF on state-changing POSTs.
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, cookie.Value, cookie.MaxAge, "/", "", h.production, true)

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"message":    "verified",
		"expires_at": cookie.ExpiresAt.UTC(),
	}})
}

// resolveOpenable loads the invitation behind the :token parameter and
// rejects anything that is not currently openable.
func (h *InviteHandlers) resolveOpenable(c *gin.Context) (*domain.Invitation, bool) {
	inv, err := h.invitationSvc.ResolveByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		switch err {
		case domain.ErrMalformedToken, domain.ErrInvitationNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "invalid or expired"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve invitation"})
		}
		return nil, false
	}
	if !inv.IsOpenable(time.Now()) {
		c.JSON(http.StatusGone, gin.H{"error": "invalid or expired"})
		return nil, false
	}
	return inv, true
}

// consumeInvitationBucket applies the invitation-scoped throttle on top
// of the router's IP-scoped one.
func (h *InviteHandlers) consumeInvitationBucket(c *gin.Context, operation, invitationID string, cap int, window time.Duration) bool {
	result, err := h.rateLimiter.Consume(c.Request.Context(), services.BucketKey(operation, invitationID), cap, window)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable"})
		return false
	}
	if !result.Allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "too many attempts",
			"retry_after": result.RetryAfterSeconds,
		})
		return false
	}
	return true
}

// detectIdentityOverride records an attempt to verify one invitation
// while already holding a live session for a different one.
func (h *InviteHandlers) detectIdentityOverride(c *gin.Context, inv *domain.Invitation) {
	value, err := c.Cookie(middleware.SessionCookieName)
	if err != nil || value == "" {
		return
	}
	result, err := h.sessionSvc.Resolve(c.Request.Context(), value)
	if err != nil || !result.OK {
		return
	}
	if result.Invitation.ID != inv.ID {
		h.auditSvc.Log(c.Request.Context(),
			domain.NewAuditEvent(domain.IdentityOverrideEvent, inv.ID).
				WithClientContext(clientContext(c)).
				WithMetadata("session_invitation_id", result.Invitation.ID))
	}
}
