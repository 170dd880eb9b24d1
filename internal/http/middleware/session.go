package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

// SessionCookieName is the patient session cookie.
const SessionCookieName = "intake_session"

// Context keys set by InvitationSession.
const (
	CtxInvitation = "invitation"
	CtxSession    = "invitation_session"
)

// InvitationSession resolves the patient session cookie and aborts with
// an opaque error when it is missing or rejected. The coarse reason is
// audited server-side but never surfaced to the client.
func InvitationSession(sessionSvc domain.SessionService, auditSvc domain.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, err := c.Cookie(SessionCookieName)
		if err != nil || value == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired"})
			c.Abort()
			return
		}

		result, err := sessionSvc.Resolve(c.Request.Context(), value)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session resolution failed"})
			c.Abort()
			return
		}
		if !result.OK {
			auditSvc.Log(c.Request.Context(),
				domain.NewAuditEvent(domain.SessionRejectedEvent, "").
					WithClientContext(&domain.ClientContext{
						IPAddress: c.ClientIP(),
						UserAgent: c.Request.UserAgent(),
					}).
					WithMetadata("reason", string(result.Reason)))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired"})
			c.Abort()
			return
		}

		c.Set(CtxInvitation, result.Invitation)
		c.Set(CtxSession, result.Session)
		c.Next()
	}
}
