package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
	"github.com/MikeMehr/patient-intake-2-sub002/internal/http/middleware"
)

// SessionHandlers handles requests carrying a verified patient session
// cookie. The middleware has already corroborated the cookie against the
// persisted record and the invitation's live state.
type SessionHandlers struct {
	invitationSvc domain.InvitationService
	sessionSvc    domain.SessionService
	auditSvc      domain.AuditService
	production    bool
}

// NewSessionHandlers creates new session handlers
func NewSessionHandlers(
	invitationSvc domain.InvitationService,
	sessionSvc domain.SessionService,
	auditSvc domain.AuditService,
	production bool,
) *SessionHandlers {
	return &SessionHandlers{
		invitationSvc: invitationSvc,
		sessionSvc:    sessionSvc,
		auditSvc:      auditSvc,
		production:    production,
	}
}

func sessionFromContext(c *gin.Context) (*domain.Invitation, *domain.InvitationSession, bool) {
	invVal, ok := c.Get(middleware.CtxInvitation)
	if !ok {
		return nil, nil, false
	}
	sessVal, ok := c.Get(middleware.CtxSession)
	if !ok {
		return nil, nil, false
	}
	return invVal.(*domain.Invitation), sessVal.(*domain.InvitationSession), true
}

// GetInvitation handles GET /session/invitation. Re-reads within the
// cookie lifetime are idempotent.
func (h *SessionHandlers) GetInvitation(c *gin.Context) {
	inv, _, ok := sessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": inv.Project(time.Now())})
}

// Submit handles POST /session/submit: the patient completes the intake
// session, which consumes the invitation, purges its summaries, and ends
// the session.
func (h *SessionHandlers) Submit(c *gin.Context) {
	inv, session, ok := sessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired"})
		return
	}

	if err := h.invitationSvc.MarkUsed(c.Request.Context(), inv.ID); err != nil {
		if err == domain.ErrInvitationUsed {
			c.JSON(http.StatusConflict, gin.H{"error": "invalid or expired"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit"})
		return
	}

	if err := h.sessionSvc.Destroy(c.Request.Context(), session.InvitationID, session.TokenHash); err != nil {
		// The invitation is already consumed; session cleanup failing is
		// not user-visible.
		h.auditSvc.Log(c.Request.Context(),
			domain.NewAuditEvent(domain.SessionRejectedEvent, inv.ID).
				WithMetadata("cleanup_error", err.Error()))
	}

	h.auditSvc.Log(c.Request.Context(),
		domain.NewAuditEvent(domain.SessionSavedEvent, inv.ID).
			WithClientContext(clientContext(c)).
			WithMetadata("action", "submitted"))

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", h.production, true)

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "intake submitted"}})
}
