package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

// AdminHandlers handles the staff-facing invitation management API.
type AdminHandlers struct {
	invitationSvc domain.InvitationService
	auditSvc      domain.AuditService
}

// NewAdminHandlers creates new admin handlers
func NewAdminHandlers(invitationSvc domain.InvitationService, auditSvc domain.AuditService) *AdminHandlers {
	return &AdminHandlers{
		invitationSvc: invitationSvc,
		auditSvc:      auditSvc,
	}
}

// CreateInvitationRequest represents an invitation issuance request
type CreateInvitationRequest struct {
	PatientEmail string `json:"patient_email" binding:"required,email"`
	PatientName  string `json:"patient_name" binding:"required"`
	PatientDOB   string `json:"patient_dob,omitempty"`
}

// Create handles POST /admin/invitations. The raw link token appears in
// this response exactly once and is never retrievable again.
func (h *AdminHandlers) Create(c *gin.Context) {
	var req CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var dob *time.Time
	if req.PatientDOB != "" {
		parsed, err := time.Parse("2006-01-02", req.PatientDOB)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "patient_dob must be YYYY-MM-DD"})
			return
		}
		dob = &parsed
	}

	physicianID, _ := c.Get("staff_id")

	issued, err := h.invitationSvc.Issue(c.Request.Context(), physicianID.(string), req.PatientEmail, req.PatientName, dob)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue invitation"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{
		"invitation_id":    issued.Invitation.ID,
		"token":            issued.RawToken,
		"token_expires_at": issued.Invitation.TokenExpiresAt.UTC(),
	}})
}

// Revoke handles POST /admin/invitations/:id/revoke
func (h *AdminHandlers) Revoke(c *gin.Context) {
	id := c.Param("id")

	if err := h.invitationSvc.Revoke(c.Request.Context(), id); err != nil {
		if err == domain.ErrInvitationNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "invitation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke invitation"})
		return
	}

	staffID, _ := c.Get("staff_id")
	h.auditSvc.Log(c.Request.Context(),
		domain.NewAuditEvent(domain.InviteRevokedEvent, id).
			WithClientContext(clientContext(c)).
			WithMetadata("staff_id", staffID))

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "invitation revoked"}})
}

// AuditTrail handles GET /admin/invitations/:id/audit
func (h *AdminHandlers) AuditTrail(c *gin.Context) {
	events, err := h.auditSvc.ListByInvitation(c.Request.Context(), c.Param("id"), 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list audit events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events})
}
