package services

import (
	"context"
	"log"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

// AuditServiceImpl implements domain.AuditService. Audit logging is a
// side effect of a security decision already made; a write failure must
// never propagate to the caller, so Log reports an outcome instead of an
// error.
type AuditServiceImpl struct {
	auditRepo domain.AuditRepository
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo domain.AuditRepository) domain.AuditService {
	return &AuditServiceImpl{auditRepo: auditRepo}
}

// Log implements domain.AuditService
func (s *AuditServiceImpl) Log(ctx context.Context, event *domain.AuditEvent) domain.AuditOutcome {
	if err := s.auditRepo.Append(ctx, event); err != nil {
		log.Printf("AUDIT_DROPPED: event_type=%s invitation_id=%s error=%v",
			event.EventType, event.InvitationID, err)
		return domain.AuditDropped
	}
	return domain.AuditRecorded
}

// ListByInvitation implements domain.AuditService
func (s *AuditServiceImpl) ListByInvitation(ctx context.Context, invitationID string, limit int) ([]domain.AuditEvent, error) {
	return s.auditRepo.ListByInvitation(ctx, invitationID, limit)
}
