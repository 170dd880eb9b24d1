package repositories

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

// AuditRepositoryImpl implements domain.AuditRepository using GORM.
// Rows are append-only; nothing in the service updates or deletes them.
type AuditRepositoryImpl struct {
	db *gorm.DB
}

// DBAuditEvent represents the database model for AuditEvent
type DBAuditEvent struct {
	ID           uint      `gorm:"primaryKey"`
	InvitationID *string   `gorm:"index;size:36"`
	EventType    string    `gorm:"index;size:64"`
	IPAddress    string    `gorm:"size:45"`
	UserAgent    string    `gorm:"size:512"`
	Metadata     string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (DBAuditEvent) TableName() string {
	return "invitation_audit_events"
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) domain.AuditRepository {
	return &AuditRepositoryImpl{db: db}
}

// Append implements domain.AuditRepository
func (r *AuditRepositoryImpl) Append(ctx context.Context, event *domain.AuditEvent) error {
	dbEvent, err := r.domainToDB(event)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(dbEvent).Error
}

// ListByInvitation implements domain.AuditRepository
func (r *AuditRepositoryImpl) ListByInvitation(ctx context.Context, invitationID string, limit int) ([]domain.AuditEvent, error) {
	var dbEvents []DBAuditEvent
	err := r.db.WithContext(ctx).
		Where("invitation_id = ?", invitationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&dbEvents).Error
	if err != nil {
		return nil, err
	}

	events := make([]domain.AuditEvent, 0, len(dbEvents))
	for i := range dbEvents {
		ev, err := r.dbToDomain(&dbEvents[i])
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, nil
}

func (r *AuditRepositoryImpl) domainToDB(event *domain.AuditEvent) (*DBAuditEvent, error) {
	var metadata string
	if len(event.Metadata) > 0 {
		raw, err := json.Marshal(event.Metadata)
		if err != nil {
			return nil, err
		}
		metadata = string(raw)
	}

	dbEvent := &DBAuditEvent{
		EventType: string(event.EventType),
		IPAddress: event.IPAddress,
		UserAgent: event.UserAgent,
		Metadata:  metadata,
		CreatedAt: event.CreatedAt,
	}
	// Pre-resolution failures have no invitation to attribute.
	if event.InvitationID != "" {
		id := event.InvitationID
		dbEvent.InvitationID = &id
	}
	return dbEvent, nil
}

func (r *AuditRepositoryImpl) dbToDomain(dbEvent *DBAuditEvent) (*domain.AuditEvent, error) {
	event := &domain.AuditEvent{
		ID:        dbEvent.ID,
		EventType: domain.AuditEventType(dbEvent.EventType),
		IPAddress: dbEvent.IPAddress,
		UserAgent: dbEvent.UserAgent,
		Metadata:  make(map[string]interface{}),
		CreatedAt: dbEvent.CreatedAt,
	}
	if dbEvent.InvitationID != nil {
		event.InvitationID = *dbEvent.InvitationID
	}
	if dbEvent.Metadata != "" {
		if err := json.Unmarshal([]byte(dbEvent.Metadata), &event.Metadata); err != nil {
			return nil, err
		}
	}
	return event, nil
}
