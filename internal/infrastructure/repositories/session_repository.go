package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

// SessionRepositoryImpl implements domain.SessionRepository using GORM.
// The persisted record is the source of truth the signed cookie is
// corroborated against; deleting a row revokes the session regardless of
// the cookie's cryptographic validity.
type SessionRepositoryImpl struct {
	db *gorm.DB
}

// DBInvitationSession represents the database model for InvitationSession
type DBInvitationSession struct {
	ID           string    `gorm:"primaryKey;size:36"`
	InvitationID string    `gorm:"index:idx_session_lookup;size:36"`
	TokenHash    string    `gorm:"index:idx_session_lookup;size:64"`
	Issuer       string    `gorm:"size:255"`
	Audience     string    `gorm:"size:255"`
	TokenType    string    `gorm:"size:64"`
	TokenContext string    `gorm:"size:64"`
	ExpiresAt    time.Time `gorm:"index"`
	CreatedAt    time.Time
}

// TableName returns the table name for GORM
func (DBInvitationSession) TableName() string {
	return "invitation_sessions"
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) domain.SessionRepository {
	return &SessionRepositoryImpl{db: db}
}

// Create implements domain.SessionRepository
func (r *SessionRepositoryImpl) Create(ctx context.Context, session *domain.InvitationSession) error {
	return r.db.WithContext(ctx).Create(r.domainToDB(session)).Error
}

// Find implements domain.SessionRepository. Lookup is always by the
// (invitation, token hash) pair; expired records are treated as absent.
func (r *SessionRepositoryImpl) Find(ctx context.Context, invitationID, tokenHash string) (*domain.InvitationSession, error) {
	var dbSession DBInvitationSession
	err := r.db.WithContext(ctx).
		Where("invitation_id = ? AND token_hash = ?", invitationID, tokenHash).
		First(&dbSession).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	if dbSession.ExpiresAt.Before(time.Now()) {
		return nil, domain.ErrSessionExpired
	}
	return r.dbToDomain(&dbSession), nil
}

// Delete implements domain.SessionRepository
func (r *SessionRepositoryImpl) Delete(ctx context.Context, invitationID, tokenHash string) error {
	return r.db.WithContext(ctx).
		Where("invitation_id = ? AND token_hash = ?", invitationID, tokenHash).
		Delete(&DBInvitationSession{}).Error
}

// DeleteExpired implements domain.SessionRepository
func (r *SessionRepositoryImpl) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&DBInvitationSession{})
	return res.RowsAffected, res.Error
}

func (r *SessionRepositoryImpl) domainToDB(s *domain.InvitationSession) *DBInvitationSession {
	return &DBInvitationSession{
		ID:           s.ID,
		InvitationID: s.InvitationID,
		TokenHash:    s.TokenHash,
		Issuer:       s.Issuer,
		Audience:     s.Audience,
		TokenType:    s.TokenType,
		TokenContext: s.TokenContext,
		ExpiresAt:    s.ExpiresAt,
	}
}

func (r *SessionRepositoryImpl) dbToDomain(s *DBInvitationSession) *domain.InvitationSession {
	return &domain.InvitationSession{
		ID:           s.ID,
		InvitationID: s.InvitationID,
		TokenHash:    s.TokenHash,
		Issuer:       s.Issuer,
		Audience:     s.Audience,
		TokenType:    s.TokenType,
		TokenContext: s.TokenContext,
		ExpiresAt:    s.ExpiresAt,
		CreatedAt:    s.CreatedAt,
	}
}
