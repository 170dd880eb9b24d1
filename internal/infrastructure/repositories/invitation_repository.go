package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

// InvitationRepositoryImpl implements domain.InvitationRepository using GORM
type InvitationRepositoryImpl struct {
	db *gorm.DB
}

// DBInvitation represents the database model for Invitation (with GORM tags)
type DBInvitation struct {
	ID           string     `gorm:"primaryKey;size:36"`
	PhysicianID  string     `gorm:"index;size:36"`
	PatientEmail string     `gorm:"index;size:255"`
	PatientName  string     `gorm:"size:255"`
	PatientDOB   *time.Time

	TokenHash      string    `gorm:"uniqueIndex;size:64"`
	TokenExpiresAt time.Time `gorm:"index"`
	ExpiresAt      time.Time `gorm:"index"`

	OpenedAt  *time.Time
	UsedAt    *time.Time
	RevokedAt *time.Time

	LabReportSummary         string `gorm:"type:text"`
	PreviousLabReportSummary string `gorm:"type:text"`
	FormSummary              string `gorm:"type:text"`
	SummaryExpiresAt         *time.Time `gorm:"index"`
	SummaryDeletedAt         *time.Time

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (DBInvitation) TableName() string {
	return "invitations"
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *gorm.DB) domain.InvitationRepository {
	return &InvitationRepositoryImpl{db: db}
}

// Create implements domain.InvitationRepository
func (r *InvitationRepositoryImpl) Create(ctx context.Context, inv *domain.Invitation) error {
	return r.db.WithContext(ctx).Create(r.domainToDB(inv)).Error
}

// FindByID implements domain.InvitationRepository
func (r *InvitationRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.Invitation, error) {
	var dbInv DBInvitation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbInv).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbInv), nil
}

// FindByTokenHash implements domain.InvitationRepository. This is the
// only token lookup path; no raw-value query exists.
func (r *InvitationRepositoryImpl) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.Invitation, error) {
	var dbInv DBInvitation
	err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&dbInv).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbInv), nil
}

// MarkOpened implements domain.InvitationRepository. Only the first open
// is recorded.
func (r *InvitationRepositoryImpl) MarkOpened(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&DBInvitation{}).
		Where("id = ? AND opened_at IS NULL", id).
		Update("opened_at", at).Error
}

// MarkUsed implements domain.InvitationRepository. The guarded single
// UPDATE makes consumption atomic: concurrent submissions cannot both
// succeed.
func (r *InvitationRepositoryImpl) MarkUsed(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&DBInvitation{}).
		Where("id = ? AND used_at IS NULL AND revoked_at IS NULL", id).
		Update("used_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInvitationUsed
	}
	return nil
}

// Revoke implements domain.InvitationRepository
func (r *InvitationRepositoryImpl) Revoke(ctx context.Context, id string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&DBInvitation{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInvitationNotFound
	}
	return nil
}

// ClearSummaries implements domain.InvitationRepository
func (r *InvitationRepositoryImpl) ClearSummaries(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&DBInvitation{}).
		Where("id = ? AND summary_deleted_at IS NULL", id).
		Updates(purgeColumns(at)).Error
}

// ClearExpiredSummaries implements domain.InvitationRepository. A single
// UPDATE keeps the purge idempotent and safe to interleave with reads: a
// row is either fully present or fully purged to a concurrent reader.
func (r *InvitationRepositoryImpl) ClearExpiredSummaries(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&DBInvitation{}).
		Where("summary_expires_at IS NOT NULL AND summary_expires_at <= ? AND summary_deleted_at IS NULL", now).
		Updates(purgeColumns(now))
	return res.RowsAffected, res.Error
}

func purgeColumns(at time.Time) map[string]interface{} {
	return map[string]interface{}{
		"lab_report_summary":          "",
		"previous_lab_report_summary": "",
		"form_summary":                "",
		"summary_deleted_at":          at,
	}
}

// domainToDB converts a domain invitation to its database model
func (r *InvitationRepositoryImpl) domainToDB(inv *domain.Invitation) *DBInvitation {
	return &DBInvitation{
		ID:                       inv.ID,
		PhysicianID:              inv.PhysicianID,
		PatientEmail:             inv.PatientEmail,
		PatientName:              inv.PatientName,
		PatientDOB:               inv.PatientDOB,
		TokenHash:                inv.TokenHash,
		TokenExpiresAt:           inv.TokenExpiresAt,
		ExpiresAt:                inv.ExpiresAt,
		OpenedAt:                 inv.OpenedAt,
		UsedAt:                   inv.UsedAt,
		RevokedAt:                inv.RevokedAt,
		LabReportSummary:         inv.LabReportSummary,
		PreviousLabReportSummary: inv.PreviousLabReportSummary,
		FormSummary:              inv.FormSummary,
		SummaryExpiresAt:         inv.SummaryExpiresAt,
		SummaryDeletedAt:         inv.SummaryDeletedAt,
	}
}

// dbToDomain converts a database invitation to the domain model. All
// legacy-field fallback logic lives on the domain type, not here.
func (r *InvitationRepositoryImpl) dbToDomain(dbInv *DBInvitation) *domain.Invitation {
	return &domain.Invitation{
		ID:                       dbInv.ID,
		PhysicianID:              dbInv.PhysicianID,
		PatientEmail:             dbInv.PatientEmail,
		PatientName:              dbInv.PatientName,
		PatientDOB:               dbInv.PatientDOB,
		TokenHash:                dbInv.TokenHash,
		TokenExpiresAt:           dbInv.TokenExpiresAt,
		ExpiresAt:                dbInv.ExpiresAt,
		OpenedAt:                 dbInv.OpenedAt,
		UsedAt:                   dbInv.UsedAt,
		RevokedAt:                dbInv.RevokedAt,
		LabReportSummary:         dbInv.LabReportSummary,
		PreviousLabReportSummary: dbInv.PreviousLabReportSummary,
		FormSummary:              dbInv.FormSummary,
		SummaryExpiresAt:         dbInv.SummaryExpiresAt,
		SummaryDeletedAt:         dbInv.SummaryDeletedAt,
		CreatedAt:                dbInv.CreatedAt,
		UpdatedAt:                dbInv.UpdatedAt,
	}
}
