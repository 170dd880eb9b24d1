package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
	"github.com/MikeMehr/patient-intake-2-sub002/internal/infrastructure/auth"
)

// InvitationServiceImpl implements domain.InvitationService
type InvitationServiceImpl struct {
	invRepo         domain.InvitationRepository
	tokenIssuer     domain.TokenIssuer
	notificationSvc domain.NotificationService
	purgeSvc        domain.PurgeService
	config          InvitationConfig
}

type InvitationConfig struct {
	// OverallTTL is the legacy overall expiry recorded alongside the
	// token expiry.
	OverallTTL time.Duration
	// LinkBaseURL is the patient-facing base for invitation links, e.g.
	// "https://intake.example.org/invites".
	LinkBaseURL string
}

// NewInvitationService creates a new invitation service
func NewInvitationService(
	invRepo domain.InvitationRepository,
	tokenIssuer domain.TokenIssuer,
	notificationSvc domain.NotificationService,
	purgeSvc domain.PurgeService,
	config InvitationConfig,
) domain.InvitationService {
	return &InvitationServiceImpl{
		invRepo:         invRepo,
		tokenIssuer:     tokenIssuer,
		notificationSvc: notificationSvc,
		purgeSvc:        purgeSvc,
		config:          config,
	}
}

// Issue implements domain.InvitationService. The raw link token is
// embedded in the emailed link and returned once to the caller; only its
// hash is persisted.
func (s *InvitationServiceImpl) Issue(ctx context.Context, physicianID, patientEmail, patientName string, dob *time.Time) (*domain.IssuedInvitation, error) {
	issued, err := s.tokenIssuer.CreateInvitationToken()
	if err != nil {
		return nil, fmt.Errorf("failed to mint invitation token: %w", err)
	}

	inv := &domain.Invitation{
		ID:             uuid.NewString(),
		PhysicianID:    physicianID,
		PatientEmail:   patientEmail,
		PatientName:    patientName,
		PatientDOB:     dob,
		TokenHash:      issued.TokenHash,
		TokenExpiresAt: issued.ExpiresAt,
		ExpiresAt:      time.Now().Add(s.config.OverallTTL),
	}

	if err := s.invRepo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	link := fmt.Sprintf("%s/%s", s.config.LinkBaseURL, issued.RawToken)
	body := fmt.Sprintf("Hello %s,\n\nYour clinician has invited you to complete your intake forms:\n%s\n\nThis link is for you alone and expires on %s.",
		patientName, link, issued.ExpiresAt.Format(time.RFC1123))
	if err := s.notificationSvc.SendEmail(patientEmail, "Your patient intake invitation", body); err != nil {
		return nil, fmt.Errorf("failed to send invitation email: %w", err)
	}

	return &domain.IssuedInvitation{Invitation: inv, RawToken: issued.RawToken}, nil
}

// ResolveByToken implements domain.InvitationService
func (s *InvitationServiceImpl) ResolveByToken(ctx context.Context, rawToken string) (*domain.Invitation, error) {
	if !auth.ValidTokenShape(rawToken) {
		return nil, domain.ErrMalformedToken
	}
	return s.invRepo.FindByTokenHash(ctx, auth.HashSecret(rawToken))
}

// Open implements domain.InvitationService
func (s *InvitationServiceImpl) Open(ctx context.Context, rawToken string) (*domain.InvitationProjection, error) {
	inv, err := s.ResolveByToken(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if inv.IsOpenable(now) && inv.OpenedAt == nil {
		if err := s.invRepo.MarkOpened(ctx, inv.ID, now); err != nil {
			return nil, fmt.Errorf("failed to record open: %w", err)
		}
	}
	return inv.Project(now), nil
}

// MarkUsed implements domain.InvitationService. Consuming the invitation
// immediately purges its cached summaries: the derived data has served
// its purpose.
func (s *InvitationServiceImpl) MarkUsed(ctx context.Context, invitationID string) error {
	if err := s.invRepo.MarkUsed(ctx, invitationID, time.Now()); err != nil {
		return err
	}
	return s.purgeSvc.Clear(ctx, invitationID)
}

// Revoke implements domain.InvitationService
func (s *InvitationServiceImpl) Revoke(ctx context.Context, invitationID string) error {
	return s.invRepo.Revoke(ctx, invitationID, time.Now())
}
