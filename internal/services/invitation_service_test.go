package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
	"github.com/MikeMehr/patient-intake-2-sub002/internal/infrastructure/auth"
	"github.com/MikeMehr/patient-intake-2-sub002/internal/mocks"
)

type invitationTestFixture struct {
	svc     domain.InvitationService
	invRepo *mocks.MockInvitationRepository
	notify  *mocks.MockNotificationService
}

func newInvitationTestFixture(t *testing.T) *invitationTestFixture {
	t.Helper()
	invRepo := mocks.NewMockInvitationRepository()
	notify := mocks.NewMockNotificationService()
	purge := NewPurgeService(invRepo, mocks.NewMockSessionRepository(), time.Hour)

	svc := NewInvitationService(invRepo, auth.NewTokenIssuer(72*time.Hour), notify, purge, InvitationConfig{
		OverallTTL:  7 * 24 * time.Hour,
		LinkBaseURL: "https://intake.example.org/invites",
	})
	return &invitationTestFixture{svc: svc, invRepo: invRepo, notify: notify}
}

func TestInvitationService_Issue(t *testing.T) {
	f := newInvitationTestFixture(t)
	ctx := context.Background()

	issued, err := f.svc.Issue(ctx, "dr-1", "jane@example.org", "Jane Doe", nil)
	require.NoError(t, err)
	require.True(t, auth.ValidTokenShape(issued.RawToken))

	// Only the hash is persisted.
	assert.Equal(t, auth.HashSecret(issued.RawToken), issued.Invitation.TokenHash)
	stored, err := f.invRepo.FindByID(ctx, issued.Invitation.ID)
	require.NoError(t, err)
	assert.NotContains(t, stored.TokenHash, issued.RawToken)

	// The patient received a link carrying the raw token.
	email := f.notify.LastEmail()
	require.NotNil(t, email)
	assert.Equal(t, "jane@example.org", email.To)
	assert.Contains(t, email.Body, "https://intake.example.org/invites/"+issued.RawToken)
}

func TestInvitationService_ResolveByToken(t *testing.T) {
	f := newInvitationTestFixture(t)
	ctx := context.Background()

	issued, err := f.svc.Issue(ctx, "dr-1", "jane@example.org", "Jane Doe", nil)
	require.NoError(t, err)

	inv, err := f.svc.ResolveByToken(ctx, issued.RawToken)
	require.NoError(t, err)
	assert.Equal(t, issued.Invitation.ID, inv.ID)
}

func TestInvitationService_ResolveByTokenMalformed(t *testing.T) {
	f := newInvitationTestFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"too short", "abc123"},
		{"uppercase hex", strings.Repeat("A", 64)},
		{"non hex", strings.Repeat("z", 64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ResolveByToken(ctx, tt.raw)
			assert.ErrorIs(t, err, domain.ErrMalformedToken)
		})
	}
}

func TestInvitationService_ResolveByTokenUnknown(t *testing.T) {
	f := newInvitationTestFixture(t)

	_, err := f.svc.ResolveByToken(context.Background(), strings.Repeat("a", 64))
	assert.ErrorIs(t, err, domain.ErrInvitationNotFound)
}

func TestInvitationService_OpenRecordsFirstOpen(t *testing.T) {
	f := newInvitationTestFixture(t)
	ctx := context.Background()

	issued, err := f.svc.Issue(ctx, "dr-1", "jane@example.org", "Jane Doe", nil)
	require.NoError(t, err)

	projection, err := f.svc.Open(ctx, issued.RawToken)
	require.NoError(t, err)
	assert.True(t, projection.Openable)
	assert.Equal(t, "Jane Doe", projection.PatientName)
	assert.Equal(t, "j***@example.org", projection.MaskedEmail)

	stored, err := f.invRepo.FindByID(ctx, issued.Invitation.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.OpenedAt)
	firstOpen := *stored.OpenedAt

	// A second open is fine and keeps the original timestamp.
	_, err = f.svc.Open(ctx, issued.RawToken)
	require.NoError(t, err)
	stored, err = f.invRepo.FindByID(ctx, issued.Invitation.ID)
	require.NoError(t, err)
	assert.Equal(t, firstOpen, *stored.OpenedAt)
}

func TestInvitationService_OpenClosedInvitation(t *testing.T) {
	f := newInvitationTestFixture(t)
	ctx := context.Background()

	issued, err := f.svc.Issue(ctx, "dr-1", "jane@example.org", "Jane Doe", nil)
	require.NoError(t, err)
	require.NoError(t, f.svc.Revoke(ctx, issued.Invitation.ID))

	// The projection still names the patient so they can tell a consumed
	// link apart from a wrong one.
	projection, err := f.svc.Open(ctx, issued.RawToken)
	require.NoError(t, err)
	assert.False(t, projection.Openable)
	assert.Equal(t, domain.ReasonRevoked, projection.InvalidReason)
	assert.Equal(t, "Jane Doe", projection.PatientName)
	assert.Empty(t, projection.LabReportSummary)
}

func TestInvitationService_MarkUsed(t *testing.T) {
	f := newInvitationTestFixture(t)
	ctx := context.Background()

	issued, err := f.svc.Issue(ctx, "dr-1", "jane@example.org", "Jane Doe", nil)
	require.NoError(t, err)

	// Give the stored invitation live summaries to verify the purge.
	stored, err := f.invRepo.FindByID(ctx, issued.Invitation.ID)
	require.NoError(t, err)
	future := time.Now().Add(time.Hour)
	stored.LabReportSummary = "labs"
	stored.SummaryExpiresAt = &future
	require.NoError(t, f.invRepo.Create(ctx, stored))

	require.NoError(t, f.svc.MarkUsed(ctx, issued.Invitation.ID))

	stored, err = f.invRepo.FindByID(ctx, issued.Invitation.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.UsedAt)
	assert.Empty(t, stored.LabReportSummary)
	assert.NotNil(t, stored.SummaryDeletedAt)

	// Single use: a second submission conflicts.
	assert.ErrorIs(t, f.svc.MarkUsed(ctx, issued.Invitation.ID), domain.ErrInvitationUsed)
}

func TestInvitationService_Revoke(t *testing.T) {
	f := newInvitationTestFixture(t)
	ctx := context.Background()

	issued, err := f.svc.Issue(ctx, "dr-1", "jane@example.org", "Jane Doe", nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.Revoke(ctx, issued.Invitation.ID))
	stored, err := f.invRepo.FindByID(ctx, issued.Invitation.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.RevokedAt)

	assert.ErrorIs(t, f.svc.Revoke(ctx, "inv-unknown"), domain.ErrInvitationNotFound)
}
