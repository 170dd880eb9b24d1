package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

// MockInvitationRepository implements domain.InvitationRepository with an
// in-memory map for testing. Individual methods can be overridden.
type MockInvitationRepository struct {
	CreateFunc          func(ctx context.Context, inv *domain.Invitation) error
	FindByIDFunc        func(ctx context.Context, id string) (*domain.Invitation, error)
	FindByTokenHashFunc func(ctx context.Context, tokenHash string) (*domain.Invitation, error)

	mu          sync.Mutex
	invitations map[string]*domain.Invitation
}

// NewMockInvitationRepository creates a new MockInvitationRepository
func NewMockInvitationRepository() *MockInvitationRepository {
	return &MockInvitationRepository{invitations: make(map[string]*domain.Invitation)}
}

// Create implements domain.InvitationRepository
func (m *MockInvitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, inv)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *inv
	m.invitations[inv.ID] = &cp
	return nil
}

// FindByID implements domain.InvitationRepository
func (m *MockInvitationRepository) FindByID(ctx context.Context, id string) (*domain.Invitation, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invitations[id]
	if !ok {
		return nil, domain.ErrInvitationNotFound
	}
	cp := *inv
	return &cp, nil
}

// FindByTokenHash implements domain.InvitationRepository
func (m *MockInvitationRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.Invitation, error) {
	if m.FindByTokenHashFunc != nil {
		return m.FindByTokenHashFunc(ctx, tokenHash)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invitations {
		if inv.TokenHash == tokenHash {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrInvitationNotFound
}

// MarkOpened implements domain.InvitationRepository
func (m *MockInvitationRepository) MarkOpened(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv, ok := m.invitations[id]; ok && inv.OpenedAt == nil {
		inv.OpenedAt = &at
	}
	return nil
}

// MarkUsed implements domain.InvitationRepository
func (m *MockInvitationRepository) MarkUsed(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invitations[id]
	if !ok || inv.UsedAt != nil || inv.RevokedAt != nil {
		return domain.ErrInvitationUsed
	}
	inv.UsedAt = &at
	return nil
}

// Revoke implements domain.InvitationRepository
func (m *MockInvitationRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invitations[id]
	if !ok {
		return domain.ErrInvitationNotFound
	}
	if inv.RevokedAt == nil {
		inv.RevokedAt = &at
	}
	return nil
}

// ClearSummaries implements domain.InvitationRepository
func (m *MockInvitationRepository) ClearSummaries(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv, ok := m.invitations[id]; ok && inv.SummaryDeletedAt == nil {
		inv.LabReportSummary = ""
		inv.PreviousLabReportSummary = ""
		inv.FormSummary = ""
		inv.SummaryDeletedAt = &at
	}
	return nil
}

// ClearExpiredSummaries implements domain.InvitationRepository
func (m *MockInvitationRepository) ClearExpiredSummaries(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var purged int64
	for _, inv := range m.invitations {
		if inv.SummaryExpiresAt != nil && !inv.SummaryExpiresAt.After(now) && inv.SummaryDeletedAt == nil {
			inv.LabReportSummary = ""
			inv.PreviousLabReportSummary = ""
			inv.FormSummary = ""
			at := now
			inv.SummaryDeletedAt = &at
			purged++
		}
	}
	return purged, nil
}
