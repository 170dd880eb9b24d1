package mocks

import (
	"context"
	"sync"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

// MockAuditRepository implements domain.AuditRepository for testing.
type MockAuditRepository struct {
	AppendFunc           func(ctx context.Context, event *domain.AuditEvent) error
	ListByInvitationFunc func(ctx context.Context, invitationID string, limit int) ([]domain.AuditEvent, error)

	mu     sync.Mutex
	Events []domain.AuditEvent
}

// NewMockAuditRepository creates a new MockAuditRepository
func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

// Append records the event and delegates to AppendFunc when set.
func (m *MockAuditRepository) Append(ctx context.Context, event *domain.AuditEvent) error {
	if m.AppendFunc != nil {
		if err := m.AppendFunc(ctx, event); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Events = append(m.Events, *event)
	m.mu.Unlock()
	return nil
}

// ListByInvitation implements domain.AuditRepository
func (m *MockAuditRepository) ListByInvitation(ctx context.Context, invitationID string, limit int) ([]domain.AuditEvent, error) {
	if m.ListByInvitationFunc != nil {
		return m.ListByInvitationFunc(ctx, invitationID, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var events []domain.AuditEvent
	for _, ev := range m.Events {
		if ev.InvitationID == invitationID {
			events = append(events, ev)
		}
	}
	return events, nil
}

// EventTypes returns the recorded event types in order.
func (m *MockAuditRepository) EventTypes() []domain.AuditEventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]domain.AuditEventType, 0, len(m.Events))
	for _, ev := range m.Events {
		types = append(types, ev.EventType)
	}
	return types
}
