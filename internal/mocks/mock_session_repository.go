package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

// MockSessionRepository implements domain.SessionRepository with an
// in-memory map for testing.
type MockSessionRepository struct {
	CreateFunc func(ctx context.Context, session *domain.InvitationSession) error
	FindFunc   func(ctx context.Context, invitationID, tokenHash string) (*domain.InvitationSession, error)

	mu       sync.Mutex
	sessions map[string]*domain.InvitationSession
}

func sessionKey(invitationID, tokenHash string) string {
	return invitationID + ":" + tokenHash
}

// NewMockSessionRepository creates a new MockSessionRepository
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{sessions: make(map[string]*domain.InvitationSession)}
}

// Create implements domain.SessionRepository
func (m *MockSessionRepository) Create(ctx context.Context, session *domain.InvitationSession) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *session
	m.sessions[sessionKey(session.InvitationID, session.TokenHash)] = &cp
	return nil
}

// Find implements domain.SessionRepository
func (m *MockSessionRepository) Find(ctx context.Context, invitationID, tokenHash string) (*domain.InvitationSession, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, invitationID, tokenHash)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionKey(invitationID, tokenHash)]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if session.ExpiresAt.Before(time.Now()) {
		return nil, domain.ErrSessionExpired
	}
	cp := *session
	return &cp, nil
}

// Delete implements domain.SessionRepository
func (m *MockSessionRepository) Delete(ctx context.Context, invitationID, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionKey(invitationID, tokenHash))
	return nil
}

// DeleteExpired implements domain.SessionRepository
func (m *MockSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for key, session := range m.sessions {
		if session.ExpiresAt.Before(now) {
			delete(m.sessions, key)
			deleted++
		}
	}
	return deleted, nil
}
