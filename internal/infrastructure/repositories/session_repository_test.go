package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

func seedSession(t *testing.T, repo domain.SessionRepository, invitationID, tokenHash string, expiresAt time.Time) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &domain.InvitationSession{
		ID:           invitationID + "-session",
		InvitationID: invitationID,
		TokenHash:    tokenHash,
		Issuer:       "intake-svc",
		Audience:     "intake-patients",
		TokenType:    domain.SessionTokenType,
		TokenContext: domain.SessionTokenContext,
		ExpiresAt:    expiresAt,
	}))
}

func TestSessionRepository_CreateAndFind(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))
	ctx := context.Background()
	seedSession(t, repo, "inv-1", "hash-1", time.Now().Add(time.Hour))

	session, err := repo.Find(ctx, "inv-1", "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "intake-svc", session.Issuer)
	assert.Equal(t, domain.SessionTokenType, session.TokenType)
	assert.Equal(t, domain.SessionTokenContext, session.TokenContext)
}

func TestSessionRepository_FindRequiresBothKeys(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))
	ctx := context.Background()
	seedSession(t, repo, "inv-1", "hash-1", time.Now().Add(time.Hour))

	_, err := repo.Find(ctx, "inv-1", "hash-other")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = repo.Find(ctx, "inv-other", "hash-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRepository_FindExpired(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))
	ctx := context.Background()
	seedSession(t, repo, "inv-1", "hash-1", time.Now().Add(-time.Minute))

	_, err := repo.Find(ctx, "inv-1", "hash-1")
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestSessionRepository_Delete(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))
	ctx := context.Background()
	seedSession(t, repo, "inv-1", "hash-1", time.Now().Add(time.Hour))

	require.NoError(t, repo.Delete(ctx, "inv-1", "hash-1"))

	_, err := repo.Find(ctx, "inv-1", "hash-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Deleting an absent record is not an error.
	assert.NoError(t, repo.Delete(ctx, "inv-1", "hash-1"))
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))
	ctx := context.Background()
	seedSession(t, repo, "inv-stale", "hash-a", time.Now().Add(-time.Minute))
	seedSession(t, repo, "inv-fresh", "hash-b", time.Now().Add(time.Hour))

	deleted, err := repo.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.Find(ctx, "inv-fresh", "hash-b")
	assert.NoError(t, err)
}
