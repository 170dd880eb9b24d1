package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMehr/patient-intake-2-sub002/domain"
)

func TestAuditRepository_AppendAndList(t *testing.T) {
	repo := NewAuditRepository(newTestDB(t))
	ctx := context.Background()

	first := domain.NewAuditEvent(domain.InviteOpenedEvent, "inv-1").
		WithClientContext(&domain.ClientContext{IPAddress: "10.0.0.1", UserAgent: "test-agent"})
	first.CreatedAt = time.Now().Add(-2 * time.Minute)
	require.NoError(t, repo.Append(ctx, first))

	second := domain.NewAuditEvent(domain.OTPVerifiedEvent, "inv-1").
		WithMetadata("attempt", 1)
	second.CreatedAt = time.Now().Add(-time.Minute)
	require.NoError(t, repo.Append(ctx, second))

	require.NoError(t, repo.Append(ctx, domain.NewAuditEvent(domain.InviteOpenedEvent, "inv-other")))

	events, err := repo.ListByInvitation(ctx, "inv-1", 100)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Newest first.
	assert.Equal(t, domain.OTPVerifiedEvent, events[0].EventType)
	assert.Equal(t, domain.InviteOpenedEvent, events[1].EventType)
	assert.Equal(t, "10.0.0.1", events[1].IPAddress)
	assert.Equal(t, "test-agent", events[1].UserAgent)

	// Metadata round-trips through the JSON column.
	assert.EqualValues(t, 1, events[0].Metadata["attempt"])
}

func TestAuditRepository_ListHonorsLimit(t *testing.T) {
	repo := NewAuditRepository(newTestDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ev := domain.NewAuditEvent(domain.OTPFailedEvent, "inv-1")
		ev.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Append(ctx, ev))
	}

	events, err := repo.ListByInvitation(ctx, "inv-1", 3)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestAuditRepository_EventWithoutInvitation(t *testing.T) {
	repo := NewAuditRepository(newTestDB(t))
	ctx := context.Background()

	// Pre-resolution failures carry no invitation attribution.
	require.NoError(t, repo.Append(ctx, domain.NewAuditEvent(domain.InviteOpenFailedEvent, "")))

	events, err := repo.ListByInvitation(ctx, "", 100)
	require.NoError(t, err)
	assert.Empty(t, events)
}
