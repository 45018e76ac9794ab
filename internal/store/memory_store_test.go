package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, ms.CreateSession(ctx, newSession("sess-1", "math", 25*time.Minute)))

	got, err := ms.GetSessionByID(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)
	assert.True(t, got.IsActive())

	require.NoError(t, ms.PauseSession(ctx, "sess-1", 5*time.Minute))
	got, _ = ms.GetSessionByID(ctx, "sess-1")
	assert.Equal(t, StatusPaused, got.Status)
	assert.Equal(t, 5*time.Minute, got.ActualDuration)
	require.NotNil(t, got.PausedAt)

	require.NoError(t, ms.ResumeSession(ctx, "sess-1"))
	got, _ = ms.GetSessionByID(ctx, "sess-1")
	assert.Equal(t, StatusRunning, got.Status)
	assert.Nil(t, got.PausedAt)

	require.NoError(t, ms.CompleteSession(ctx, "sess-1", 24*time.Minute))
	got, _ = ms.GetSessionByID(ctx, "sess-1")
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 24*time.Minute, got.ActualDuration)

	active, err := ms.ListActiveSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestMemoryStoreMissingSession(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	_, err := ms.GetSessionByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, ms.PauseSession(ctx, "nope", 0), ErrNotFound)
	assert.ErrorIs(t, ms.ResumeSession(ctx, "nope"), ErrNotFound)
	assert.ErrorIs(t, ms.DiscardSession(ctx, "nope"), ErrNotFound)
	assert.ErrorIs(t, ms.UpdateTarget(ctx, "nope", time.Minute), ErrNotFound)
}

func TestMemoryStoreSingleRunning(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, ms.CreateSession(ctx, newSession("sess-1", "math", 25*time.Minute)))
	require.NoError(t, ms.CreateSession(ctx, newSession("sess-2", "essay", 25*time.Minute)))
	require.NoError(t, ms.CreateSession(ctx, newSession("sess-3", "reading", 25*time.Minute)))

	active, err := ms.ListActiveSessions(ctx)
	require.NoError(t, err)
	require.Len(t, active, 3)

	running := 0
	for _, s := range active {
		if s.Status == StatusRunning {
			running++
			assert.Equal(t, "sess-3", s.ID)
		}
	}
	assert.Equal(t, 1, running)

	// Resuming a parked session parks the current runner.
	require.NoError(t, ms.ResumeSession(ctx, "sess-1"))
	s3, err := ms.GetSessionByID(ctx, "sess-3")
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, s3.Status)
}

func TestMemoryStoreEstimates(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := ms.GetEstimatedDuration(ctx, "math")
	require.NoError(t, err)
	assert.False(t, ok)

	ms.SetEstimatedDuration("math", 35*time.Minute)
	d, ok, err := ms.GetEstimatedDuration(ctx, "math")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 35*time.Minute, d)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, ms.CreateSession(ctx, newSession("sess-1", "math", 25*time.Minute)))

	got, err := ms.GetSessionByID(ctx, "sess-1")
	require.NoError(t, err)
	got.SubjectID = "mutated"

	again, err := ms.GetSessionByID(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "math", again.SubjectID)
}
