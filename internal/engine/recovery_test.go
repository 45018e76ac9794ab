package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusService/internal/store"
)

// near asserts two durations agree within a second; recovery fixtures mix the
// controlled clock with store-side wall timestamps.
func near(t *testing.T, want, got time.Duration) {
	t.Helper()
	diff := want - got
	if diff < 0 {
		diff = -diff
	}
	assert.LessOrEqual(t, diff, time.Second, "want ~%v, got %v", want, got)
}

func seedSession(t *testing.T, ms *store.MemoryStore, id, subject string, start time.Time, target time.Duration) {
	t.Helper()
	require.NoError(t, ms.CreateSession(context.Background(), &store.Session{
		ID:             id,
		SubjectID:      subject,
		Kind:           store.KindSimple,
		StartTime:      start,
		TargetDuration: target,
	}))
}

func TestRecoverPausedSession(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	// Paused 20 minutes into wall time with 10 minutes of active work banked.
	start := f.clk.Now().Add(-20 * time.Minute)
	seedSession(t, f.store, "sess-1", "math", start, 25*time.Minute)
	require.NoError(t, f.store.PauseSession(ctx, "sess-1", 10*time.Minute))

	f.eng.Recover(ctx)

	snap := f.eng.Snapshot()
	require.True(t, snap.Active)
	assert.Equal(t, "sess-1", snap.SessionID)
	assert.True(t, snap.Paused)
	near(t, 10*time.Minute, snap.Elapsed)
	near(t, 15*time.Minute, snap.Remaining)

	// Still paused: elapsed holds while the clock moves on.
	f.clk.Advance(time.Hour)
	near(t, 10*time.Minute, f.eng.Snapshot().Elapsed)
}

func TestRecoverRunningSession(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	// 10 minutes of work before a pause, then resumed just before the crash.
	start := f.clk.Now().Add(-30 * time.Minute)
	seedSession(t, f.store, "sess-1", "math", start, 25*time.Minute)
	require.NoError(t, f.store.PauseSession(ctx, "sess-1", 10*time.Minute))
	require.NoError(t, f.store.ResumeSession(ctx, "sess-1"))

	f.eng.Recover(ctx)

	snap := f.eng.Snapshot()
	require.True(t, snap.Active)
	assert.False(t, snap.Paused)
	near(t, 10*time.Minute, snap.Elapsed)

	// A running session keeps accruing in wall time.
	f.clk.Advance(5 * time.Minute)
	near(t, 15*time.Minute, f.eng.Snapshot().Elapsed)
}

func TestRecoverRepositionsAlertCursor(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	start := f.clk.Now().Add(-16 * time.Minute)
	seedSession(t, f.store, "sess-1", "math", start, 25*time.Minute)

	f.eng.Recover(ctx)
	f.eng.Tick()

	// 16 minutes in: start, 25% and 50% already passed and must not replay;
	// nothing new is due until 75%.
	assert.Empty(t, drain(f.alerts))

	f.clk.Advance(3 * time.Minute)
	f.eng.Tick()
	fired := drain(f.alerts)
	require.Len(t, fired, 1)
	assert.Equal(t, 75, fired[0].Point.Percent)
}

func TestRecoverNothingStored(t *testing.T) {
	f := newFixture(t, Config{})

	f.eng.Recover(context.Background())
	assert.False(t, f.eng.Snapshot().Active)
}

type listFailingStore struct {
	store.SessionStore
}

func (listFailingStore) ListActiveSessions(context.Context) ([]store.Session, error) {
	return nil, errors.New("connection refused")
}

func TestRecoverStoreFailureStartsIdle(t *testing.T) {
	ms := store.NewMemoryStore()
	f := newFixtureWithStore(t, Config{}, listFailingStore{ms}, ms)

	f.eng.Recover(context.Background())
	assert.False(t, f.eng.Snapshot().Active)
}

func TestRecoverPrefersRunningSession(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	now := f.clk.Now()
	seedSession(t, f.store, "paused-1", "math", now.Add(-time.Hour), 25*time.Minute)
	require.NoError(t, f.store.PauseSession(ctx, "paused-1", 5*time.Minute))
	// Creating the second session parks nothing else running.
	seedSession(t, f.store, "running-1", "essay", now.Add(-time.Minute), 25*time.Minute)

	f.eng.Recover(ctx)

	snap := f.eng.Snapshot()
	require.True(t, snap.Active)
	assert.Equal(t, "running-1", snap.SessionID)
	assert.False(t, snap.Paused)
}

func TestPickRecoverableLatestUpdated(t *testing.T) {
	now := time.Now()
	sessions := []store.Session{
		{ID: "a", Status: store.StatusPaused, UpdatedAt: now.Add(-time.Hour)},
		{ID: "b", Status: store.StatusPaused, UpdatedAt: now.Add(-time.Minute)},
		{ID: "c", Status: store.StatusPaused, UpdatedAt: now.Add(-30 * time.Minute)},
	}
	assert.Equal(t, "b", pickRecoverable(sessions).ID)

	sessions[2].Status = store.StatusRunning
	assert.Equal(t, "c", pickRecoverable(sessions).ID)
}

func TestReconstructClampsCorruptActual(t *testing.T) {
	now := time.Now()
	pausedAt := now.Add(-time.Minute)
	s := &store.Session{
		ID:             "sess-1",
		SubjectID:      "math",
		Kind:           store.KindSimple,
		Status:         store.StatusPaused,
		StartTime:      now.Add(-10 * time.Minute),
		PausedAt:       &pausedAt,
		TargetDuration: 25 * time.Minute,
		// Stored actual exceeds wall time since start; the derived pause
		// accounting must clamp instead of going negative.
		ActualDuration: time.Hour,
	}

	cfg := Config{}
	cfg.withDefaults()
	rt := reconstructRuntime(s, now, cfg)
	assert.Equal(t, time.Duration(0), rt.pausedAccum)
	assert.GreaterOrEqual(t, rt.elapsed(now), time.Duration(0))
}
