package prefs

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T) (*Watcher, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	w, err := NewWatcher(client, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(w.Close)
	return w, client
}

func TestWatcherDefaultsWhenEmpty(t *testing.T) {
	w, _ := newTestWatcher(t)
	assert.Equal(t, Defaults(), w.Current())
}

func TestWatcherSaveRoundTrip(t *testing.T) {
	w, _ := newTestWatcher(t)
	ctx := context.Background()

	snap := Defaults()
	snap.GlobalAudioEnabled = false
	snap.TTSEnabled = true
	snap.MasterVolumePercent = 55
	snap.SoundPackID = "system"
	require.NoError(t, w.Save(ctx, snap))

	got := w.Current()
	assert.False(t, got.GlobalAudioEnabled)
	assert.True(t, got.TTSEnabled)
	assert.Equal(t, 55, got.MasterVolumePercent)
	assert.Equal(t, "system", got.SoundPackID)
}

func TestWatcherSaveClampsVolumeAndPack(t *testing.T) {
	w, _ := newTestWatcher(t)
	ctx := context.Background()

	snap := Defaults()
	snap.MasterVolumePercent = 250
	snap.SoundPackID = ""
	require.NoError(t, w.Save(ctx, snap))

	got := w.Current()
	assert.Equal(t, 100, got.MasterVolumePercent)
	assert.Equal(t, "classic", got.SoundPackID)

	snap.MasterVolumePercent = -10
	require.NoError(t, w.Save(ctx, snap))
	assert.Equal(t, 0, w.Current().MasterVolumePercent)
}

func TestWatcherLoadsStoredValues(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	ctx := context.Background()

	// Values written by another process, including Redis-style "1" booleans.
	require.NoError(t, client.HSet(ctx, prefsKey, map[string]interface{}{
		"globalAudioEnabled":  "1",
		"reducedMotion":       "true",
		"hapticsEnabled":      "0",
		"masterVolumePercent": "30",
		"soundPackId":         "system",
	}).Err())

	w, err := NewWatcher(client, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(w.Close)

	got := w.Current()
	assert.True(t, got.GlobalAudioEnabled)
	assert.True(t, got.ReducedMotion)
	assert.False(t, got.HapticsEnabled)
	assert.Equal(t, 30, got.MasterVolumePercent)
	assert.Equal(t, "system", got.SoundPackID)
	// Absent fields keep their defaults.
	assert.True(t, got.ProgressCuesEnabled)
}

func TestWatcherIgnoresGarbageVolume(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	ctx := context.Background()

	require.NoError(t, client.HSet(ctx, prefsKey, map[string]interface{}{
		"masterVolumePercent": "loud",
	}).Err())

	w, err := NewWatcher(client, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(w.Close)

	assert.Equal(t, Defaults().MasterVolumePercent, w.Current().MasterVolumePercent)
}

func TestStaticSource(t *testing.T) {
	snap := Defaults()
	snap.TTSEnabled = true
	src := Static{Snapshot: snap}
	assert.Equal(t, snap, src.Current())
}
