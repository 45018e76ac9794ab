package prefs

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	prefsKey    = "userPreferences"
	prefsChan   = "userPreferences:updated"
	maxVolume   = 100
	defaultPack = "classic"
)

// Watcher keeps a live preferences snapshot backed by a Redis hash. A pub/sub
// subscription on prefsChan triggers reloads; Current never touches Redis.
type Watcher struct {
	client *redis.Client
	log    zerolog.Logger

	mu      sync.RWMutex
	current Snapshot

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher loads the stored preferences and starts watching for updates.
func NewWatcher(client *redis.Client, log zerolog.Logger) (*Watcher, error) {
	w := &Watcher{
		client:  client,
		log:     log.With().Str("component", "prefs").Logger(),
		current: Defaults(),
		done:    make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	snap, err := w.load(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	w.current = snap

	sub := client.Subscribe(ctx, prefsChan)
	go w.watch(ctx, sub)

	return w, nil
}

// Current returns the latest known snapshot.
func (w *Watcher) Current() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Save persists a snapshot and notifies other watchers.
func (w *Watcher) Save(ctx context.Context, snap Snapshot) error {
	if snap.MasterVolumePercent < 0 {
		snap.MasterVolumePercent = 0
	} else if snap.MasterVolumePercent > maxVolume {
		snap.MasterVolumePercent = maxVolume
	}
	if snap.SoundPackID == "" {
		snap.SoundPackID = defaultPack
	}

	err := w.client.HSet(ctx, prefsKey, map[string]interface{}{
		"globalAudioEnabled":   snap.GlobalAudioEnabled,
		"progressCuesEnabled":  snap.ProgressCuesEnabled,
		"hapticsEnabled":       snap.HapticsEnabled,
		"reducedMotion":        snap.ReducedMotion,
		"ttsEnabled":           snap.TTSEnabled,
		"toneVariationEnabled": snap.ToneVariationEnabled,
		"headsUpFinalEnabled":  snap.HeadsUpFinalEnabled,
		"masterVolumePercent":  snap.MasterVolumePercent,
		"soundPackId":          snap.SoundPackID,
	}).Err()
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}

	w.mu.Lock()
	w.current = snap
	w.mu.Unlock()

	if err := w.client.Publish(ctx, prefsChan, "updated").Err(); err != nil {
		w.log.Warn().Err(err).Msg("failed to publish preferences update")
	}
	return nil
}

// Close stops the watch goroutine.
func (w *Watcher) Close() {
	w.cancel()
	<-w.done
}

func (w *Watcher) watch(ctx context.Context, sub *redis.PubSub) {
	defer close(w.done)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			snap, err := w.load(ctx)
			if err != nil {
				w.log.Warn().Err(err).Msg("failed to reload preferences")
				continue
			}
			w.mu.Lock()
			w.current = snap
			w.mu.Unlock()
			w.log.Debug().Str("soundPack", snap.SoundPackID).Msg("preferences reloaded")
		}
	}
}

func (w *Watcher) load(ctx context.Context) (Snapshot, error) {
	result, err := w.client.HGetAll(ctx, prefsKey).Result()
	if err != nil {
		return Snapshot{}, err
	}
	if len(result) == 0 {
		return Defaults(), nil
	}

	snap := Defaults()
	parseBool := func(field string, dst *bool) {
		if v, ok := result[field]; ok {
			*dst = v == "1" || v == "true"
		}
	}
	parseBool("globalAudioEnabled", &snap.GlobalAudioEnabled)
	parseBool("progressCuesEnabled", &snap.ProgressCuesEnabled)
	parseBool("hapticsEnabled", &snap.HapticsEnabled)
	parseBool("reducedMotion", &snap.ReducedMotion)
	parseBool("ttsEnabled", &snap.TTSEnabled)
	parseBool("toneVariationEnabled", &snap.ToneVariationEnabled)
	parseBool("headsUpFinalEnabled", &snap.HeadsUpFinalEnabled)

	if v, ok := result["masterVolumePercent"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= maxVolume {
			snap.MasterVolumePercent = n
		}
	}
	if v, ok := result["soundPackId"]; ok && v != "" {
		snap.SoundPackID = v
	}

	return snap, nil
}
