package prefs

// Snapshot is an immutable view of the user's alert and audio preferences.
// The engine consumes one snapshot per gating decision and never mutates it.
type Snapshot struct {
	GlobalAudioEnabled   bool   `json:"globalAudioEnabled"`
	ProgressCuesEnabled  bool   `json:"progressCuesEnabled"`
	HapticsEnabled       bool   `json:"hapticsEnabled"`
	ReducedMotion        bool   `json:"reducedMotion"`
	TTSEnabled           bool   `json:"ttsEnabled"`
	ToneVariationEnabled bool   `json:"toneVariationEnabled"`
	HeadsUpFinalEnabled  bool   `json:"headsUpFinalEnabled"`
	MasterVolumePercent  int    `json:"masterVolumePercent"`
	SoundPackID          string `json:"soundPackId"`
}

// Defaults returns the preference values used when nothing is stored yet.
func Defaults() Snapshot {
	return Snapshot{
		GlobalAudioEnabled:  true,
		ProgressCuesEnabled: true,
		HapticsEnabled:      true,
		HeadsUpFinalEnabled: true,
		MasterVolumePercent: 80,
		SoundPackID:         "classic",
	}
}

// Source provides the engine with the latest known preferences snapshot.
type Source interface {
	Current() Snapshot
}

// Static is a Source that always returns the same snapshot.
type Static struct {
	Snapshot Snapshot
}

func (s Static) Current() Snapshot {
	return s.Snapshot
}
