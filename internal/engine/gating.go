package engine

import (
	"time"

	"focusService/internal/prefs"
)

// SystemSoundPackID marks the pack whose final alert is delegated to a
// system-level notification instead of custom playback.
const SystemSoundPackID = "system"

// nonFinalThrottle is the window after a non-final sound within which progress
// and midpoint sounds are suppressed.
const nonFinalThrottle = 10 * time.Second

// SoundPack maps alert kinds to playable sound resources.
type SoundPack struct {
	ID     string
	Sounds map[AlertKind]string
}

// Decision is the concrete playback outcome for one fired alert point.
type Decision struct {
	PlaySound             bool   `json:"playSound"`
	PlayHaptics           bool   `json:"playHaptics"`
	SpokenText            string `json:"spokenText,omitempty"`
	SoundResource         string `json:"soundResource,omitempty"`
	UpdateThrottle        bool   `json:"-"`
	UseSystemNotification bool   `json:"useSystemNotification"`
}

// Actionable reports whether the alert manifests at all; a false result means
// the event is silently dropped.
func (d Decision) Actionable() bool {
	return d.PlaySound || d.PlayHaptics || d.SpokenText != "" || d.UseSystemNotification
}

// PhraseProvider supplies the spoken text for an alert kind. Injected so the
// engine never looks up localized strings dynamically.
type PhraseProvider interface {
	Phrase(kind AlertKind) string
}

// EnglishPhrases is the default phrase set. Progress alerts have no phrase.
type EnglishPhrases struct{}

func (EnglishPhrases) Phrase(kind AlertKind) string {
	switch kind {
	case AlertStart:
		return "Focus session started"
	case AlertMidpoint:
		return "Halfway there"
	case AlertFinal:
		return "Time is up"
	default:
		return ""
	}
}

// Decide maps user preferences, the alert kind, and the throttle state to a
// playback decision. Pure: same inputs, same decision.
//
// Rules:
//   - Spoken text only with TTS enabled, and only for kinds with a phrase.
//   - Haptics fire when enabled and reduced motion is off.
//   - Sound needs global audio. Progress and midpoint sounds additionally
//     need progress cues and are suppressed within 10 seconds of the last
//     non-final sound; start and final alerts are never suppressed.
//   - The system pack delegates final alerts to a system notification.
//   - The throttle clock advances whenever a non-final sound actually plays.
func Decide(p prefs.Snapshot, kind AlertKind, lastNonFinal, now time.Time, pack SoundPack, phrases PhraseProvider) Decision {
	var d Decision

	if p.TTSEnabled && phrases != nil {
		d.SpokenText = phrases.Phrase(kind)
	}

	d.PlayHaptics = p.HapticsEnabled && !p.ReducedMotion

	sound := p.GlobalAudioEnabled
	if sound && (kind == AlertProgress || kind == AlertMidpoint) {
		sound = p.ProgressCuesEnabled
		if sound && !lastNonFinal.IsZero() && now.Sub(lastNonFinal) < nonFinalThrottle {
			sound = false
		}
	}

	if sound && kind == AlertFinal && pack.ID == SystemSoundPackID {
		d.UseSystemNotification = true
		sound = false
	}

	if sound {
		d.PlaySound = true
		d.SoundResource = pack.Sounds[kind]
	}
	d.UpdateThrottle = d.PlaySound && kind != AlertFinal

	return d
}
