package engine

import "time"

// EventKind tags an engine event.
type EventKind string

const (
	EventStarted        EventKind = "started"
	EventTick           EventKind = "tick"
	EventPaused         EventKind = "paused"
	EventResumed        EventKind = "resumed"
	EventCompleted      EventKind = "completed"
	EventExtended       EventKind = "extended"
	EventError          EventKind = "error"
	EventOvertime       EventKind = "overtime"
	EventNearTarget     EventKind = "near_target"
	EventAutoPaused     EventKind = "auto_paused"
	EventSegmentChanged EventKind = "segment_changed"
)

// Event is the tagged union published on the engine's event bus. Only the
// fields relevant to the kind are populated.
type Event struct {
	Kind      EventKind `json:"kind"`
	SessionID string    `json:"sessionId,omitempty"`
	SubjectID string    `json:"subjectId,omitempty"`

	Remaining time.Duration `json:"remaining,omitempty"`
	Overtime  time.Duration `json:"overtime,omitempty"`
	Delta     time.Duration `json:"delta,omitempty"`
	NewTarget time.Duration `json:"newTarget,omitempty"`

	InBreak    bool `json:"inBreak,omitempty"`
	CycleCount int  `json:"cycleCount,omitempty"`

	// OtherSessionID carries the id of a session the store parked on our behalf.
	OtherSessionID string `json:"otherSessionId,omitempty"`

	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// AlertEvent is an enriched alert delivery handed to the presentation layer:
// the fired point plus the gated playback decision. HeadsUp marks the one-shot
// pre-final notification signal rather than a schedule milestone.
type AlertEvent struct {
	SessionID string     `json:"sessionId"`
	Point     AlertPoint `json:"point"`
	Decision  Decision   `json:"decision"`
	HeadsUp   bool       `json:"headsUp,omitempty"`
	At        time.Time  `json:"at"`
}
