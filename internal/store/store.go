package store

import (
	"context"
	"errors"
	"time"
)

// SessionKind distinguishes plain countdown sessions from pomodoro ones.
type SessionKind string

const (
	KindSimple   SessionKind = "simple"
	KindPomodoro SessionKind = "pomodoro"
)

// SessionStatus is the persisted lifecycle state of a session.
type SessionStatus string

const (
	StatusRunning   SessionStatus = "running"
	StatusPaused    SessionStatus = "paused"
	StatusCompleted SessionStatus = "completed"
	StatusDiscarded SessionStatus = "discarded"
)

var (
	ErrNotFound = errors.New("session not found")
)

// Session is the persisted record of a timer session. ActualDuration holds the
// active (non-paused) time accrued so far; it is written on pause and on
// completion so a restarted process can rebuild pause accounting from it.
type Session struct {
	ID             string        `json:"id"`
	SubjectID      string        `json:"subjectId"`
	Kind           SessionKind   `json:"kind"`
	Status         SessionStatus `json:"status"`
	StartTime      time.Time     `json:"startTime"`
	PausedAt       *time.Time    `json:"pausedAt,omitempty"`
	TargetDuration time.Duration `json:"targetDuration"`
	ActualDuration time.Duration `json:"actualDuration"`
	// ResumedAt is the instant the session last transitioned to running; used
	// to credit active time when the store parks it on behalf of another start.
	ResumedAt time.Time `json:"resumedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsActive reports whether the session still owns timer state.
func (s *Session) IsActive() bool {
	return s.Status == StatusRunning || s.Status == StatusPaused
}

// SessionStore persists timer sessions. Implementations enforce the
// single-active-timer rule: creating a new session pauses every other running
// one, and resuming a session pauses the rest. The engine only observes the
// effect by diffing ListActiveSessions before and after a call.
type SessionStore interface {
	// CreateSession stores a new running session, parking other running sessions.
	CreateSession(ctx context.Context, s *Session) error
	// PauseSession marks a session paused, recording pausedAt and the active
	// time accrued so far.
	PauseSession(ctx context.Context, id string, accrued time.Duration) error
	// ResumeSession marks a session running again, parking other running sessions.
	ResumeSession(ctx context.Context, id string) error
	// CompleteSession finalizes a session with its total active duration.
	CompleteSession(ctx context.Context, id string, actual time.Duration) error
	// DiscardSession marks a session discarded.
	DiscardSession(ctx context.Context, id string) error
	// UpdateTarget persists a changed target duration.
	UpdateTarget(ctx context.Context, id string, target time.Duration) error
	// ListActiveSessions returns sessions with running or paused status.
	ListActiveSessions(ctx context.Context) ([]Session, error)
	// GetSessionByID returns a session or ErrNotFound.
	GetSessionByID(ctx context.Context, id string) (*Session, error)
	// GetEstimatedDuration returns the stored duration estimate for a subject,
	// or ok=false when none is stored.
	GetEstimatedDuration(ctx context.Context, subjectID string) (time.Duration, bool, error)
}
