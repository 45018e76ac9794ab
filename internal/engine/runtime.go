package engine

import (
	"time"

	"focusService/internal/store"
)

// runtimeState is the engine's in-memory projection of the active session.
// It is mutated only while holding the engine mutex.
type runtimeState struct {
	sessionID string
	subjectID string
	kind      store.SessionKind

	// Timing for the current segment.
	start       time.Time
	pausedAt    time.Time // zero while running
	pausedAccum time.Duration

	// Active time banked from completed pomodoro segments.
	cumulativeElapsed time.Duration

	target        time.Duration
	focusDuration time.Duration // work-segment length, restored after breaks

	inBreak    bool
	cycleCount int

	schedule  []AlertPoint
	nextAlert int

	overtimeStart     time.Time // zero until remaining first hits zero
	overtimeNudged    bool
	gentleNudgePosted bool
	headsUpPosted     bool
	autoComplete      bool
	completed         bool
}

func (rt *runtimeState) isPaused() bool {
	return !rt.pausedAt.IsZero()
}

// elapsed returns the active (non-paused) time consumed in the current
// segment. Time spent paused contributes nothing.
func (rt *runtimeState) elapsed(now time.Time) time.Duration {
	effective := now
	if rt.isPaused() {
		effective = rt.pausedAt
	}
	e := effective.Sub(rt.start) - rt.pausedAccum
	if e < 0 {
		return 0
	}
	return e
}

// remaining returns the non-negative time left against the current target.
func (rt *runtimeState) remaining(now time.Time) time.Duration {
	r := rt.target - rt.elapsed(now)
	if r < 0 {
		return 0
	}
	return r
}

// totalElapsed is the session-wide active time including banked segments.
func (rt *runtimeState) totalElapsed(now time.Time) time.Duration {
	return rt.cumulativeElapsed + rt.elapsed(now)
}

// pause records the pause instant; no-op if already paused.
func (rt *runtimeState) pause(now time.Time) {
	if rt.isPaused() {
		return
	}
	rt.pausedAt = now
}

// resume credits the pause interval to pausedAccum; no-op if not paused.
func (rt *runtimeState) resume(now time.Time) {
	if !rt.isPaused() {
		return
	}
	if now.After(rt.pausedAt) {
		rt.pausedAccum += now.Sub(rt.pausedAt)
	}
	rt.pausedAt = time.Time{}
}
