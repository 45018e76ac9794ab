package engine

import "time"

// debounceWindow is how long an identical user action is considered a
// duplicate of the previous one.
const debounceWindow = 500 * time.Millisecond

// actionDebouncer drops duplicate user-triggered actions arriving within a
// short window. Only actions with non-idempotent side effects are registered;
// target adjustments and ticks bypass it.
type actionDebouncer struct {
	window   time.Duration
	lastKind string
	lastAt   time.Time
}

func newActionDebouncer() *actionDebouncer {
	return &actionDebouncer{window: debounceWindow}
}

// allow reports whether the action may proceed and records it if so. A
// different action kind always resets the window.
func (d *actionDebouncer) allow(kind string, now time.Time) bool {
	if kind == d.lastKind && !d.lastAt.IsZero() && now.Sub(d.lastAt) < d.window {
		return false
	}
	d.lastKind = kind
	d.lastAt = now
	return true
}

// reset clears the debounce history (used when the active session changes).
func (d *actionDebouncer) reset() {
	d.lastKind = ""
	d.lastAt = time.Time{}
}
