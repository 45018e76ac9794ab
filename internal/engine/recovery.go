package engine

import (
	"context"
	"time"

	"focusService/internal/store"
)

// Recover inspects the session store for a session left running or paused by
// a previous process and reconstructs its runtime state without losing or
// double-counting elapsed time. On any failure the engine simply starts idle;
// recovery never brings the host process down.
func (e *Engine) Recover(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	active, err := e.store.ListActiveSessions(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("recovery failed, starting idle")
		return
	}
	if len(active) == 0 {
		e.log.Debug().Msg("no session to recover")
		return
	}

	s := pickRecoverable(active)
	if len(active) > 1 {
		e.log.Warn().Int("count", len(active)).Str("chosen", s.ID).
			Msg("multiple active sessions found, recovering one")
	}

	rt := reconstructRuntime(s, now, e.cfg)
	rt.nextAlert = nextPointAfter(rt.schedule, rt.elapsed(now))
	e.rt = rt
	e.startTickLoopLocked()

	e.log.Info().Str("session", s.ID).Str("subject", s.SubjectID).
		Bool("paused", rt.isPaused()).Dur("elapsed", rt.elapsed(now)).
		Dur("remaining", rt.remaining(now)).Msg("recovered session")
}

// pickRecoverable prefers a running session over paused ones, then the most
// recently updated.
func pickRecoverable(active []store.Session) *store.Session {
	best := &active[0]
	for i := 1; i < len(active); i++ {
		s := &active[i]
		bestRunning := best.Status == store.StatusRunning
		if s.Status == store.StatusRunning && !bestRunning {
			best = s
			continue
		}
		if (s.Status == store.StatusRunning) == bestRunning && s.UpdatedAt.After(best.UpdatedAt) {
			best = s
		}
	}
	return best
}

// reconstructRuntime rebuilds a runtime projection from a persisted session.
// Pause accounting is re-derived from the stored actual duration so elapsed
// time stays continuous across restarts: while paused, elapsed equals the
// stored actual; while running, it continues in wall clock from the last
// transition to running.
func reconstructRuntime(s *store.Session, now time.Time, cfg Config) *runtimeState {
	rt := &runtimeState{
		sessionID:     s.ID,
		subjectID:     s.SubjectID,
		kind:          s.Kind,
		start:         s.StartTime,
		target:        s.TargetDuration,
		focusDuration: s.TargetDuration,
		autoComplete:  cfg.AutoCompleteOnTarget,
		schedule:      BuildSchedule(s.TargetDuration, cfg.AlertPercents),
	}

	var anchor time.Time
	switch {
	case s.Status == store.StatusPaused && s.PausedAt != nil:
		rt.pausedAt = *s.PausedAt
		anchor = *s.PausedAt
	case !s.ResumedAt.IsZero():
		anchor = s.ResumedAt
	default:
		anchor = now
	}

	accum := anchor.Sub(s.StartTime) - s.ActualDuration
	if accum < 0 {
		accum = 0
	}
	rt.pausedAccum = accum
	return rt
}
