// Package engine owns the lifecycle of the active focus timer session: state
// transitions, time arithmetic under pause and extension, alert scheduling and
// gating, pomodoro segmentation, and recovery after a process restart.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"focusService/internal/analytics"
	"focusService/internal/prefs"
	"focusService/internal/store"
)

var (
	ErrNoActiveSession = errors.New("no active session")
	ErrInvalidDuration = errors.New("invalid session duration")
	ErrNotResumable    = errors.New("session is not resumable")
)

// Config carries the engine's tunables. Zero values fall back to defaults.
type Config struct {
	DefaultFocusDuration time.Duration // target when neither caller nor estimate provides one
	BreakDuration        time.Duration // pomodoro break segment length
	MinTarget            time.Duration // floor for SubtractMinute
	MaxTarget            time.Duration // ceiling for explicit start durations
	ExtendStep           time.Duration
	MinuteStep           time.Duration
	TickInterval         time.Duration
	AlertPercents        []int
	AutoCompleteOnTarget bool
	GentleNudgeWindow    time.Duration // NearTarget one-shot window before the target
	HeadsUpWindow        time.Duration // heads-up one-shot window before the target
	OvertimeNudgeAfter   time.Duration // overtime before the one-shot Overtime event
	EventBuffer          int
	SoundPacks           map[string]SoundPack
	Phrases              PhraseProvider
}

func (c *Config) withDefaults() {
	if c.DefaultFocusDuration <= 0 {
		c.DefaultFocusDuration = 25 * time.Minute
	}
	if c.BreakDuration <= 0 {
		c.BreakDuration = 5 * time.Minute
	}
	if c.MinTarget <= 0 {
		c.MinTarget = time.Minute
	}
	if c.MaxTarget <= 0 {
		c.MaxTarget = 4 * time.Hour
	}
	if c.ExtendStep <= 0 {
		c.ExtendStep = 5 * time.Minute
	}
	if c.MinuteStep <= 0 {
		c.MinuteStep = time.Minute
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if len(c.AlertPercents) == 0 {
		c.AlertPercents = []int{0, 25, 50, 75, 100}
	}
	if c.GentleNudgeWindow <= 0 {
		c.GentleNudgeWindow = 2 * time.Minute
	}
	if c.HeadsUpWindow <= 0 {
		c.HeadsUpWindow = 10 * time.Second
	}
	if c.OvertimeNudgeAfter <= 0 {
		c.OvertimeNudgeAfter = time.Minute
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 64
	}
	if c.SoundPacks == nil {
		c.SoundPacks = DefaultSoundPacks()
	}
	if c.Phrases == nil {
		c.Phrases = EnglishPhrases{}
	}
}

// DefaultSoundPacks returns the built-in sound packs.
func DefaultSoundPacks() map[string]SoundPack {
	return map[string]SoundPack{
		"classic": {
			ID: "classic",
			Sounds: map[AlertKind]string{
				AlertStart:    "classic/start",
				AlertProgress: "classic/progress",
				AlertMidpoint: "classic/midpoint",
				AlertFinal:    "classic/final",
			},
		},
		SystemSoundPackID: {
			ID: SystemSoundPackID,
			Sounds: map[AlertKind]string{
				AlertStart:    "system/chime",
				AlertProgress: "system/chime",
				AlertMidpoint: "system/chime",
			},
		},
	}
}

// Engine is the stateful timer core. All action handlers and the tick path are
// serialized on one mutex so runtime-state mutation never races; the 1-second
// tick loop and awaited store calls are the only suspension points.
type Engine struct {
	mu sync.Mutex

	cfg   Config
	store store.SessionStore
	prefs prefs.Source
	sink  analytics.Sink
	log   zerolog.Logger
	now   func() time.Time

	events *Bus[Event]
	alerts *Bus[AlertEvent]

	rt                *runtimeState
	deb               *actionDebouncer
	lastNonFinalSound time.Time

	tickCancel context.CancelFunc
	tickDone   chan struct{}

	trackCh     chan trackedCall
	trackDone   chan struct{}
	trackClosed bool
}

// trackedCall is one queued analytics notification.
type trackedCall struct {
	event  string
	fields map[string]interface{}
}

// Option customizes engine construction.
type Option func(*Engine)

// WithClock replaces the engine's time source (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New wires an engine with its collaborators. Each engine owns its own event
// and alert buses; subscribers attach via Events and Alerts.
func New(cfg Config, st store.SessionStore, prefSrc prefs.Source, sink analytics.Sink, log zerolog.Logger, opts ...Option) *Engine {
	cfg.withDefaults()
	e := &Engine{
		cfg:    cfg,
		store:  st,
		prefs:  prefSrc,
		sink:   sink,
		log:    log.With().Str("component", "engine").Logger(),
		now:    time.Now,
		events: NewBus[Event](cfg.EventBuffer),
		alerts: NewBus[AlertEvent](cfg.EventBuffer),
		deb:    newActionDebouncer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sink != nil {
		e.trackCh = make(chan trackedCall, cfg.EventBuffer)
		e.trackDone = make(chan struct{})
		go e.runTracker()
	}
	return e
}

// Events subscribes to the engine's event stream.
func (e *Engine) Events() (<-chan Event, func()) {
	return e.events.Subscribe()
}

// Alerts subscribes to the engine's alert-delivery stream.
func (e *Engine) Alerts() (<-chan AlertEvent, func()) {
	return e.alerts.Subscribe()
}

// Start opens a timer session for a subject. Starting the subject that is
// already running is a no-op. The target duration resolves explicit duration,
// then the subject's stored estimate, then the default. The store parks other
// running sessions; the engine reports the diff as AutoPaused events.
func (e *Engine) Start(ctx context.Context, subjectID string, kind store.SessionKind, duration time.Duration) error {
	if duration != 0 && (duration < e.cfg.MinTarget || duration > e.cfg.MaxTarget) {
		return fmt.Errorf("%w: %v", ErrInvalidDuration, duration)
	}
	if kind != store.KindSimple && kind != store.KindPomodoro {
		return fmt.Errorf("invalid session kind %q", kind)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if e.rt != nil && e.rt.subjectID == subjectID && !e.rt.isPaused() && !e.rt.completed {
		e.log.Debug().Str("subject", subjectID).Msg("start ignored, subject already running")
		return nil
	}
	if !e.deb.allow("start", now) {
		return nil
	}

	before, err := e.store.ListActiveSessions(ctx)
	if err != nil {
		e.emitError(subjectID, "failed to list active sessions", err)
		before = nil
	}

	target := duration
	if target == 0 {
		if est, ok, err := e.store.GetEstimatedDuration(ctx, subjectID); err != nil {
			e.emitError(subjectID, "failed to load duration estimate", err)
			target = e.cfg.DefaultFocusDuration
		} else if ok {
			target = est
		} else {
			target = e.cfg.DefaultFocusDuration
		}
	}

	s := &store.Session{
		ID:             uuid.NewString(),
		SubjectID:      subjectID,
		Kind:           kind,
		StartTime:      now,
		TargetDuration: target,
	}
	if err := e.store.CreateSession(ctx, s); err != nil {
		e.emitError(subjectID, "failed to create session", err)
		return fmt.Errorf("create session: %w", err)
	}

	e.stopTickLoopLocked()
	e.rt = &runtimeState{
		sessionID:     s.ID,
		subjectID:     subjectID,
		kind:          kind,
		start:         now,
		target:        target,
		focusDuration: target,
		autoComplete:  e.cfg.AutoCompleteOnTarget,
		schedule:      BuildSchedule(target, e.cfg.AlertPercents),
	}
	e.startTickLoopLocked()

	after, err := e.store.ListActiveSessions(ctx)
	if err != nil {
		e.emitError(subjectID, "failed to list active sessions", err)
	} else {
		e.reportParked(before, after, s.ID, now)
	}

	e.log.Info().Str("session", s.ID).Str("subject", subjectID).
		Str("kind", string(kind)).Dur("target", target).Msg("session started")
	e.emit(Event{Kind: EventStarted, SessionID: s.ID, SubjectID: subjectID, Remaining: target, At: now})
	e.track("timer_start", map[string]interface{}{
		"sessionId": s.ID, "subjectId": subjectID, "targetMs": target.Milliseconds(),
	})
	return nil
}

// Pause suspends the active session. The in-memory pause always takes effect;
// a store failure is reported but does not block UI responsiveness.
func (e *Engine) Pause(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rt == nil {
		return ErrNoActiveSession
	}
	now := e.now()
	if !e.deb.allow("pause", now) {
		return nil
	}
	if e.rt.isPaused() {
		return nil
	}

	e.rt.pause(now)
	accrued := e.rt.totalElapsed(now)
	if err := e.store.PauseSession(ctx, e.rt.sessionID, accrued); err != nil {
		e.emitError(e.rt.subjectID, "failed to persist pause", err)
	}

	e.emit(Event{Kind: EventPaused, SessionID: e.rt.sessionID, SubjectID: e.rt.subjectID, Remaining: e.rt.remaining(now), At: now})
	e.track("timer_pause", map[string]interface{}{
		"sessionId": e.rt.sessionID, "subjectId": e.rt.subjectID, "elapsedMs": accrued.Milliseconds(),
	})
	return nil
}

// Resume continues the active session after a pause.
func (e *Engine) Resume(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rt == nil {
		return ErrNoActiveSession
	}
	now := e.now()
	if !e.deb.allow("resume", now) {
		return nil
	}
	if !e.rt.isPaused() {
		return nil
	}

	e.rt.resume(now)
	if err := e.store.ResumeSession(ctx, e.rt.sessionID); err != nil {
		e.emitError(e.rt.subjectID, "failed to persist resume", err)
	}

	e.emit(Event{Kind: EventResumed, SessionID: e.rt.sessionID, SubjectID: e.rt.subjectID, Remaining: e.rt.remaining(now), At: now})
	e.track("timer_resume", map[string]interface{}{
		"sessionId": e.rt.sessionID, "subjectId": e.rt.subjectID,
	})
	return nil
}

// SwitchTo is a context switch: it abandons the current runtime, loads a
// previously parked session from the store, re-derives its pause accounting
// from the persisted actual duration, and resumes ticking under its identity.
func (e *Engine) SwitchTo(ctx context.Context, sessionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if !e.deb.allow("resume", now) {
		return nil
	}

	s, err := e.store.GetSessionByID(ctx, sessionID)
	if err != nil {
		e.emitError("", "failed to load session", err)
		return fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if !s.IsActive() {
		return fmt.Errorf("%w: %s has status %s", ErrNotResumable, sessionID, s.Status)
	}

	e.stopTickLoopLocked()
	if err := e.store.ResumeSession(ctx, sessionID); err != nil {
		e.emitError(s.SubjectID, "failed to persist resume", err)
	}

	rt := reconstructRuntime(s, now, e.cfg)
	rt.resume(now)
	rt.nextAlert = nextPointAfter(rt.schedule, rt.elapsed(now))
	e.rt = rt
	e.deb.reset()
	e.startTickLoopLocked()

	e.log.Info().Str("session", sessionID).Str("subject", s.SubjectID).Msg("switched to session")
	e.emit(Event{Kind: EventResumed, SessionID: sessionID, SubjectID: s.SubjectID, Remaining: rt.remaining(now), At: now})
	e.track("timer_resume", map[string]interface{}{
		"sessionId": sessionID, "subjectId": s.SubjectID, "switch": true,
	})
	return nil
}

// Extend adds the extend step (default 5 minutes) to the target.
func (e *Engine) Extend(ctx context.Context) error {
	return e.adjustTarget(ctx, e.cfg.ExtendStep, "timer_extend")
}

// AddMinute adds one minute to the target.
func (e *Engine) AddMinute(ctx context.Context) error {
	return e.adjustTarget(ctx, e.cfg.MinuteStep, "timer_add_minute")
}

// SubtractMinute removes one minute from the target, flooring at the minimum.
func (e *Engine) SubtractMinute(ctx context.Context) error {
	return e.adjustTarget(ctx, -e.cfg.MinuteStep, "timer_sub_minute")
}

func (e *Engine) adjustTarget(ctx context.Context, delta time.Duration, analyticsEvent string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rt == nil {
		return ErrNoActiveSession
	}
	now := e.now()

	newTarget := e.rt.target + delta
	if newTarget < e.cfg.MinTarget {
		newTarget = e.cfg.MinTarget
	}
	applied := newTarget - e.rt.target
	if applied == 0 {
		return nil
	}

	e.rt.target = newTarget
	e.rt.schedule = BuildSchedule(newTarget, e.cfg.AlertPercents)
	e.rt.nextAlert = nextPointAfter(e.rt.schedule, e.rt.elapsed(now))
	// The endgame one-shots re-arm for the adjusted duration.
	e.rt.gentleNudgePosted = false
	e.rt.headsUpPosted = false
	if e.rt.remaining(now) > 0 {
		e.rt.overtimeStart = time.Time{}
	}

	if err := e.store.UpdateTarget(ctx, e.rt.sessionID, newTarget); err != nil {
		e.emitError(e.rt.subjectID, "failed to persist target change", err)
	}

	e.emit(Event{Kind: EventExtended, SessionID: e.rt.sessionID, SubjectID: e.rt.subjectID, Delta: applied, NewTarget: newTarget, At: now})
	e.track(analyticsEvent, map[string]interface{}{
		"sessionId": e.rt.sessionID, "subjectId": e.rt.subjectID,
		"deltaMs": applied.Milliseconds(), "newTargetMs": newTarget.Milliseconds(),
	})
	return nil
}

// Complete finalizes the active session with its total active duration and
// tears down the tick loop.
func (e *Engine) Complete(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rt == nil {
		return ErrNoActiveSession
	}
	now := e.now()
	if !e.deb.allow("complete", now) {
		return nil
	}
	e.completeLocked(ctx, now, false)
	return nil
}

func (e *Engine) completeLocked(ctx context.Context, now time.Time, auto bool) {
	rt := e.rt
	total := rt.totalElapsed(now)
	rt.completed = true

	if err := e.store.CompleteSession(ctx, rt.sessionID, total); err != nil {
		e.emitError(rt.subjectID, "failed to persist completion", err)
	}

	e.log.Info().Str("session", rt.sessionID).Dur("actual", total).Bool("auto", auto).Msg("session completed")
	e.emit(Event{Kind: EventCompleted, SessionID: rt.sessionID, SubjectID: rt.subjectID, At: now})

	event := "timer_done"
	if auto {
		event = "timer_auto_complete"
	}
	e.track(event, map[string]interface{}{
		"sessionId": rt.sessionID, "subjectId": rt.subjectID, "actualMs": total.Milliseconds(),
	})

	e.stopTickLoopLocked()
	e.rt = nil
}

// Discard tears down the tick loop and clears runtime state. A session that
// was never completed is persisted as discarded and reported to analytics.
func (e *Engine) Discard(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rt == nil {
		return ErrNoActiveSession
	}
	now := e.now()
	if !e.deb.allow("discard", now) {
		return nil
	}

	rt := e.rt
	e.stopTickLoopLocked()
	e.rt = nil

	if !rt.completed {
		if err := e.store.DiscardSession(ctx, rt.sessionID); err != nil {
			e.emitError(rt.subjectID, "failed to persist discard", err)
		}
		e.track("timer_discard", map[string]interface{}{
			"sessionId": rt.sessionID, "subjectId": rt.subjectID,
			"elapsedMs": rt.totalElapsed(now).Milliseconds(),
		})
	}
	e.log.Info().Str("session", rt.sessionID).Bool("completed", rt.completed).Msg("session cleared")
	return nil
}

// Shutdown stops the tick loop, drains the analytics queue, and closes the
// buses. Pending store calls are left to complete or fail on their own.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	e.stopTickLoopLocked()
	done := e.tickDone
	e.rt = nil
	var trackDone chan struct{}
	if e.trackCh != nil && !e.trackClosed {
		e.trackClosed = true
		close(e.trackCh)
		trackDone = e.trackDone
	}
	e.mu.Unlock()

	if done != nil {
		<-done
	}
	if trackDone != nil {
		<-trackDone
	}
	e.events.Close()
	e.alerts.Close()
}

// StateSnapshot is a point-in-time view of the engine for read endpoints.
type StateSnapshot struct {
	Active     bool              `json:"active"`
	SessionID  string            `json:"sessionId,omitempty"`
	SubjectID  string            `json:"subjectId,omitempty"`
	Kind       store.SessionKind `json:"kind,omitempty"`
	Paused     bool              `json:"paused"`
	InBreak    bool              `json:"inBreak"`
	CycleCount int               `json:"cycleCount"`
	Elapsed    time.Duration     `json:"elapsed"`
	Remaining  time.Duration     `json:"remaining"`
	Target     time.Duration     `json:"target"`
	EndTime    time.Time         `json:"endTime"`
	ServerTime time.Time         `json:"serverTime"`
}

// Snapshot returns the current engine state.
func (e *Engine) Snapshot() StateSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	snap := StateSnapshot{ServerTime: now}
	if e.rt == nil {
		return snap
	}
	snap.Active = true
	snap.SessionID = e.rt.sessionID
	snap.SubjectID = e.rt.subjectID
	snap.Kind = e.rt.kind
	snap.Paused = e.rt.isPaused()
	snap.InBreak = e.rt.inBreak
	snap.CycleCount = e.rt.cycleCount
	snap.Elapsed = e.rt.elapsed(now)
	snap.Remaining = e.rt.remaining(now)
	snap.Target = e.rt.target
	snap.EndTime = now.Add(snap.Remaining)
	return snap
}

// Tick runs one tick evaluation at the current time. The tick loop calls this
// once per interval; tests call it directly with a controlled clock.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tick(e.now())
}

// tick recomputes remaining time, fires due alerts, and evaluates the
// near-target, auto-complete, overtime, and pomodoro-segment conditions.
// Caller holds the mutex.
func (e *Engine) tick(now time.Time) {
	rt := e.rt
	if rt == nil {
		return
	}

	remaining := rt.remaining(now)
	e.emit(Event{Kind: EventTick, SessionID: rt.sessionID, SubjectID: rt.subjectID, Remaining: remaining, At: now})

	if !rt.isPaused() {
		elapsed := rt.elapsed(now)
		for rt.nextAlert < len(rt.schedule) && rt.schedule[rt.nextAlert].Trigger <= elapsed {
			pt := rt.schedule[rt.nextAlert]
			rt.nextAlert++
			e.fireAlert(rt, pt, now)
		}
	}

	if rt.autoComplete && !rt.gentleNudgePosted && remaining > 0 && remaining <= e.cfg.GentleNudgeWindow {
		rt.gentleNudgePosted = true
		e.emit(Event{Kind: EventNearTarget, SessionID: rt.sessionID, SubjectID: rt.subjectID, Remaining: remaining, At: now})
	}

	if remaining == 0 && !rt.isPaused() {
		if rt.kind == store.KindPomodoro {
			e.advanceSegment(now)
			return
		}
		if rt.autoComplete {
			e.completeLocked(context.Background(), now, true)
			return
		}
		if rt.overtimeStart.IsZero() {
			rt.overtimeStart = now
		}
		if overtime := now.Sub(rt.overtimeStart); !rt.overtimeNudged && overtime >= e.cfg.OvertimeNudgeAfter {
			rt.overtimeNudged = true
			e.emit(Event{Kind: EventOvertime, SessionID: rt.sessionID, SubjectID: rt.subjectID, Overtime: overtime, At: now})
		}
	}

	if !rt.headsUpPosted && remaining > 0 && remaining <= e.cfg.HeadsUpWindow &&
		!rt.isPaused() && e.prefs.Current().HeadsUpFinalEnabled {
		rt.headsUpPosted = true
		e.alerts.Publish(AlertEvent{
			SessionID: rt.sessionID,
			Point:     AlertPoint{Percent: 100, Trigger: rt.target, Kind: AlertFinal},
			Decision:  Decision{UseSystemNotification: true},
			HeadsUp:   true,
			At:        now,
		})
	}
}

// advanceSegment banks the finished segment's active time and rolls the
// runtime into the next focus or break segment.
func (e *Engine) advanceSegment(now time.Time) {
	rt := e.rt
	rt.cumulativeElapsed += rt.elapsed(now)

	leavingFocus := !rt.inBreak
	rt.inBreak = !rt.inBreak
	if leavingFocus {
		rt.cycleCount++
	}

	rt.start = now
	rt.pausedAt = time.Time{}
	rt.pausedAccum = 0
	if rt.inBreak {
		rt.target = e.cfg.BreakDuration
	} else {
		rt.target = rt.focusDuration
	}
	rt.schedule = BuildSchedule(rt.target, e.cfg.AlertPercents)
	rt.nextAlert = 0
	rt.gentleNudgePosted = false
	rt.headsUpPosted = false
	rt.overtimeStart = time.Time{}

	e.log.Info().Str("session", rt.sessionID).Bool("inBreak", rt.inBreak).
		Int("cycle", rt.cycleCount).Dur("target", rt.target).Msg("segment advanced")
	e.emit(Event{Kind: EventSegmentChanged, SessionID: rt.sessionID, SubjectID: rt.subjectID,
		InBreak: rt.inBreak, CycleCount: rt.cycleCount, At: now})
}

// fireAlert gates a due alert point against the live preferences snapshot and
// publishes the enriched delivery. Decisions with nothing to do are dropped.
func (e *Engine) fireAlert(rt *runtimeState, pt AlertPoint, now time.Time) {
	p := e.prefs.Current()
	pack, ok := e.cfg.SoundPacks[p.SoundPackID]
	if !ok {
		pack = e.cfg.SoundPacks["classic"]
	}

	d := Decide(p, pt.Kind, e.lastNonFinalSound, now, pack, e.cfg.Phrases)
	if d.UpdateThrottle {
		e.lastNonFinalSound = now
	}
	if !d.Actionable() {
		return
	}
	e.alerts.Publish(AlertEvent{SessionID: rt.sessionID, Point: pt, Decision: d, At: now})
}

func (e *Engine) reportParked(before, after []store.Session, newID string, now time.Time) {
	stillRunning := make(map[string]bool, len(after))
	for _, s := range after {
		if s.Status == store.StatusRunning {
			stillRunning[s.ID] = true
		}
	}
	for _, s := range before {
		if s.ID == newID || s.Status != store.StatusRunning {
			continue
		}
		if !stillRunning[s.ID] {
			e.emit(Event{Kind: EventAutoPaused, SessionID: newID, OtherSessionID: s.ID, At: now})
		}
	}
}

func (e *Engine) startTickLoopLocked() {
	e.stopTickLoopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.tickCancel = cancel
	e.tickDone = done

	interval := e.cfg.TickInterval
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.Tick()
			}
		}
	}()
}

func (e *Engine) stopTickLoopLocked() {
	if e.tickCancel != nil {
		e.tickCancel()
		e.tickCancel = nil
	}
}

func (e *Engine) emit(ev Event) {
	e.events.Publish(ev)
}

func (e *Engine) emitError(subjectID, msg string, err error) {
	e.log.Error().Err(err).Str("subject", subjectID).Msg(msg)
	e.events.Publish(Event{
		Kind:      EventError,
		SubjectID: subjectID,
		Message:   fmt.Sprintf("%s: %v", msg, err),
		At:        e.now(),
	})
}

// track queues a best-effort analytics notification for the tracker worker.
// The send never blocks: when the queue is full the notification is dropped,
// so a slow sink cannot stall actions or the tick path. Called with the engine
// mutex held.
func (e *Engine) track(event string, fields map[string]interface{}) {
	if e.trackCh == nil || e.trackClosed {
		return
	}
	select {
	case e.trackCh <- trackedCall{event: event, fields: fields}:
	default:
		e.log.Debug().Str("event", event).Msg("analytics queue full, notification dropped")
	}
}

// runTracker drains queued notifications into the sink, off the engine mutex.
// Sink failures are swallowed; a panicking sink never unwinds engine state.
func (e *Engine) runTracker() {
	defer close(e.trackDone)
	for c := range e.trackCh {
		e.deliverTracked(c)
	}
}

func (e *Engine) deliverTracked(c trackedCall) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().Interface("panic", r).Str("event", c.event).Msg("analytics sink panicked")
		}
	}()
	e.sink.Track(c.event, c.fields)
}
