package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"focusService/internal/engine"
	"focusService/internal/store"
)

// TimerHandler exposes the timer engine over HTTP.
type TimerHandler struct {
	engine *engine.Engine
	log    zerolog.Logger
}

func NewTimerHandler(eng *engine.Engine, log zerolog.Logger) *TimerHandler {
	return &TimerHandler{
		engine: eng,
		log:    log.With().Str("component", "timer_handler").Logger(),
	}
}

type StartRequest struct {
	SubjectID       string `json:"subjectId"`
	Kind            string `json:"kind"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`
}

func (h *TimerHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", "Failed to parse request body")
		return
	}
	if req.SubjectID == "" {
		writeError(w, http.StatusBadRequest, "Validation error", "subjectId is required")
		return
	}

	kind := store.KindSimple
	switch req.Kind {
	case "", string(store.KindSimple):
	case string(store.KindPomodoro):
		kind = store.KindPomodoro
	default:
		writeError(w, http.StatusBadRequest, "Validation error", fmt.Sprintf("unknown kind %q", req.Kind))
		return
	}

	duration := time.Duration(req.DurationMinutes) * time.Minute
	if err := h.engine.Start(r.Context(), req.SubjectID, kind, duration); err != nil {
		if errors.Is(err, engine.ErrInvalidDuration) {
			writeError(w, http.StatusBadRequest, "Validation error", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to start timer", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *TimerHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.simpleAction(w, r, h.engine.Pause)
}

func (h *TimerHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.simpleAction(w, r, h.engine.Resume)
}

func (h *TimerHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.simpleAction(w, r, h.engine.Complete)
}

func (h *TimerHandler) Discard(w http.ResponseWriter, r *http.Request) {
	h.simpleAction(w, r, h.engine.Discard)
}

func (h *TimerHandler) Extend(w http.ResponseWriter, r *http.Request) {
	h.simpleAction(w, r, h.engine.Extend)
}

func (h *TimerHandler) AddMinute(w http.ResponseWriter, r *http.Request) {
	h.simpleAction(w, r, h.engine.AddMinute)
}

func (h *TimerHandler) SubtractMinute(w http.ResponseWriter, r *http.Request) {
	h.simpleAction(w, r, h.engine.SubtractMinute)
}

func (h *TimerHandler) simpleAction(w http.ResponseWriter, r *http.Request, action func(context.Context) error) {
	if err := action(r.Context()); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrNoActiveSession) {
			status = http.StatusConflict
		}
		writeError(w, status, "Timer action failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *TimerHandler) SwitchTo(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "Validation error", "sessionID is required")
		return
	}
	if err := h.engine.SwitchTo(r.Context(), sessionID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, engine.ErrNotResumable) {
			status = http.StatusConflict
		}
		writeError(w, status, "Failed to resume session", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *TimerHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// StreamEvents pushes engine events to the client as server-sent events.
func (h *TimerHandler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := beginStream(w)
	if !ok {
		return
	}
	events, cancel := h.engine.Events()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.writeStreamItem(w, flusher, ev)
		}
	}
}

// StreamAlerts pushes gated alert deliveries as server-sent events.
func (h *TimerHandler) StreamAlerts(w http.ResponseWriter, r *http.Request) {
	flusher, ok := beginStream(w)
	if !ok {
		return
	}
	alerts, cancel := h.engine.Alerts()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-alerts:
			if !ok {
				return
			}
			h.writeStreamItem(w, flusher, ev)
		}
	}
}

func beginStream(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported", "")
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()
	return flusher, true
}

func (h *TimerHandler) writeStreamItem(w http.ResponseWriter, flusher http.Flusher, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to marshal stream payload")
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}
