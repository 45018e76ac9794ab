package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process SessionStore used as a fallback when Redis is
// unreachable and as a fixture in tests. Semantics mirror RedisStore,
// including single-active-timer parking.
type MemoryStore struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	estimates map[string]time.Duration
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[string]*Session),
		estimates: make(map[string]time.Duration),
	}
}

func (ms *MemoryStore) CreateSession(_ context.Context, s *Session) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	ms.parkRunningLocked(s.ID, now)

	cp := *s
	cp.Status = StatusRunning
	cp.ResumedAt = cp.StartTime
	cp.UpdatedAt = now
	ms.sessions[s.ID] = &cp
	s.Status = cp.Status
	return nil
}

func (ms *MemoryStore) PauseSession(_ context.Context, id string, accrued time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	s, ok := ms.sessions[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	s.Status = StatusPaused
	s.PausedAt = &now
	s.ActualDuration = accrued
	s.UpdatedAt = now
	return nil
}

func (ms *MemoryStore) ResumeSession(_ context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	s, ok := ms.sessions[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	ms.parkRunningLocked(id, now)
	s.Status = StatusRunning
	s.PausedAt = nil
	s.ResumedAt = now
	s.UpdatedAt = now
	return nil
}

func (ms *MemoryStore) CompleteSession(_ context.Context, id string, actual time.Duration) error {
	return ms.finalize(id, StatusCompleted, actual)
}

func (ms *MemoryStore) DiscardSession(_ context.Context, id string) error {
	return ms.finalize(id, StatusDiscarded, -1)
}

func (ms *MemoryStore) UpdateTarget(_ context.Context, id string, target time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	s, ok := ms.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.TargetDuration = target
	s.UpdatedAt = time.Now()
	return nil
}

func (ms *MemoryStore) ListActiveSessions(_ context.Context) ([]Session, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var active []Session
	for _, s := range ms.sessions {
		if s.IsActive() {
			active = append(active, *s)
		}
	}
	return active, nil
}

func (ms *MemoryStore) GetSessionByID(_ context.Context, id string) (*Session, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	s, ok := ms.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (ms *MemoryStore) GetEstimatedDuration(_ context.Context, subjectID string) (time.Duration, bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	d, ok := ms.estimates[subjectID]
	return d, ok, nil
}

// SetEstimatedDuration stores a subject's duration estimate.
func (ms *MemoryStore) SetEstimatedDuration(subjectID string, d time.Duration) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.estimates[subjectID] = d
}

func (ms *MemoryStore) finalize(id string, status SessionStatus, actual time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	s, ok := ms.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.Status = status
	s.PausedAt = nil
	if actual >= 0 {
		s.ActualDuration = actual
	}
	s.UpdatedAt = time.Now()
	return nil
}

func (ms *MemoryStore) parkRunningLocked(keep string, now time.Time) {
	for _, s := range ms.sessions {
		if s.ID == keep || s.Status != StatusRunning {
			continue
		}
		t := now
		s.Status = StatusPaused
		s.PausedAt = &t
		if !s.ResumedAt.IsZero() && now.After(s.ResumedAt) {
			s.ActualDuration += now.Sub(s.ResumedAt)
		}
		s.UpdatedAt = now
	}
}
