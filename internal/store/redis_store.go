package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	sessionKeyPrefix = "session:"
	activeSetKey     = "sessions:active"
	estimatesKey     = "subject:estimates"
)

// RedisStore persists sessions as Redis hashes with an index set of active
// session ids. It enforces the single-active-timer rule by parking every other
// running session whenever one is created or resumed.
type RedisStore struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr string, log zerolog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	return &RedisStore{
		client: client,
		log:    log.With().Str("component", "store").Logger(),
	}, nil
}

// NewRedisStoreWithClient wraps an existing client (used by tests).
func NewRedisStoreWithClient(client *redis.Client, log zerolog.Logger) *RedisStore {
	return &RedisStore{client: client, log: log.With().Str("component", "store").Logger()}
}

// Client exposes the underlying connection for collaborators sharing it.
func (rs *RedisStore) Client() *redis.Client {
	return rs.client
}

func (rs *RedisStore) Close() error {
	return rs.client.Close()
}

func (rs *RedisStore) CreateSession(ctx context.Context, s *Session) error {
	now := time.Now()
	if err := rs.parkRunning(ctx, s.ID, now); err != nil {
		return err
	}

	s.Status = StatusRunning
	s.ResumedAt = s.StartTime
	s.UpdatedAt = now
	if err := rs.writeSession(ctx, s); err != nil {
		return err
	}
	if err := rs.client.SAdd(ctx, activeSetKey, s.ID).Err(); err != nil {
		return fmt.Errorf("index session %s: %w", s.ID, err)
	}

	rs.log.Debug().Str("session", s.ID).Str("subject", s.SubjectID).Msg("session created")
	return nil
}

func (rs *RedisStore) PauseSession(ctx context.Context, id string, accrued time.Duration) error {
	s, err := rs.GetSessionByID(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now()
	s.Status = StatusPaused
	s.PausedAt = &now
	s.ActualDuration = accrued
	s.UpdatedAt = now
	return rs.writeSession(ctx, s)
}

func (rs *RedisStore) ResumeSession(ctx context.Context, id string) error {
	s, err := rs.GetSessionByID(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now()
	if err := rs.parkRunning(ctx, id, now); err != nil {
		return err
	}
	s.Status = StatusRunning
	s.PausedAt = nil
	s.ResumedAt = now
	s.UpdatedAt = now
	return rs.writeSession(ctx, s)
}

func (rs *RedisStore) CompleteSession(ctx context.Context, id string, actual time.Duration) error {
	return rs.finalize(ctx, id, StatusCompleted, actual)
}

func (rs *RedisStore) DiscardSession(ctx context.Context, id string) error {
	return rs.finalize(ctx, id, StatusDiscarded, -1)
}

func (rs *RedisStore) UpdateTarget(ctx context.Context, id string, target time.Duration) error {
	s, err := rs.GetSessionByID(ctx, id)
	if err != nil {
		return err
	}
	s.TargetDuration = target
	s.UpdatedAt = time.Now()
	return rs.writeSession(ctx, s)
}

func (rs *RedisStore) ListActiveSessions(ctx context.Context) ([]Session, error) {
	ids, err := rs.client.SMembers(ctx, activeSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}

	sessions := make([]Session, 0, len(ids))
	for _, id := range ids {
		s, err := rs.GetSessionByID(ctx, id)
		if err == ErrNotFound {
			// Stale index entry; drop it.
			rs.client.SRem(ctx, activeSetKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if !s.IsActive() {
			rs.client.SRem(ctx, activeSetKey, id)
			continue
		}
		sessions = append(sessions, *s)
	}
	return sessions, nil
}

func (rs *RedisStore) GetSessionByID(ctx context.Context, id string) (*Session, error) {
	result, err := rs.client.HGetAll(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return parseSession(id, result), nil
}

func (rs *RedisStore) GetEstimatedDuration(ctx context.Context, subjectID string) (time.Duration, bool, error) {
	v, err := rs.client.HGet(ctx, estimatesKey, subjectID).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load estimate for subject %s: %w", subjectID, err)
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms <= 0 {
		return 0, false, nil
	}
	return time.Duration(ms) * time.Millisecond, true, nil
}

// SetEstimatedDuration stores a subject's duration estimate.
func (rs *RedisStore) SetEstimatedDuration(ctx context.Context, subjectID string, d time.Duration) error {
	return rs.client.HSet(ctx, estimatesKey, subjectID, d.Milliseconds()).Err()
}

// parkRunning pauses every running session except keep, crediting the active
// time since it last became running.
func (rs *RedisStore) parkRunning(ctx context.Context, keep string, now time.Time) error {
	active, err := rs.ListActiveSessions(ctx)
	if err != nil {
		return err
	}
	for i := range active {
		s := &active[i]
		if s.ID == keep || s.Status != StatusRunning {
			continue
		}
		s.Status = StatusPaused
		s.PausedAt = &now
		if !s.ResumedAt.IsZero() && now.After(s.ResumedAt) {
			s.ActualDuration += now.Sub(s.ResumedAt)
		}
		s.UpdatedAt = now
		if err := rs.writeSession(ctx, s); err != nil {
			return err
		}
		rs.log.Debug().Str("session", s.ID).Msg("parked running session")
	}
	return nil
}

func (rs *RedisStore) finalize(ctx context.Context, id string, status SessionStatus, actual time.Duration) error {
	s, err := rs.GetSessionByID(ctx, id)
	if err != nil {
		return err
	}
	s.Status = status
	s.PausedAt = nil
	if actual >= 0 {
		s.ActualDuration = actual
	}
	s.UpdatedAt = time.Now()
	if err := rs.writeSession(ctx, s); err != nil {
		return err
	}
	if err := rs.client.SRem(ctx, activeSetKey, id).Err(); err != nil {
		return fmt.Errorf("deindex session %s: %w", id, err)
	}
	return nil
}

func (rs *RedisStore) writeSession(ctx context.Context, s *Session) error {
	fields := map[string]interface{}{
		"subjectId":      s.SubjectID,
		"kind":           string(s.Kind),
		"status":         string(s.Status),
		"startTime":      s.StartTime.Format(time.RFC3339Nano),
		"targetDuration": s.TargetDuration.Milliseconds(),
		"actualDuration": s.ActualDuration.Milliseconds(),
		"resumedAt":      s.ResumedAt.Format(time.RFC3339Nano),
		"updatedAt":      s.UpdatedAt.Format(time.RFC3339Nano),
	}
	if s.PausedAt != nil {
		fields["pausedAt"] = s.PausedAt.Format(time.RFC3339Nano)
	} else {
		fields["pausedAt"] = ""
	}

	if err := rs.client.HSet(ctx, sessionKeyPrefix+s.ID, fields).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

func parseSession(id string, fields map[string]string) *Session {
	s := &Session{ID: id}
	s.SubjectID = fields["subjectId"]
	s.Kind = SessionKind(fields["kind"])
	s.Status = SessionStatus(fields["status"])

	if t, err := time.Parse(time.RFC3339Nano, fields["startTime"]); err == nil {
		s.StartTime = t
	}
	if v := fields["pausedAt"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			s.PausedAt = &t
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, fields["resumedAt"]); err == nil {
		s.ResumedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, fields["updatedAt"]); err == nil {
		s.UpdatedAt = t
	}
	if ms, err := strconv.ParseInt(fields["targetDuration"], 10, 64); err == nil {
		s.TargetDuration = time.Duration(ms) * time.Millisecond
	}
	if ms, err := strconv.ParseInt(fields["actualDuration"], 10, 64); err == nil {
		s.ActualDuration = time.Duration(ms) * time.Millisecond
	}

	// Repair obviously inconsistent records rather than refusing to load them.
	if s.Status == StatusPaused && s.PausedAt == nil {
		now := time.Now()
		s.PausedAt = &now
	}
	if s.Status == StatusRunning {
		s.PausedAt = nil
	}
	if s.ActualDuration < 0 {
		s.ActualDuration = 0
	}
	return s
}
