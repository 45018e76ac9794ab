// Package analytics receives best-effort event notifications from the timer
// engine. The engine hands events over off its action and tick paths; sinks
// bound their own I/O and never surface failures to the caller.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Sink consumes fire-and-forget event notifications. Implementations swallow
// their own errors; the engine neither inspects nor waits on the outcome.
type Sink interface {
	Track(event string, fields map[string]interface{})
}

// LogSink writes events to the structured log.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("component", "analytics").Logger()}
}

func (s *LogSink) Track(event string, fields map[string]interface{}) {
	s.log.Debug().Str("event", event).Fields(fields).Msg("tracked")
}

const trackTimeout = 2 * time.Second

// RedisSink counts events in daily Redis counters and keeps the latest payload
// per event for inspection. Errors are logged and dropped.
type RedisSink struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewRedisSink(client *redis.Client, log zerolog.Logger) *RedisSink {
	return &RedisSink{
		client: client,
		log:    log.With().Str("component", "analytics").Logger(),
	}
}

func (s *RedisSink) Track(event string, fields map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), trackTimeout)
	defer cancel()

	day := time.Now().Format("2006-01-02")
	counterKey := fmt.Sprintf("analytics:%s:%s", event, day)

	pipe := s.client.Pipeline()
	pipe.Incr(ctx, counterKey)
	pipe.Expire(ctx, counterKey, 30*24*time.Hour)
	if len(fields) > 0 {
		payload := make(map[string]interface{}, len(fields)+1)
		for k, v := range fields {
			payload[k] = fmt.Sprint(v)
		}
		payload["at"] = time.Now().Format(time.RFC3339)
		pipe.HSet(ctx, "analytics:last:"+event, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Debug().Err(err).Str("event", event).Msg("analytics write dropped")
	}
}
