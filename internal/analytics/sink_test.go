package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisSink(t *testing.T) (*RedisSink, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisSink(client, zerolog.Nop()), client
}

func TestRedisSinkCountsDaily(t *testing.T) {
	sink, client := newTestRedisSink(t)
	ctx := context.Background()

	sink.Track("timer_start", map[string]interface{}{"subjectId": "math"})
	sink.Track("timer_start", map[string]interface{}{"subjectId": "essay"})
	sink.Track("timer_done", nil)

	day := time.Now().Format("2006-01-02")

	n, err := client.Get(ctx, fmt.Sprintf("analytics:timer_start:%s", day)).Int()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = client.Get(ctx, fmt.Sprintf("analytics:timer_done:%s", day)).Int()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ttl, err := client.TTL(ctx, fmt.Sprintf("analytics:timer_start:%s", day)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0), "daily counters expire")
}

func TestRedisSinkKeepsLastPayload(t *testing.T) {
	sink, client := newTestRedisSink(t)
	ctx := context.Background()

	sink.Track("timer_done", map[string]interface{}{"sessionId": "sess-1", "actualMs": 90000})
	sink.Track("timer_done", map[string]interface{}{"sessionId": "sess-2", "actualMs": 120000})

	last, err := client.HGetAll(ctx, "analytics:last:timer_done").Result()
	require.NoError(t, err)
	assert.Equal(t, "sess-2", last["sessionId"])
	assert.Equal(t, "120000", last["actualMs"])
	assert.NotEmpty(t, last["at"])
}

func TestRedisSinkSwallowsFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	sink := NewRedisSink(client, zerolog.Nop())

	// A dead backend must not panic or surface an error.
	mr.Close()
	sink.Track("timer_start", map[string]interface{}{"subjectId": "math"})
}

func TestLogSinkTrack(t *testing.T) {
	// Behavior contract: never blocks, never panics, even with nil fields.
	sink := NewLogSink(zerolog.Nop())
	sink.Track("timer_start", nil)
	sink.Track("timer_done", map[string]interface{}{"actualMs": 1500})
}
