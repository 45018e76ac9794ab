package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerDropsRapidRepeat(t *testing.T) {
	d := newActionDebouncer()
	t0 := time.Unix(1_700_000_000, 0)

	assert.True(t, d.allow("pause", t0))
	assert.False(t, d.allow("pause", t0.Add(100*time.Millisecond)))
	assert.False(t, d.allow("pause", t0.Add(499*time.Millisecond)))
	assert.True(t, d.allow("pause", t0.Add(500*time.Millisecond)))
}

func TestDebouncerDifferentKindsPass(t *testing.T) {
	d := newActionDebouncer()
	t0 := time.Unix(1_700_000_000, 0)

	assert.True(t, d.allow("pause", t0))
	assert.True(t, d.allow("resume", t0.Add(50*time.Millisecond)))
	assert.True(t, d.allow("pause", t0.Add(100*time.Millisecond)), "different kind resets the window")
}

func TestDebouncerReset(t *testing.T) {
	d := newActionDebouncer()
	t0 := time.Unix(1_700_000_000, 0)

	assert.True(t, d.allow("complete", t0))
	d.reset()
	assert.True(t, d.allow("complete", t0.Add(10*time.Millisecond)))
}
