package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildScheduleDefaultPercents(t *testing.T) {
	points := BuildSchedule(time.Minute, []int{0, 25, 50, 75, 100})
	require.Len(t, points, 5)

	wantTriggers := []time.Duration{0, 15 * time.Second, 30 * time.Second, 45 * time.Second, time.Minute}
	wantKinds := []AlertKind{AlertStart, AlertProgress, AlertMidpoint, AlertProgress, AlertFinal}
	for i, pt := range points {
		assert.Equal(t, wantTriggers[i], pt.Trigger, "trigger %d", i)
		assert.Equal(t, wantKinds[i], pt.Kind, "kind %d", i)
	}
}

func TestBuildScheduleFiltersAndSorts(t *testing.T) {
	points := BuildSchedule(100*time.Second, []int{101, 75, -5, 25, 25, 0})
	require.Len(t, points, 3)
	assert.Equal(t, 0, points[0].Percent)
	assert.Equal(t, 25, points[1].Percent)
	assert.Equal(t, 75, points[2].Percent)
	assert.Equal(t, 25*time.Second, points[1].Trigger)
}

func TestBuildScheduleDeterministic(t *testing.T) {
	a := BuildSchedule(25*time.Minute, []int{0, 25, 50, 75, 100})
	b := BuildSchedule(25*time.Minute, []int{100, 75, 50, 25, 0})
	assert.Equal(t, a, b)
}

func TestNextPointAfter(t *testing.T) {
	points := BuildSchedule(time.Minute, []int{0, 25, 50, 75, 100})

	assert.Equal(t, 1, nextPointAfter(points, 0), "start point is not replayed at zero elapsed")
	assert.Equal(t, 2, nextPointAfter(points, 20*time.Second))
	assert.Equal(t, 3, nextPointAfter(points, 30*time.Second), "exact trigger counts as passed")
	assert.Equal(t, len(points), nextPointAfter(points, time.Minute))
	assert.Equal(t, len(points), nextPointAfter(points, time.Hour))
}

func TestScheduleRebuildAfterExtension(t *testing.T) {
	// Extending rebuilds against the new target; milestones already passed
	// under the old target must not be replayed.
	elapsed := 40 * time.Second

	points := BuildSchedule(6*time.Minute, []int{0, 25, 50, 75, 100})
	idx := nextPointAfter(points, elapsed)
	require.Less(t, idx, len(points))
	assert.Equal(t, 25, points[idx].Percent)
	assert.Equal(t, 90*time.Second, points[idx].Trigger)
}
