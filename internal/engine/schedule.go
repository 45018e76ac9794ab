package engine

import (
	"sort"
	"time"
)

// AlertKind classifies a milestone alert, derived from its percentage.
type AlertKind string

const (
	AlertStart    AlertKind = "start"
	AlertProgress AlertKind = "progress"
	AlertMidpoint AlertKind = "midpoint"
	AlertFinal    AlertKind = "final"
)

// AlertPoint is a percentage-of-duration milestone with its precomputed
// trigger offset into the segment.
type AlertPoint struct {
	Percent int           `json:"percent"`
	Trigger time.Duration `json:"trigger"`
	Kind    AlertKind     `json:"kind"`
}

// BuildSchedule converts percentage thresholds into an ordered alert point
// list for the given target. Values outside [0,100] are dropped, duplicates
// collapse, and the result is sorted ascending by trigger offset.
func BuildSchedule(target time.Duration, percents []int) []AlertPoint {
	seen := make(map[int]bool, len(percents))
	valid := make([]int, 0, len(percents))
	for _, p := range percents {
		if p < 0 || p > 100 || seen[p] {
			continue
		}
		seen[p] = true
		valid = append(valid, p)
	}
	sort.Ints(valid)

	points := make([]AlertPoint, 0, len(valid))
	for _, p := range valid {
		points = append(points, AlertPoint{
			Percent: p,
			Trigger: target * time.Duration(p) / 100,
			Kind:    kindForPercent(p),
		})
	}
	return points
}

func kindForPercent(p int) AlertKind {
	switch p {
	case 0:
		return AlertStart
	case 50:
		return AlertMidpoint
	case 100:
		return AlertFinal
	default:
		return AlertProgress
	}
}

// nextPointAfter returns the index of the first point whose trigger exceeds
// the given elapsed time, so milestones already passed are not replayed after
// a schedule rebuild.
func nextPointAfter(points []AlertPoint, elapsed time.Duration) int {
	for i, pt := range points {
		if pt.Trigger > elapsed {
			return i
		}
	}
	return len(points)
}
