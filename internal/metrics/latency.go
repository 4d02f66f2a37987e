// Package metrics tracks running statistics about provider queries.
package metrics

import (
	"fmt"
	"sync"
	"time"
)

// LatencySummary is a point-in-time view of a LatencyTracker
type LatencySummary struct {
	Count  int           `json:"count"`
	Last   time.Duration `json:"last_ns"`
	Mean   time.Duration `json:"mean_ns"`
	StdDev time.Duration `json:"stddev_ns"`
	Max    time.Duration `json:"max_ns"`
}

func (s LatencySummary) String() string {
	if s.Count == 0 {
		return "no queries yet"
	}
	return fmt.Sprintf("last %v, mean %v ± %v, max %v over %d queries",
		s.Last.Round(time.Millisecond),
		s.Mean.Round(time.Millisecond),
		s.StdDev.Round(time.Millisecond),
		s.Max.Round(time.Millisecond),
		s.Count)
}

// LatencyTracker accumulates query durations. Safe for concurrent use.
type LatencyTracker struct {
	mu    sync.Mutex
	state WelfordState
	last  time.Duration
	max   time.Duration
}

// NewLatencyTracker creates an empty tracker
func NewLatencyTracker() *LatencyTracker {
	return &LatencyTracker{}
}

// Observe records one query duration
func (t *LatencyTracker) Observe(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Update(float64(d))
	t.last = d
	if d > t.max {
		t.max = d
	}
}

// Summary returns the current statistics
func (t *LatencyTracker) Summary() LatencySummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	return LatencySummary{
		Count:  t.state.Count,
		Last:   t.last,
		Mean:   time.Duration(t.state.Mean),
		StdDev: time.Duration(t.state.StdDev()),
		Max:    t.max,
	}
}
