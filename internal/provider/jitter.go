package provider

import (
	"context"
	"math/rand"
	"time"
)

// Jitter is a randomized pause inserted before a provider request
type Jitter struct {
	Min time.Duration
	Max time.Duration
}

var (
	// FirstRequestJitter precedes the first request of a query strategy
	FirstRequestJitter = Jitter{Min: time.Second, Max: 3 * time.Second}
	// FollowUpJitter precedes each further request within the same strategy
	FollowUpJitter = Jitter{Min: 500 * time.Millisecond, Max: 1500 * time.Millisecond}
)

// Duration picks a random pause in [Min, Max]
func (j Jitter) Duration() time.Duration {
	if j.Max <= j.Min {
		return j.Min
	}
	return j.Min + time.Duration(rand.Int63n(int64(j.Max-j.Min)+1))
}

// Wait sleeps for a random pause, returning early if ctx is done
func (j Jitter) Wait(ctx context.Context) error {
	d := j.Duration()
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
