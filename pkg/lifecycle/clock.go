package lifecycle

import (
	"sync"
	"time"
)

// MatchClock latches the moment the match started and reports progress
// against the match duration. Before the start signal it reports nothing.
type MatchClock struct {
	duration time.Duration

	mu    sync.Mutex
	start time.Time

	now func() time.Time
}

// NewMatchClock creates an unstarted clock for a match of the given
// duration.
func NewMatchClock(duration time.Duration) *MatchClock {
	return &MatchClock{duration: duration, now: time.Now}
}

// Start latches the match start. Later calls do not move it.
func (c *MatchClock) Start() {
	c.mu.Lock()
	if c.start.IsZero() {
		c.start = c.now()
	}
	c.mu.Unlock()
}

// Started reports whether the match has begun.
func (c *MatchClock) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.start.IsZero()
}

// Duration is the configured match length.
func (c *MatchClock) Duration() time.Duration { return c.duration }

// Elapsed is the time since the match started; ok is false before then.
func (c *MatchClock) Elapsed() (elapsed time.Duration, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.start.IsZero() {
		return 0, false
	}
	return c.now().Sub(c.start), true
}

// Remaining is the time left in the match, clamped at zero; ok is false
// before the match starts.
func (c *MatchClock) Remaining() (remaining time.Duration, ok bool) {
	elapsed, ok := c.Elapsed()
	if !ok {
		return 0, false
	}
	if remaining = c.duration - elapsed; remaining < 0 {
		remaining = 0
	}
	return remaining, true
}
