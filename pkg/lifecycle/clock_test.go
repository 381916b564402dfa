package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMatchClockUnstarted(t *testing.T) {
	c := NewMatchClock(120 * time.Second)
	require.False(t, c.Started())
	_, ok := c.Elapsed()
	require.False(t, ok)
	_, ok = c.Remaining()
	require.False(t, ok)
}

func TestMatchClockProgress(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewMatchClock(120 * time.Second)
	c.now = func() time.Time { return now }

	c.Start()
	require.True(t, c.Started())

	now = now.Add(30 * time.Second)
	elapsed, ok := c.Elapsed()
	require.True(t, ok)
	require.Equal(t, 30*time.Second, elapsed)
	remaining, ok := c.Remaining()
	require.True(t, ok)
	require.Equal(t, 90*time.Second, remaining)

	// past the end the remainder clamps at zero
	now = now.Add(5 * time.Minute)
	remaining, ok = c.Remaining()
	require.True(t, ok)
	require.Equal(t, time.Duration(0), remaining)
}

func TestMatchClockStartLatches(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewMatchClock(time.Minute)
	c.now = func() time.Time { return now }

	c.Start()
	now = now.Add(10 * time.Second)
	c.Start() // must not move the latched start
	elapsed, ok := c.Elapsed()
	require.True(t, ok)
	require.Equal(t, 10*time.Second, elapsed)
}
