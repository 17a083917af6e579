package profiler

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameReportsOncePerInterval(t *testing.T) {
	var lines []string
	p := NewProfiler(WithInterval(100*time.Millisecond), WithLogger(func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}))

	for i := 0; i < 3; i++ {
		_, ok := p.Frame(20 * time.Millisecond)
		assert.False(t, ok)
	}
	_, ok := p.Frame(10 * time.Millisecond)
	assert.False(t, ok)

	stats, ok := p.Frame(30 * time.Millisecond)
	require.True(t, ok)
	assert.InDelta(t, 50, stats.FPS, 1e-9)
	assert.Equal(t, 20*time.Millisecond, stats.AvgFrame)
	assert.Equal(t, 30*time.Millisecond, stats.MaxFrame)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "[profiler] FPS: 50.00")
	assert.Contains(t, lines[0], "max 30.00 ms")

	// The interval starts over.
	stats, ok = p.Frame(100 * time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, 100*time.Millisecond, stats.MaxFrame)
	assert.InDelta(t, 10, stats.FPS, 1e-9)
}

func TestDefaults(t *testing.T) {
	p := NewProfiler(WithInterval(0), WithLogger(nil))
	assert.Equal(t, time.Second, p.updateInterval)
	assert.NotNil(t, p.logf)
}
