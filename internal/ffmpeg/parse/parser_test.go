package parse

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	d, ok := ParseDuration("  Duration: 01:02:03.45, start: 0.000000, bitrate: 8000 kb/s")
	require.True(t, ok)
	assert.InDelta(t, 3723.45, d, 1e-9)

	d, ok = ParseDuration("duration: 00:00:10.5")
	require.True(t, ok)
	assert.InDelta(t, 10.5, d, 1e-9)

	for _, text := range []string{
		"",
		"Duration: N/A, start: 0.000000",
		"Duration: 01:02:03",
		"frame=  10 fps=0.0 time=00:00:01.00",
	} {
		_, ok := ParseDuration(text)
		assert.False(t, ok, "text %q", text)
	}
}

func TestParseProgress(t *testing.T) {
	t.Run("quarter done", func(t *testing.T) {
		p, ok := ParseProgress("frame=  250 fps=25 q=28.0 size=1024kB time=00:00:25.00 bitrate=335.5kbits/s speed=1x", 100, true)
		require.True(t, ok)
		assert.InDelta(t, 0.25, p.Fraction, 1e-9)
		assert.InDelta(t, 25.0, p.Current, 1e-9)
		// remaining 75s divided by 0.25 progress
		assert.Equal(t, "00:05:00", p.ETA)
	})

	t.Run("zero progress has no eta", func(t *testing.T) {
		p, ok := ParseProgress("time=00:00:00.00", 100, true)
		require.True(t, ok)
		assert.Equal(t, 0.0, p.Fraction)
		assert.Empty(t, p.ETA)
	})

	t.Run("overshoot is clamped", func(t *testing.T) {
		p, ok := ParseProgress("time=00:02:00.00", 100, true)
		require.True(t, ok)
		assert.Equal(t, 1.0, p.Fraction)
		assert.Equal(t, "00:00:00", p.ETA)
	})

	t.Run("zero total omits eta", func(t *testing.T) {
		p, ok := ParseProgress("time=00:00:03.00", 0, true)
		require.True(t, ok)
		assert.Equal(t, 1.0, p.Fraction)
		assert.Empty(t, p.ETA)
	})

	t.Run("unknown total", func(t *testing.T) {
		_, ok := ParseProgress("time=00:00:25.00", 100, false)
		assert.False(t, ok)
	})

	t.Run("no marker", func(t *testing.T) {
		_, ok := ParseProgress("Stream #0:0: Video: h264", 100, true)
		assert.False(t, ok)
	})
}

func TestFormatETA(t *testing.T) {
	s, ok := FormatETA(3725.9)
	require.True(t, ok)
	assert.Equal(t, "01:02:05", s)

	s, ok = FormatETA(0)
	require.True(t, ok)
	assert.Equal(t, "00:00:00", s)

	_, ok = FormatETA(math.Inf(1))
	assert.False(t, ok)
	_, ok = FormatETA(math.NaN())
	assert.False(t, ok)
	_, ok = FormatETA(-1)
	assert.False(t, ok)
}

func TestTrackerCarriesDuration(t *testing.T) {
	var tr Tracker

	_, ok := tr.Feed("time=00:00:01.00")
	assert.False(t, ok, "progress before duration is unknown")

	_, ok = tr.Feed("Input #0, mov,mp4, from 'in.mov':")
	assert.False(t, ok)

	_, ok = tr.Feed("  Duration: 00:00:10.00, start: 0.000000")
	assert.False(t, ok)

	total, known := tr.Total()
	require.True(t, known)
	assert.InDelta(t, 10.0, total, 1e-9)

	p, ok := tr.Feed("frame=1 time=00:00:05.00 speed=2x")
	require.True(t, ok)
	assert.InDelta(t, 0.5, p.Fraction, 1e-9)

	// a later Duration marker (e.g. output stream) does not replace the first
	_, _ = tr.Feed("Duration: 00:01:00.00")
	total, _ = tr.Total()
	assert.InDelta(t, 10.0, total, 1e-9)
}
