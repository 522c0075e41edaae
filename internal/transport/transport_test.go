package transport

import (
	"math"
	"testing"

	"github.com/schollz/tracksampler/internal/pattern"
	"github.com/stretchr/testify/assert"
)

func TestFramesUntilNextBoundary(t *testing.T) {
	tr := New(48000)
	tr.BPM = 60
	tr.LinesPerBeat = 1 // 1 line = 1 beat = 1 second = 48000 frames
	tr.Pattern = pattern.New(0, 4, 1)
	tr.Playing = true

	assert.Equal(t, 0.0, tr.FramesUntilNextBoundary(), "starts exactly on a boundary")

	tr.Advance(24000) // half a line
	assert.InDelta(t, 24000.0, tr.FramesUntilNextBoundary(), 1e-6)

	tr.Advance(24000) // now exactly on line 1
	assert.InDelta(t, 0.0, tr.FramesUntilNextBoundary(), 1e-6)
}

func TestFramesUntilNextBoundaryWhenStopped(t *testing.T) {
	tr := New(48000)
	tr.Pattern = pattern.New(0, 4, 1)
	assert.True(t, math.IsInf(tr.FramesUntilNextBoundary(), 1))
}

func TestAdvanceWrapsAtPatternEnd(t *testing.T) {
	tr := New(48000)
	tr.BPM = 120
	tr.LinesPerBeat = 4
	tr.Pattern = pattern.New(0, 4, 1)
	tr.Playing = true

	fpl := tr.FramesPerLine()
	tr.Advance(4 * fpl)
	assert.InDelta(t, 0.0, tr.LineFraction, 1e-9)
	assert.Equal(t, 0, tr.CurrentLine())
}

func TestTogglePlayPreservesLine(t *testing.T) {
	tr := New(48000)
	tr.Pattern = pattern.New(0, 4, 1)
	tr.Playing = true
	tr.Advance(tr.FramesPerLine() * 2)
	line := tr.CurrentLine()

	tr.TogglePlay()
	assert.False(t, tr.Playing)
	tr.Advance(1000) // no-op while stopped
	assert.Equal(t, line, tr.CurrentLine())

	tr.TogglePlay()
	assert.True(t, tr.Playing)
	assert.Equal(t, line, tr.CurrentLine())
}
