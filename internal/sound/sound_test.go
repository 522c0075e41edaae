package sound

import (
	"testing"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
)

func TestFromIntBufferMonoDuplicatesChannel(t *testing.T) {
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 44100},
		Data:           []int{0, 16384, 0, -16384},
		SourceBitDepth: 16,
	}
	snd, err := fromIntBuffer(buf)
	assert.NoError(t, err)
	assert.Equal(t, 44100, snd.SampleRate)
	assert.Len(t, snd.Frames, 4)
	assert.InDelta(t, 0.5, snd.Frames[1].L, 1e-6)
	assert.InDelta(t, 0.5, snd.Frames[1].R, 1e-6)
	assert.InDelta(t, -0.5, snd.Frames[3].L, 1e-6)
}

func TestFromIntBufferStereoKeepsFirstTwoChannels(t *testing.T) {
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 48000},
		Data:           []int{100, -100, 200, -200},
		SourceBitDepth: 16,
	}
	snd, err := fromIntBuffer(buf)
	assert.NoError(t, err)
	assert.Len(t, snd.Frames, 2)
	assert.Greater(t, snd.Frames[0].L, float32(0))
	assert.Less(t, snd.Frames[0].R, float32(0))
}

func TestFromIntBufferSilenceOffsetUsesAbsoluteValue(t *testing.T) {
	// A fully-negative onset must still be detected as non-silent: this
	// is the fix for the raw-signed-comparison bug the spec calls out.
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 48000},
		Data:           []int{0, 0, -20000, 1000},
		SourceBitDepth: 16,
	}
	snd, err := fromIntBuffer(buf)
	assert.NoError(t, err)
	assert.Equal(t, 2, snd.Offset)
}

func TestFromIntBufferRejectsZeroSampleRate(t *testing.T) {
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: 0},
		Data:   []int{0},
	}
	_, err := fromIntBuffer(buf)
	assert.Error(t, err)
}

func TestHandleRefCounting(t *testing.T) {
	snd := &Sound{SampleRate: 48000, Frames: []Frame{{}}, Offset: 0}
	h := NewHandle(snd)
	assert.Equal(t, 1, h.RefCount())

	h2 := h.Retain()
	assert.Equal(t, 2, h.RefCount())
	assert.Same(t, h.Sound(), h2.Sound())

	assert.False(t, h.Release())
	assert.True(t, h2.Release())
}

func TestFrameArithmetic(t *testing.T) {
	a := Frame{L: 1, R: -1}
	b := Frame{L: 0.5, R: 0.5}
	assert.Equal(t, Frame{L: 1.5, R: -0.5}, a.Add(b))
	assert.Equal(t, Frame{L: 2, R: -2}, a.Scale(2))
}
