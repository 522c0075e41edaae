// Package sound holds the immutable, reference-counted decoded PCM buffer
// that voices play back. Construction happens off the audio thread; once
// built a Sound never changes, which is what lets voices read it
// concurrently with no locking.
package sound

import (
	"fmt"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Frame is one stereo sample pair at the engine's output rate.
type Frame struct {
	L, R float32
}

// Add returns the component-wise sum of two frames.
func (f Frame) Add(o Frame) Frame {
	return Frame{L: f.L + o.L, R: f.R + o.R}
}

// Scale returns the frame with both channels multiplied by g.
func (f Frame) Scale(g float32) Frame {
	return Frame{L: f.L * g, R: f.R * g}
}

const silenceThreshold = 0.01

// Sound is an immutable decoded PCM buffer: a native sample rate, a
// sequence of stereo frames, and the index of the first non-silent frame.
type Sound struct {
	SampleRate int
	Frames     []Frame
	Offset     int
}

// Decode reads a full PCM WAV stream and normalizes it into a Sound.
// Interleaved samples are normalized to [-1, 1] using the source bit
// depth, grouped into stereo frames (mono is duplicated to both
// channels; channels beyond the first two are dropped), and scanned for
// the first frame whose absolute amplitude on either channel exceeds
// silenceThreshold.
func Decode(d *wav.Decoder) (*Sound, error) {
	if !d.IsValidFile() {
		return nil, fmt.Errorf("sound: invalid WAV file")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("sound: decode PCM: %w", err)
	}
	return fromIntBuffer(buf)
}

func fromIntBuffer(buf *audio.IntBuffer) (*Sound, error) {
	format := buf.Format
	if format == nil || format.NumChannels < 1 {
		return nil, fmt.Errorf("sound: missing or invalid format")
	}
	if format.SampleRate <= 0 {
		return nil, fmt.Errorf("sound: invalid sample rate %d", format.SampleRate)
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float32(math.Pow(2, float64(bitDepth-1)))

	chans := format.NumChannels
	nFrames := len(buf.Data) / chans
	frames := make([]Frame, nFrames)
	for i := 0; i < nFrames; i++ {
		base := i * chans
		left := float32(buf.Data[base]) / scale
		right := left
		if chans > 1 {
			right = float32(buf.Data[base+1]) / scale
		}
		frames[i] = Frame{L: left, R: right}
	}

	offset := 0
	for i, f := range frames {
		if float32(math.Abs(float64(f.L))) < silenceThreshold && float32(math.Abs(float64(f.R))) < silenceThreshold {
			continue
		}
		offset = i
		break
	}

	return &Sound{
		SampleRate: format.SampleRate,
		Frames:     frames,
		Offset:     offset,
	}, nil
}
