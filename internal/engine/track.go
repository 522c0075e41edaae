package engine

import (
	"math"
	"math/rand"

	"github.com/schollz/tracksampler/internal/device"
	"github.com/schollz/tracksampler/internal/modulation"
	"github.com/schollz/tracksampler/internal/sound"
)

// RMS is a per-channel root-mean-square amplitude snapshot over the most
// recently rendered slice.
type RMS struct {
	L, R float32
}

// Track owns one device plus a post-gain/mute stage; its output
// contributes additively to the master buffer. RMS is published through a
// single atomic word so the UI thread can read it lock-free without the
// audio thread ever allocating to publish it.
type Track struct {
	Index  int
	Volume float32
	Mute   bool
	Device device.Device

	// Modulate holds the pitch-modulation settings applied to every
	// NoteEvent this track dispatches, reused unchanged from the teacher's
	// arpeggio/modulate columns (probability gate, random offset, scale
	// quantization).
	Modulate         modulation.ModulateSettings
	incrementCounter int
	rng              *rand.Rand

	scratch []sound.Frame
	rms     packedRMS
}

// NewTrack allocates a Track whose scratch buffer is pre-sized to
// maxFrames, the largest sub-slice it will ever be asked to render in one
// call — the only allocation happens here, at construction, off the audio
// thread.
func NewTrack(index int, dev device.Device, maxFrames int) *Track {
	return &Track{
		Index:    index,
		Volume:   1.0,
		Device:   dev,
		Modulate: modulation.NewModulateSettings(),
		rng:      rand.New(rand.NewSource(int64(index) + 1)),
		scratch:  make([]sound.Frame, maxFrames),
	}
}

// ApplyModulation runs a cell's pitch through the increment counter then
// the modulation settings, in the order modulation.ApplyIncrement's own
// doc comment requires. The result is clamped to a valid MIDI pitch.
func (t *Track) ApplyModulation(pitch byte) byte {
	note := modulation.ApplyIncrement(int(pitch), t.incrementCounter, t.Modulate.Increment, t.Modulate.Wrap)
	if t.Modulate.Increment > 0 {
		t.incrementCounter++
	}
	note = modulation.ApplyModulation(note, t.Modulate, t.rng)
	if note < 0 {
		note = 0
	}
	if note > 127 {
		note = 127
	}
	return byte(note)
}

// RMS returns the most recently published per-channel RMS pair.
func (t *Track) RMS() RMS {
	return t.rms.load()
}

// Render asks the track's device to fill a sub-slice of length
// len(master), applies volume/mute, mixes additively into master, and
// updates the RMS snapshot. Never allocates: the scratch buffer it renders
// into is reused from construction.
func (t *Track) Render(ctx device.TrackContext, master []sound.Frame) {
	n := len(master)
	buf := t.scratch[:n]
	for i := range buf {
		buf[i] = sound.Frame{}
	}

	if t.Device != nil {
		t.Device.Render(ctx, buf)
	}

	gain := t.Volume
	if t.Mute {
		gain = 0
	}

	var sumSqL, sumSqR float64
	for i := range buf {
		scaled := buf[i].Scale(gain)
		master[i] = master[i].Add(scaled)
		sumSqL += float64(scaled.L) * float64(scaled.L)
		sumSqR += float64(scaled.R) * float64(scaled.R)
	}

	if n > 0 {
		t.rms.store(RMS{
			L: float32(math.Sqrt(sumSqL / float64(n))),
			R: float32(math.Sqrt(sumSqR / float64(n))),
		})
	}
}
