// Package sampler implements the polyphonic sample-playback device: a
// fixed pool of voices, linear-interpolated resampling, and the
// envelope/gain/pan/filter chain applied per voice on render.
package sampler

import (
	"log"
	"math"
	"time"

	"github.com/schollz/tracksampler/internal/device"
	"github.com/schollz/tracksampler/internal/dsp"
	"github.com/schollz/tracksampler/internal/pattern"
	"github.com/schollz/tracksampler/internal/sound"
)

// NumVoices is the fixed size of the voice pool, allocated once at
// construction and never resized.
const NumVoices = 8

// RootPitch is the MIDI-style pitch that plays a sound at its native
// sample rate with no transposition.
const RootPitch byte = 48

const (
	defaultAttack  = 50 * time.Millisecond
	defaultDecay   = 100 * time.Millisecond
	defaultSustain = 0.5
	defaultRelease = 100 * time.Millisecond
	stealRelease   = 5 * time.Millisecond
	velocityFixed  = 100
)

type voiceState int

const (
	voiceFree voiceState = iota
	voiceBusy
)

// voice is a single playback slot. Zero value is a free, silent voice.
type voice struct {
	state      voiceState
	handle     sound.Handle
	position   float64
	pitchRatio float64
	pitch      byte
	volume     float32
	pan        float32
	column     int
	gate       float64
	env        *dsp.Envelope
	reverse    bool

	filter filterState

	retrigEvery int // frames between repeats, 0 disables
	retrigDecay float32
	retrigCount int
	retrigFrame int
}

// DropLogger receives a short diagnostic message whenever an event is
// dropped because the voice pool is exhausted. The send path invokes this
// hook when one is set; with a nil hook the sampler falls back to
// log.Printf on the calling (audio) thread.
type DropLogger func(msg string)

// ColumnParams holds the supplemented per-column rendering parameters
// (pan, filter, retrigger, reverse) applied to a voice at the moment it is
// allocated for that column's note-on. Carrying them here rather than on
// the voice itself follows the Open Question 1 resolution for envelope
// settings: changing a column's
// settings takes effect on the next note, not retroactively on whatever
// voice happens to be sounding. Aliased from internal/device so the command
// bridge can dispatch SetColumnParams against any device generically.
type ColumnParams = device.ColumnParams

// Sampler owns a fixed pool of voices and renders them additively into a
// destination buffer.
type Sampler struct {
	voices     [NumVoices]voice
	sampleRate int
	drops      int
	onDrop     DropLogger

	attack  time.Duration
	decay   time.Duration
	sustain float64
	release time.Duration

	columns map[int]ColumnParams
}

// New constructs a Sampler with all voices free, ready to render at
// sampleRate frames/sec.
func New(sampleRate int, onDrop DropLogger) *Sampler {
	s := &Sampler{
		sampleRate: sampleRate,
		onDrop:     onDrop,
		attack:     defaultAttack,
		decay:      defaultDecay,
		sustain:    defaultSustain,
		release:    defaultRelease,
		columns:    make(map[int]ColumnParams),
	}
	for i := range s.voices {
		s.voices[i].env = dsp.New(sampleRate, s.attack, s.decay, s.sustain, s.release)
	}
	return s
}

// SetADSR replaces the envelope defaults applied to future note-ons.
// Voices already sounding keep whatever envelope they were given at their
// own note-on.
func (s *Sampler) SetADSR(attack, decay time.Duration, sustain float64, release time.Duration) {
	s.attack, s.decay, s.sustain, s.release = attack, decay, sustain, release
}

// SetColumnParams replaces the pan/filter/retrigger/reverse settings
// applied to column's voice at its next note-on.
func (s *Sampler) SetColumnParams(column int, p ColumnParams) {
	s.columns[column] = p
}

// Drops returns the number of note-on events dropped so far because the
// voice pool was exhausted.
func (s *Sampler) Drops() int {
	return s.drops
}

// VoiceCount reports the fixed size of the voice pool, so a caller walking
// TakeReleasedHandle by slot index knows the valid range.
func (s *Sampler) VoiceCount() int {
	return NumVoices
}

// Device parameter identifiers addressed by the command bridge's SetParam
// message. Stable per device class, per SPEC_FULL.md's control surface.
const (
	ParamAttack = iota
	ParamDecay
	ParamSustain
	ParamRelease
)

// SetParam applies a device-level parameter change. Envelope parameters
// apply to future note-ons only (Open Question 1): a voice already
// sounding keeps the envelope it was given when it started.
func (s *Sampler) SetParam(paramID int, value float64) {
	switch paramID {
	case ParamAttack:
		s.attack = time.Duration(value * float64(time.Second))
	case ParamDecay:
		s.decay = time.Duration(value * float64(time.Second))
	case ParamSustain:
		s.sustain = value
	case ParamRelease:
		s.release = time.Duration(value * float64(time.Second))
	}
}

func (s *Sampler) log(msg string) {
	if s.onDrop != nil {
		s.onDrop(msg)
		return
	}
	log.Printf("[SAMPLER] %s", msg)
}

// SendEvent resolves ev.Sound through ctx and dispatches NoteOn, or, for
// the reserved OFF pitch, drops the gate on every busy voice in the
// event's column (the OFF event carries no note pitch to match).
func (s *Sampler) SendEvent(ctx device.TrackContext, ev pattern.NoteEvent) {
	if ev.IsNoteOff() {
		for i := range s.voices {
			v := &s.voices[i]
			if v.state == voiceBusy && v.column == ev.Track {
				v.gate = 0
			}
		}
		return
	}
	h, ok := ctx.Sound(ev.Sound)
	if !ok {
		return
	}
	s.NoteOn(h, ev.Track, ev.Pitch, velocityFixed)
}

// NoteOn fast-releases any existing note in column, then allocates the
// first free voice (first-fit, never stealing across columns) and starts
// it playing snd at pitch/velocity. If no voice is free the event is
// dropped and the drop counter increments.
func (s *Sampler) NoteOn(h sound.Handle, column int, pitch, velocity byte) {
	s.stopNote(column)

	params := s.columns[column]

	for i := range s.voices {
		v := &s.voices[i]
		if v.state != voiceFree {
			continue
		}
		snd := h.Sound()
		v.handle = h
		v.state = voiceBusy
		v.gate = 1.0
		v.pitch = pitch
		v.column = column
		v.volume = gainFactor(mapRange(float32(velocity), 0, 127, -60, 0))
		v.pan = params.Pan
		v.reverse = params.Reverse
		v.env.SetADSR(s.attack, s.decay, s.sustain, s.release)
		v.env.Reset()

		semitones := float64(int(pitch) - int(RootPitch))
		v.pitchRatio = math.Pow(2, semitones/12.0) * (float64(snd.SampleRate) / float64(s.sampleRate))
		if v.reverse {
			v.pitchRatio = -v.pitchRatio
			v.position = float64(len(snd.Frames) - 1)
		} else {
			v.position = float64(snd.Offset)
		}

		v.filter = filterState{}
		if params.FilterEnabled {
			v.filter = filterState{
				enabled:  true,
				highPass: params.FilterHighPass,
				coeff:    onePoleCoeff(cutoffHzFromColumn(params.FilterCutoff), s.sampleRate),
			}
		}

		v.retrigEvery = 0
		v.retrigCount = 0
		v.retrigFrame = 0
		if params.RetrigEvery > 0 {
			v.retrigEvery = int(float64(params.RetrigEvery) / float64(time.Second) * float64(s.sampleRate))
			v.retrigDecay = params.RetrigDecay
		}
		return
	}

	s.drops++
	s.log("dropped note event: voice pool exhausted")
}

// NoteOff drops the gate on the voice matching column and pitch, if any.
func (s *Sampler) NoteOff(column int, pitch byte) {
	for i := range s.voices {
		v := &s.voices[i]
		if v.state == voiceBusy && v.column == column && v.pitch == pitch {
			v.gate = 0
			return
		}
	}
}

// stopNote fast-releases (5ms) any busy voice in column, implementing
// same-column voice stealing without ever stealing across columns.
func (s *Sampler) stopNote(column int) {
	for i := range s.voices {
		v := &s.voices[i]
		if v.state == voiceBusy && v.column == column {
			v.gate = 0
			v.env.SetRelease(stealRelease)
		}
	}
}

// Render additively mixes every busy voice's contribution into out. The
// caller owns zeroing or pre-mixing the buffer; Render never clears it.
func (s *Sampler) Render(ctx device.TrackContext, out []sound.Frame) {
	for i := range s.voices {
		v := &s.voices[i]
		if v.state != voiceBusy {
			continue
		}
		s.renderVoice(v, out)
	}
}

// renderVoice interpolates and mixes one voice's contribution into out. A
// voice is freed once its read position walks off the end (or, reversed,
// off the start) of its sound: the boundary check happens before each
// sample is produced, and the final in-range sample duplicates itself as
// its own interpolation neighbor rather than reading past the buffer.
func (s *Sampler) renderVoice(v *voice, out []sound.Frame) {
	snd := v.handle.Sound()
	frames := snd.Frames
	n := len(frames)
	floor := float64(snd.Offset)

	for i := range out {
		pos := v.position
		idx := int(math.Floor(pos))

		if v.reverse {
			if idx < int(floor) {
				s.freeVoice(v)
				return
			}
		} else if idx < 0 || idx >= n {
			s.freeVoice(v)
			return
		}

		neighbor := idx + 1
		if v.reverse {
			neighbor = idx - 1
		}
		if neighbor < 0 || neighbor >= n {
			neighbor = idx
		}

		weight := math.Abs(pos - float64(idx))
		cur := frames[idx]
		next := frames[neighbor]
		mixed := sound.Frame{
			L: cur.L*float32(1-weight) + next.L*float32(weight),
			R: cur.R*float32(1-weight) + next.R*float32(weight),
		}

		mixed.L = v.filter.process(mixed.L)
		mixed.R = v.filter.process(mixed.R)

		env := float32(v.env.Value(v.gate))
		gain := v.volume * env
		l, r := applyPan(mixed.L*gain, mixed.R*gain, v.pan)
		out[i].L += l
		out[i].R += r

		v.position += v.pitchRatio
		s.advanceRetrigger(v)
	}

	// A retrigger on the last frame leaves the envelope freshly reset (Idle)
	// with the gate still held; that voice keeps sounding.
	if v.env.State() == dsp.Idle && v.gate == 0 {
		s.freeVoice(v)
	}
}

func (s *Sampler) advanceRetrigger(v *voice) {
	if v.retrigEvery <= 0 {
		return
	}
	v.retrigFrame++
	if v.retrigFrame < v.retrigEvery {
		return
	}
	v.retrigFrame = 0
	v.retrigCount++
	v.env.Reset()
	v.volume *= v.retrigDecay
	snd := v.handle.Sound()
	if v.reverse {
		v.position = float64(len(snd.Frames) - 1)
	} else {
		v.position = float64(snd.Offset)
	}
}

// freeVoice marks the voice free. It does not touch the voice's sound
// handle: the engine collects it afterwards through TakeReleasedHandle,
// drops the reference, and forwards a last reference through the
// ReleaseOldSound back-channel — see the engine package.
func (s *Sampler) freeVoice(v *voice) {
	v.state = voiceFree
}

// TakeReleasedHandle returns and clears the handle of any voice that went
// free on this render pass but hasn't had its handle collected yet, so the
// engine can route it to ReleaseOldSound. Call once per render, per voice
// slot index.
func (s *Sampler) TakeReleasedHandle(slot int) (sound.Handle, bool) {
	v := &s.voices[slot]
	if v.state == voiceBusy || !v.handle.Valid() {
		return sound.Handle{}, false
	}
	h := v.handle
	v.handle = sound.Handle{}
	return h, true
}

func gainFactor(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20.0))
}

func mapRange(v, fromLo, fromHi, toLo, toHi float32) float32 {
	return (v-fromLo)*(toHi-toLo)/(fromHi-fromLo) + toLo
}
