// Package dsp holds the pure, allocation-free signal generators shared by
// the audio rendering pipeline. Nothing in this package touches I/O.
package dsp

import "time"

// State is the envelope's current phase.
type State int

const (
	Idle State = iota
	Attack
	Decay
	Sustain
	Release
)

// Envelope is a piecewise-linear ADSR. Value is meant to be called exactly
// once per output sample; it advances internal time by one sample period
// and never allocates, so it is safe to call from the audio thread.
type Envelope struct {
	sampleRate int
	attack     time.Duration
	decay      time.Duration
	sustain    float64
	release    time.Duration

	state        State
	amplitude    float64
	phaseStart   float64
	phaseElapsed float64 // seconds into the current phase
	prevGate     float64
}

// New creates an Envelope idle at zero amplitude.
func New(sampleRate int, attack, decay time.Duration, sustain float64, release time.Duration) *Envelope {
	return &Envelope{
		sampleRate: sampleRate,
		attack:     attack,
		decay:      decay,
		sustain:    sustain,
		release:    release,
	}
}

// SetADSR replaces the envelope's timing, e.g. when a voice is assigned a
// new note-on from an instrument slot whose settings differ from the
// previous occupant's (see SPEC_FULL.md Open Question 1: envelope settings
// live on the instrument slot, applied at note-on, not cached on the voice).
func (e *Envelope) SetADSR(attack, decay time.Duration, sustain float64, release time.Duration) {
	e.attack = attack
	e.decay = decay
	e.sustain = sustain
	e.release = release
}

// SetRelease shortens (or lengthens) the release phase's duration without
// touching attack/decay/sustain. Used when a voice is stolen: stop_note
// sets a 5ms release so the outgoing note fades quickly instead of
// clicking. If the envelope is not yet releasing, the new duration applies
// from the next falling edge; if it is already in Release, the release
// restarts immediately from the current amplitude with the new duration.
func (e *Envelope) SetRelease(release time.Duration) {
	e.release = release
	if e.state == Release {
		e.phaseStart = e.amplitude
		e.phaseElapsed = 0
	}
}

// State returns the current phase, mostly for tests.
func (e *Envelope) State() State {
	return e.state
}

// Reset returns the envelope to Idle at zero amplitude, e.g. when a voice
// slot is reused for an unrelated note after being freed.
func (e *Envelope) Reset() {
	e.state = Idle
	e.amplitude = 0
	e.phaseStart = 0
	e.phaseElapsed = 0
	e.prevGate = 0
}

func (e *Envelope) enterPhase(s State, start float64) {
	e.state = s
	e.phaseStart = start
	e.phaseElapsed = 0
}

// Value advances the envelope by one output sample and returns the
// resulting amplitude in [0,1]. gate is 0 or 1; a rising edge (0->1)
// (re)triggers Attack from the current amplitude, a falling edge (1->0)
// moves directly to Release from the current amplitude, regardless of
// phase.
func (e *Envelope) Value(gate float64) float64 {
	rising := gate > 0 && e.prevGate <= 0
	falling := gate <= 0 && e.prevGate > 0
	e.prevGate = gate

	if rising {
		e.enterPhase(Attack, e.amplitude)
	} else if falling && e.state != Idle {
		e.enterPhase(Release, e.amplitude)
	}

	dt := 1.0 / float64(e.sampleRate)

	for {
		switch e.state {
		case Idle:
			e.amplitude = 0
			return e.amplitude

		case Sustain:
			e.amplitude = e.sustain
			return e.amplitude

		case Attack:
			dur := e.attack.Seconds()
			if dur <= 0 {
				e.enterPhase(Decay, 1.0)
				continue
			}
			e.phaseElapsed += dt
			t := e.phaseElapsed / dur
			if t >= 1.0 {
				e.enterPhase(Decay, 1.0)
				continue
			}
			e.amplitude = e.phaseStart + (1.0-e.phaseStart)*t
			return e.amplitude

		case Decay:
			dur := e.decay.Seconds()
			if dur <= 0 {
				e.enterPhase(Sustain, e.sustain)
				continue
			}
			e.phaseElapsed += dt
			t := e.phaseElapsed / dur
			if t >= 1.0 {
				e.enterPhase(Sustain, e.sustain)
				continue
			}
			e.amplitude = e.phaseStart + (e.sustain-e.phaseStart)*t
			return e.amplitude

		case Release:
			dur := e.release.Seconds()
			if dur <= 0 {
				e.amplitude = 0
				e.enterPhase(Idle, 0)
				continue
			}
			e.phaseElapsed += dt
			t := e.phaseElapsed / dur
			if t >= 1.0 {
				e.amplitude = 0
				e.enterPhase(Idle, 0)
				continue
			}
			e.amplitude = e.phaseStart * (1.0 - t)
			return e.amplitude
		}
	}
}
