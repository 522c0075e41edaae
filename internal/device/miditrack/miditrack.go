// Package miditrack is an alternative track device: instead of rendering
// PCM, it forwards NoteEvents to an external MIDI device. It satisfies the
// same device.Device capability the sampler does, so a track can hold
// either kind interchangeably (the dynamic-dispatch device note).
package miditrack

import (
	"log"

	"github.com/schollz/tracksampler/internal/device"
	"github.com/schollz/tracksampler/internal/midiconnector"
	"github.com/schollz/tracksampler/internal/music"
	"github.com/schollz/tracksampler/internal/pattern"
	"github.com/schollz/tracksampler/internal/sound"
)

const velocityFixed = 100

// sender is the slice of midiconnector.Device that a Track needs. Kept as
// an interface so tests can exercise SendEvent's note-tracking logic
// without a real MIDI port.
type sender interface {
	Open() error
	NoteOn(channel, note, velocity uint8) error
	NoteOff(channel, note uint8) error
	Close() error
}

// Track forwards NoteEvents to a connected MIDI output device on a fixed
// channel. It never renders PCM: Render is a no-op, present only to
// satisfy device.Device, since a MIDI track contributes no audio to the
// mix itself (the external synth does the sounding).
type Track struct {
	dev      sender
	channel  uint8
	sounding bool
	lastNote byte
}

// New opens (but does not yet connect to) a MIDI track addressed at the
// device matching name, sending on the given channel.
func New(name string, channel uint8) (*Track, error) {
	d, err := midiconnector.New(name)
	if err != nil {
		return nil, err
	}
	return &Track{dev: d, channel: channel}, nil
}

// Connect opens the underlying MIDI output port.
func (t *Track) Connect() error {
	return t.dev.Open()
}

// Close sends note-offs for anything still sounding and releases the port.
func (t *Track) Close() error {
	return t.dev.Close()
}

// Render is a no-op: a MIDI track never contributes PCM to the mix.
func (t *Track) Render(ctx device.TrackContext, out []sound.Frame) {}

// SendEvent forwards the event as a MIDI note-on/note-off. A NoteEvent
// carries no note number for a note-off, so the track remembers the
// pitch it last sounded and turns that one off. The sound index is
// irrelevant for a MIDI track (no PCM is involved) and is ignored.
func (t *Track) SendEvent(ctx device.TrackContext, ev pattern.NoteEvent) {
	if ev.IsNoteOff() {
		if t.sounding {
			if err := t.dev.NoteOff(t.channel, t.lastNote); err != nil {
				log.Printf("[MIDITRACK] note off: %v", err)
			}
			t.sounding = false
		}
		return
	}

	if t.sounding {
		if err := t.dev.NoteOff(t.channel, t.lastNote); err != nil {
			log.Printf("[MIDITRACK] note off: %v", err)
		}
	}
	if err := t.dev.NoteOn(t.channel, ev.Pitch, velocityFixed); err != nil {
		log.Printf("[MIDITRACK] note on %s: %v", music.MidiToNoteName(int(ev.Pitch)), err)
		t.sounding = false
		return
	}
	t.lastNote = ev.Pitch
	t.sounding = true
}

var _ device.Device = (*Track)(nil)
