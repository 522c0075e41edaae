// Package device defines the capability a track chain dispatches against.
// Kept as its own small package (rather than living in internal/engine) so
// that device implementations — internal/sampler, internal/device/miditrack
// — don't need to import the engine that hosts them.
package device

import (
	"time"

	"github.com/schollz/tracksampler/internal/pattern"
	"github.com/schollz/tracksampler/internal/sound"
)

// TrackContext is what a device uses to resolve the sound indices carried
// on NoteEvents into actual shared sound handles. The engine implements
// this over its sound table.
type TrackContext interface {
	Sound(index int) (sound.Handle, bool)
}

// Device is the capability every track chain member implements: it can
// render a sub-slice of output and accept dispatched note events. Chosen
// as a dynamic-dispatch interface (rather than a closed tagged-union
// switch) since the set of device kinds is meant to grow (sampler,
// MIDI-out) without every caller needing to know the full list.
type Device interface {
	Render(ctx TrackContext, out []sound.Frame)
	SendEvent(ctx TrackContext, ev pattern.NoteEvent)
}

// ColumnParams holds the per-column rendering parameters (pan, filter,
// retrigger, reverse) a device applies to a voice at note-on. Defined here
// rather than in internal/sampler so internal/engine can address it through
// ColumnParamSetter without importing a concrete device package.
type ColumnParams struct {
	Pan float32 // [-1,1], 0 = center

	FilterEnabled  bool
	FilterHighPass bool
	FilterCutoff   byte // column value, mapped exponentially to Hz

	Reverse bool

	RetrigEvery time.Duration // 0 disables
	RetrigDecay float32       // volume multiplier applied per repeat
}
