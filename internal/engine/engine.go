// Package engine is the top-level real-time mixer: it owns tracks and the
// transport, drains the command bridge, sub-slices each callback at line
// boundaries, dispatches note events, and sums track output into the
// host-supplied buffer.
package engine

import (
	"log"
	"math"
	"sync/atomic"

	"github.com/schollz/tracksampler/internal/device"
	"github.com/schollz/tracksampler/internal/pattern"
	"github.com/schollz/tracksampler/internal/sound"
	"github.com/schollz/tracksampler/internal/transport"
)

// ParamSetter is implemented by devices that accept SetParam commands.
type ParamSetter interface {
	SetParam(paramID int, value float64)
}

// ColumnParamSetter is implemented by devices that accept SetColumnParams
// commands (currently the sampler).
type ColumnParamSetter interface {
	SetColumnParams(column int, params device.ColumnParams)
}

// releaseSource is implemented by devices (the sampler) that hold voice
// slots which may end up owning the last reference to a Sound.
type releaseSource interface {
	VoiceCount() int
	TakeReleasedHandle(slot int) (sound.Handle, bool)
}

// Engine is the real-time mixer described by §2: it owns Tracks and a
// Transport, and exposes Process as the audio callback entry point.
type Engine struct {
	Tracks    []*Track
	Transport *transport.Transport
	Bridge    *Bridge

	sounds    map[int]sound.Handle
	masterRMS packedRMS

	// publishedPattern mirrors Transport.Pattern for producer-side reads
	// (oscbridge needs the current pattern's contents to build a resized
	// copy before sending SetPatternLength). Lock-free, same rationale as
	// masterRMS: the audio thread publishes, the editor thread only loads.
	publishedPattern atomic.Pointer[pattern.Pattern]
}

// New constructs an Engine with the given tracks, ready to render at
// sampleRate. bridgeCapacity sizes the command queue.
func New(sampleRate, bridgeCapacity int, tracks []*Track) *Engine {
	return &Engine{
		Tracks:    tracks,
		Transport: transport.New(sampleRate),
		Bridge:    NewBridge(bridgeCapacity),
		sounds:    make(map[int]sound.Handle),
	}
}

// Sound implements device.TrackContext: it looks up an installed sound by
// slot index and retains a new reference on the caller's behalf, since the
// caller (a voice) becomes a new owner.
func (e *Engine) Sound(index int) (sound.Handle, bool) {
	h, ok := e.sounds[index]
	if !ok {
		return sound.Handle{}, false
	}
	return h.Retain(), true
}

var _ device.TrackContext = (*Engine)(nil)

// MasterRMS returns the most recently published whole-mix RMS pair.
func (e *Engine) MasterRMS() RMS {
	return e.masterRMS.load()
}

// Send forwards cmd to the engine's command bridge. Lets a producer (e.g.
// oscbridge) depend on the Engine itself rather than reaching into its
// Bridge field, the same way CurrentPattern is exposed.
func (e *Engine) Send(cmd Command) bool {
	return e.Bridge.Send(cmd)
}

// CurrentPattern returns the pattern most recently installed or resized by
// the audio thread, or nil if none has been set yet. Safe to call from the
// editor thread; producers needing to build a resized copy (SetPatternLength)
// read the current contents through this rather than touching
// Transport.Pattern directly.
func (e *Engine) CurrentPattern() *pattern.Pattern {
	return e.publishedPattern.Load()
}

// Process is the real-time callback entry point: the host supplies a
// zeroed stereo buffer, Process fills it. Frames are sub-sliced at line
// boundaries so note-on events land on the exact sample where their line
// starts, never drifting with callback-size misalignment.
func (e *Engine) Process(out []sound.Frame) {
	e.Bridge.DrainCommands(e.applyCommand)

	n := len(out)
	pos := 0
	for pos < n {
		if e.Transport.Playing && e.Transport.Pattern != nil && e.Transport.AtLineBoundary() {
			e.dispatchLineEvents()
		}

		sliceLen := n - pos
		if e.Transport.Playing && e.Transport.Pattern != nil {
			fpl := e.Transport.FramesPerLine()
			if fpl > 0 {
				until := e.Transport.FramesUntilNextBoundary()
				if until <= 0 {
					until = fpl
				}
				if until < float64(sliceLen) {
					candidate := int(until)
					if candidate > 0 {
						sliceLen = candidate
					}
				}
			}
		}

		sub := out[pos : pos+sliceLen]
		for _, tr := range e.Tracks {
			tr.Render(e, sub)
			e.collectReleases(tr)
		}
		e.Transport.Advance(float64(sliceLen))
		pos += sliceLen
	}

	e.publishMasterRMS(out)
}

func (e *Engine) publishMasterRMS(out []sound.Frame) {
	var sumSqL, sumSqR float64
	for _, f := range out {
		sumSqL += float64(f.L) * float64(f.L)
		sumSqR += float64(f.R) * float64(f.R)
	}
	n := len(out)
	if n == 0 {
		return
	}
	e.masterRMS.store(RMS{
		L: float32(math.Sqrt(sumSqL / float64(n))),
		R: float32(math.Sqrt(sumSqR / float64(n))),
	})
}

func (e *Engine) dispatchLineEvents() {
	line := e.Transport.CurrentLine()
	ln, err := e.Transport.Pattern.LineAt(line)
	if err != nil {
		return
	}
	for trackIdx, cell := range ln.Cells {
		if trackIdx >= len(e.Tracks) {
			break
		}
		ev, ok := cell.ToNoteEvent(trackIdx)
		if !ok {
			continue
		}
		track := e.Tracks[trackIdx]
		if !ev.IsNoteOff() {
			ev.Pitch = track.ApplyModulation(ev.Pitch)
		}
		if track.Device != nil {
			track.Device.SendEvent(e, ev)
		}
	}
}

func (e *Engine) collectReleases(tr *Track) {
	rs, ok := tr.Device.(releaseSource)
	if !ok {
		return
	}
	for slot := 0; slot < rs.VoiceCount(); slot++ {
		h, ok := rs.TakeReleasedHandle(slot)
		if !ok {
			continue
		}
		if h.Release() {
			e.Bridge.PostRelease(h)
		}
	}
}

func (e *Engine) applyCommand(cmd Command) {
	switch cmd.Kind {
	case InstallSound:
		if old, ok := e.sounds[cmd.SlotIndex]; ok {
			if old.Release() {
				e.Bridge.PostRelease(old)
			}
		}
		e.sounds[cmd.SlotIndex] = cmd.Sound

	case SetParam:
		if cmd.DeviceID < 0 || cmd.DeviceID >= len(e.Tracks) {
			return
		}
		if setter, ok := e.Tracks[cmd.DeviceID].Device.(ParamSetter); ok {
			setter.SetParam(cmd.ParamID, cmd.Value)
		}

	case SetTempo:
		e.Transport.BPM = cmd.BPM

	case SetPattern:
		if cmd.Pattern != nil {
			e.Transport.SetPattern(cmd.Pattern)
			e.publishedPattern.Store(cmd.Pattern)
			log.Printf("[ENGINE] switched to pattern %d", cmd.Pattern.Index)
		}

	case TogglePlay:
		e.Transport.TogglePlay()

	case SetPatternLength:
		// cmd.Pattern arrives pre-resized by the producer (pattern.Resized,
		// built off this pattern's last published snapshot); applying it is
		// a pointer swap, never a live resize, so this stays allocation-free.
		// Transport.SetPattern is deliberately not used here since it resets
		// LineFraction, which a length change must not do.
		if cmd.Pattern != nil && e.Transport.Pattern != nil && e.Transport.Pattern.Index == cmd.PatternIndex {
			e.Transport.Pattern = cmd.Pattern
			e.publishedPattern.Store(cmd.Pattern)
		}

	case SetColumnParams:
		if cmd.DeviceID < 0 || cmd.DeviceID >= len(e.Tracks) {
			return
		}
		if setter, ok := e.Tracks[cmd.DeviceID].Device.(ColumnParamSetter); ok {
			setter.SetColumnParams(cmd.Column, cmd.ColumnParams)
		}
	}
}
