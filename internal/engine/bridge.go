package engine

import (
	"github.com/schollz/tracksampler/internal/device"
	"github.com/schollz/tracksampler/internal/pattern"
	"github.com/schollz/tracksampler/internal/sound"
)

// CommandKind enumerates the editor-to-engine message types carried over
// the command bridge.
type CommandKind int

const (
	// InstallSound places a shared sound reference into an instrument slot.
	InstallSound CommandKind = iota
	// SetParam applies a device parameter immediately; monotonic.
	SetParam
	// SetTempo changes the transport's BPM.
	SetTempo
	// SetPattern switches the transport's active pattern.
	SetPattern
	// TogglePlay flips the transport's playing flag.
	TogglePlay
	// SetPatternLength swaps in a pre-resized pattern built off the audio
	// thread; see Engine.applyCommand.
	SetPatternLength
	// SetColumnParams replaces a device column's pan/filter/retrigger/
	// reverse settings, applied at that column's next note-on.
	SetColumnParams
)

// Command is one message sent from the editor thread to the engine.
// Not every field is meaningful for every Kind; see the CommandKind docs.
type Command struct {
	Kind CommandKind

	DeviceID  int
	SlotIndex int
	Sound     sound.Handle

	ParamID int
	Value   float64

	BPM          float64
	PatternIndex int
	Length       int
	Pattern      *pattern.Pattern

	Column       int
	ColumnParams device.ColumnParams
}

// Bridge is the bounded, single-producer/single-consumer channel pair
// connecting the editor thread to the audio thread: Commands flows
// editor->audio, Releases flows audio->editor (the ReleaseOldSound
// back-channel for sounds a voice finished playing). Both directions are
// non-blocking: a full queue means the sender drops the message and the
// caller is told so it can surface a recoverable error.
type Bridge struct {
	commands chan Command
	releases chan sound.Handle
}

// NewBridge allocates a Bridge with the given queue depth. Must be sized
// so that worst-case editor bursts never need to block; callers that hit
// a full queue get false back from Send and should treat it as a
// recoverable, user-visible error rather than retrying in a loop.
func NewBridge(capacity int) *Bridge {
	return &Bridge{
		commands: make(chan Command, capacity),
		releases: make(chan sound.Handle, capacity),
	}
}

// Send enqueues a command for the audio thread to pick up on its next
// callback. Returns false (without blocking) if the queue is full.
func (b *Bridge) Send(cmd Command) bool {
	select {
	case b.commands <- cmd:
		return true
	default:
		return false
	}
}

// DrainCommands is called once per audio callback, before any mixing
// begins: it pulls every currently-queued command and invokes handle for
// each, never blocking and never allocating (ranging over a channel with
// a default case costs nothing beyond the receive itself).
func (b *Bridge) DrainCommands(handle func(Command)) {
	for {
		select {
		case cmd := <-b.commands:
			handle(cmd)
		default:
			return
		}
	}
}

// PostRelease is called by the audio thread when a voice drops what turns
// out to be the last reference to a Sound. Non-blocking; if the return
// channel is full it returns false and the handle is not posted. The
// sampler has already cleared the handle by then, and the engine's callers
// do not retry a failed post.
func (b *Bridge) PostRelease(h sound.Handle) bool {
	select {
	case b.releases <- h:
		return true
	default:
		return false
	}
}

// DrainReleases is called by the editor thread to collect handles the
// audio thread has finished with, so their underlying Sound can be freed
// off the audio thread.
func (b *Bridge) DrainReleases(handle func(sound.Handle)) {
	for {
		select {
		case h := <-b.releases:
			handle(h)
		default:
			return
		}
	}
}
