package sound

import "sync/atomic"

// Handle is a shared-ownership reference to a Sound. The editor thread and
// zero or more voices may each hold a Handle to the same underlying Sound;
// the Sound is only eligible for destruction once every Handle has been
// released. Release must never be called on the audio thread when it
// might be the last one (see the engine's command bridge, which instead
// hands the Handle back to the editor thread to drop there).
type Handle struct {
	snd  *Sound
	refs *int32
}

// NewHandle wraps snd in a Handle with an initial reference count of 1.
func NewHandle(snd *Sound) Handle {
	count := int32(1)
	return Handle{snd: snd, refs: &count}
}

// Sound returns the underlying immutable Sound. Safe to call from any
// thread; the Sound itself never mutates after construction.
func (h Handle) Sound() *Sound {
	return h.snd
}

// Valid reports whether the handle wraps a Sound.
func (h Handle) Valid() bool {
	return h.snd != nil
}

// Retain increments the reference count and returns a new Handle sharing
// it. Used whenever a second owner (e.g. a voice) starts holding the same
// Sound.
func (h Handle) Retain() Handle {
	atomic.AddInt32(h.refs, 1)
	return Handle{snd: h.snd, refs: h.refs}
}

// Release decrements the reference count and reports whether this call
// dropped it to zero, meaning the caller held the last reference and is
// responsible for forwarding it to the editor thread for destruction.
func (h Handle) Release() (last bool) {
	return atomic.AddInt32(h.refs, -1) == 0
}

// RefCount returns the current reference count, for tests and diagnostics.
func (h Handle) RefCount() int {
	return int(atomic.LoadInt32(h.refs))
}
