// Package transport holds the pattern cursor: the fractional line position
// that advances according to tempo and reports where line boundaries
// fall. It emits no note events and has no device or mixing knowledge of
// its own — the
// engine package walks the sub-slices this package identifies and
// dispatches to tracks.
package transport

import (
	"math"

	"github.com/schollz/tracksampler/internal/pattern"
)

// Transport is the pattern cursor: current pattern, fractional line
// position, tempo, and play state.
type Transport struct {
	Pattern      *pattern.Pattern
	LineFraction float64
	BPM          float64
	LinesPerBeat int
	Playing      bool
	sampleRate   int
}

// New creates a stopped Transport with sensible tempo defaults.
func New(sampleRate int) *Transport {
	return &Transport{
		BPM:          120,
		LinesPerBeat: 4,
		sampleRate:   sampleRate,
	}
}

// FramesPerLine is how many output frames one pattern line occupies at
// the transport's current tempo.
func (t *Transport) FramesPerLine() float64 {
	return pattern.FramesPerLine(t.BPM, t.LinesPerBeat, t.sampleRate)
}

// SetPattern switches the active pattern, resetting the line position to
// the start (used for the editor's "switch pattern" command; mid-pattern
// pattern sequencing lives outside this core).
func (t *Transport) SetPattern(p *pattern.Pattern) {
	t.Pattern = p
	t.LineFraction = 0
}

// CurrentLine returns the integer line the cursor currently sits at, or -1
// if there is no pattern loaded.
func (t *Transport) CurrentLine() int {
	if t.Pattern == nil || t.Pattern.Len() == 0 {
		return -1
	}
	return int(math.Floor(t.LineFraction)) % t.Pattern.Len()
}

// AtLineBoundary reports whether the cursor sits exactly on an integer
// line (i.e. a note-dispatch point), within floating-point epsilon.
func (t *Transport) AtLineBoundary() bool {
	frac := t.LineFraction - math.Floor(t.LineFraction)
	return frac < 1e-9 || frac > 1-1e-9
}

// FramesUntilNextBoundary returns how many output frames remain before the
// cursor crosses into the next line, given the current tempo. Returns 0 if
// already sitting on a boundary, and math.Inf(1) if no pattern is loaded
// or the transport isn't playing (so the caller renders the whole
// remaining callback in one slice).
func (t *Transport) FramesUntilNextBoundary() float64 {
	if !t.Playing || t.Pattern == nil {
		return math.Inf(1)
	}
	if t.AtLineBoundary() {
		return 0
	}
	next := math.Ceil(t.LineFraction)
	return (next - t.LineFraction) * t.FramesPerLine()
}

// Advance moves the cursor forward by the given number of output frames,
// wrapping to line 0 at the end of the pattern. A no-op while stopped.
func (t *Transport) Advance(frames float64) {
	if !t.Playing || t.Pattern == nil || t.Pattern.Len() == 0 {
		return
	}
	fpl := t.FramesPerLine()
	if fpl <= 0 {
		return
	}
	t.LineFraction += frames / fpl
	length := float64(t.Pattern.Len())
	if t.LineFraction >= length {
		t.LineFraction = math.Mod(t.LineFraction, length)
	}
}

// TogglePlay flips the playing flag without disturbing the current line,
// so a subsequent TogglePlay resumes from where it left off.
func (t *Transport) TogglePlay() {
	t.Playing = !t.Playing
}
