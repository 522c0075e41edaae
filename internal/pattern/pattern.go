// Package pattern holds the data model for pattern grids: the note events
// a track plays, organized into lines and patterns. It is a pure data
// package with no rendering or timing logic of its own; internal/engine
// walks a Pattern line by line and turns its cells into NoteEvents.
package pattern

import "fmt"

// PitchOff is the reserved pitch value meaning "note-off" rather than a
// playable pitch.
const PitchOff byte = 255

// NoSound marks a Cell that carries a pitch but no sound reference (rare
// in practice, but the data model allows it; the transport simply won't
// find a sound to dispatch).
const NoSound = -1

// NoteEvent is what the transport dispatches to a track's device at a
// line boundary.
type NoteEvent struct {
	Track int
	Pitch byte
	Sound int // index into the engine's sound table, or NoSound
}

// IsNoteOff reports whether this event represents a note-off.
func (e NoteEvent) IsNoteOff() bool {
	return e.Pitch == PitchOff
}

// Cell is one track's entry within a pattern line. The zero value is an
// empty cell that plays nothing, so a freshly allocated pattern grid is
// silent by default.
type Cell struct {
	Active bool
	Pitch  byte
	Sound  int
}

// ToNoteEvent converts an active cell at the given track into a
// NoteEvent, or reports ok=false if the cell is empty.
func (c Cell) ToNoteEvent(track int) (NoteEvent, bool) {
	if !c.Active {
		return NoteEvent{}, false
	}
	return NoteEvent{Track: track, Pitch: c.Pitch, Sound: c.Sound}, true
}

// Line is one row of the pattern grid, one Cell per track.
type Line struct {
	Cells []Cell
}

// Pattern is an ordered, fixed-length sequence of lines referenced by a
// stable index from the editor thread.
type Pattern struct {
	Index int
	Lines []Line
}

// Len returns the pattern's length in lines.
func (p *Pattern) Len() int {
	return len(p.Lines)
}

// New creates a pattern of the given length with numTracks empty cells per
// line.
func New(index, length, numTracks int) *Pattern {
	lines := make([]Line, length)
	for i := range lines {
		lines[i] = Line{Cells: make([]Cell, numTracks)}
	}
	return &Pattern{Index: index, Lines: lines}
}

// SetLength resizes the pattern in place, truncating or zero-extending. It
// allocates when growing, so it must only be called from the editor/producer
// side, never from the audio thread; Resized builds a copy for engine
// command dispatch to swap in instead.
func (p *Pattern) SetLength(length, numTracks int) {
	if length == len(p.Lines) {
		return
	}
	if length < len(p.Lines) {
		p.Lines = p.Lines[:length]
		return
	}
	grown := make([]Line, length)
	copy(grown, p.Lines)
	for i := len(p.Lines); i < length; i++ {
		grown[i] = Line{Cells: make([]Cell, numTracks)}
	}
	p.Lines = grown
}

// Resized returns a new Pattern at the given length, with p's existing line
// contents copied forward and any new lines zero-filled, leaving p
// untouched. Unlike SetLength, this never mutates a pattern already live on
// the audio thread — the producer calls Resized and sends the result as a
// pointer swap, the same way a brand new pattern is installed via SetPattern.
func Resized(p *Pattern, length, numTracks int) *Pattern {
	out := New(p.Index, length, numTracks)
	n := len(p.Lines)
	if length < n {
		n = length
	}
	for i := 0; i < n; i++ {
		cells := make([]Cell, numTracks)
		copy(cells, p.Lines[i].Cells)
		out.Lines[i] = Line{Cells: cells}
	}
	return out
}

// LineAt returns the line at idx, error if out of range.
func (p *Pattern) LineAt(idx int) (Line, error) {
	if idx < 0 || idx >= len(p.Lines) {
		return Line{}, fmt.Errorf("pattern: line %d out of range [0,%d)", idx, len(p.Lines))
	}
	return p.Lines[idx], nil
}
