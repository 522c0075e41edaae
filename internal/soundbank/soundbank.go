// Package soundbank loads the WAV files backing an instrument slot table:
// a small on-disk manifest naming each slot's source file, root pitch,
// and envelope defaults, tagged with the BPM/slice metadata
// internal/getbpm derives from the filename or the audio itself.
package soundbank

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/go-audio/wav"

	"github.com/schollz/tracksampler/internal/device"
	"github.com/schollz/tracksampler/internal/getbpm"
	"github.com/schollz/tracksampler/internal/sound"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Slot describes one instrument slot's source file and playback defaults.
type Slot struct {
	Name    string  `json:"name"`
	Path    string  `json:"path"`
	Root    byte    `json:"root"`
	Attack  float64 `json:"attack_ms"`
	Decay   float64 `json:"decay_ms"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release_ms"`

	BPM   float64 `json:"bpm,omitempty"`
	Beats float64 `json:"beats,omitempty"`

	// Slices, when > 1, partitions the decoded sound into that many equal
	// spans; a NoteEvent's Sound index then selects one span instead of
	// always starting at the whole file's offset, the classic tracker
	// "slice chop". 0 or 1 means the slot plays as a single sound.
	Slices int `json:"slices,omitempty"`

	// These fields carry the slot's pan/filter/retrigger/reverse defaults,
	// applied to its track at startup the same way ADSR is.
	Pan            float32 `json:"pan,omitempty"`
	FilterEnabled  bool    `json:"filter_enabled,omitempty"`
	FilterHighPass bool    `json:"filter_highpass,omitempty"`
	FilterCutoff   byte    `json:"filter_cutoff,omitempty"`
	Reverse        bool    `json:"reverse,omitempty"`
	RetrigMs       float64 `json:"retrig_ms,omitempty"`
	RetrigDecay    float32 `json:"retrig_decay,omitempty"`
}

// Manifest is the on-disk slot table, indexed by slot number.
type Manifest struct {
	Slots map[int]Slot `json:"slots"`
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("soundbank: reading manifest %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("soundbank: parsing manifest %s: %w", path, err)
	}
	if m.Slots == nil {
		m.Slots = make(map[int]Slot)
	}
	return &m, nil
}

// Save writes the manifest back out as indented JSON.
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("soundbank: encoding manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// TagBPM fills in BPM/Beats for a slot from its source file, using
// internal/getbpm's heuristic (a BPM in the filename, else the beat count
// and tempo that best fit the file's duration). A slot
// already carrying a BPM is left untouched.
func (m *Manifest) TagBPM(slotIndex int) error {
	slot, ok := m.Slots[slotIndex]
	if !ok {
		return fmt.Errorf("soundbank: no slot %d", slotIndex)
	}
	if slot.BPM > 0 {
		return nil
	}
	beats, bpm, err := getbpm.GetBPM(slot.Path)
	if err != nil {
		return fmt.Errorf("soundbank: guessing bpm for %s: %w", slot.Path, err)
	}
	slot.BPM = bpm
	slot.Beats = beats
	m.Slots[slotIndex] = slot
	return nil
}

// ADSR returns the slot's envelope defaults converted to the duration
// types the sampler's SetADSR expects.
func (s Slot) ADSR() (attack, decay time.Duration, sustain float64, release time.Duration) {
	return time.Duration(s.Attack * float64(time.Millisecond)),
		time.Duration(s.Decay * float64(time.Millisecond)),
		s.Sustain,
		time.Duration(s.Release * float64(time.Millisecond))
}

// ColumnParams converts the slot's pan/filter/retrigger/reverse fields into
// the device-level settings SetColumnParams expects.
func (s Slot) ColumnParams() device.ColumnParams {
	return device.ColumnParams{
		Pan:            s.Pan,
		FilterEnabled:  s.FilterEnabled,
		FilterHighPass: s.FilterHighPass,
		FilterCutoff:   s.FilterCutoff,
		Reverse:        s.Reverse,
		RetrigEvery:    time.Duration(s.RetrigMs * float64(time.Millisecond)),
		RetrigDecay:    s.RetrigDecay,
	}
}

// Loader decodes a WAV file into a Sound, abstracted so tests can swap in
// a fake decoder without real files on disk.
type Loader func(path string) (*sound.Sound, error)

// LoadAll decodes every slot's source file via load, returning a
// slot-index-keyed table of sound handles ready to install into an
// engine. A slot whose file fails to decode is skipped and reported.
func LoadAll(m *Manifest, load Loader) (map[int]sound.Handle, []error) {
	out := make(map[int]sound.Handle, len(m.Slots))
	var errs []error
	for idx, slot := range m.Slots {
		snd, err := load(slot.Path)
		if err != nil {
			errs = append(errs, fmt.Errorf("soundbank: slot %d (%s): %w", idx, slot.Path, err))
			continue
		}
		out[idx] = sound.NewHandle(snd)
	}
	return out, errs
}

// SliceSlotStride scales a base slot index to make room for its slices: a
// sliced slot's spans are installed at idx*SliceSlotStride+sliceIndex,
// leaving headroom for up to SliceSlotStride slices per slot (ample for the
// "slice chop" technique, which rarely needs more than a few dozen).
const SliceSlotStride = 100

// LoadAllSliced is LoadAll, but a slot with Slices > 1 is decoded once and
// expanded into one handle per slice, installed at
// idx*SliceSlotStride+sliceIndex instead of a single handle at idx. A
// NoteEvent's Sound field then addresses an individual slice directly.
func LoadAllSliced(m *Manifest, load Loader) (map[int]sound.Handle, []error) {
	out := make(map[int]sound.Handle, len(m.Slots))
	var errs []error
	for idx, slot := range m.Slots {
		if slot.Slices > 1 {
			slices, err := LoadSlicedSlot(slot, load)
			if err != nil {
				errs = append(errs, fmt.Errorf("soundbank: slot %d (%s): %w", idx, slot.Path, err))
				continue
			}
			for i, snd := range slices {
				out[idx*SliceSlotStride+i] = sound.NewHandle(snd)
			}
			continue
		}
		snd, err := load(slot.Path)
		if err != nil {
			errs = append(errs, fmt.Errorf("soundbank: slot %d (%s): %w", idx, slot.Path, err))
			continue
		}
		out[idx] = sound.NewHandle(snd)
	}
	return out, errs
}

// DecodeFile is the real Loader: it opens a WAV file from disk and
// decodes it into a Sound.
func DecodeFile(path string) (*sound.Sound, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("soundbank: opening %s: %w", path, err)
	}
	defer f.Close()
	return sound.Decode(wav.NewDecoder(f))
}

// SliceSound partitions snd into n equal-length spans, each a Sound
// sharing the source's sample rate with Offset reset to 0 (the slice
// boundary is the new onset, independent of the whole file's detected
// silence offset). n <= 1 returns snd unchanged as the sole element.
func SliceSound(snd *sound.Sound, n int) []*sound.Sound {
	if n <= 1 {
		return []*sound.Sound{snd}
	}
	total := len(snd.Frames)
	spanLen := total / n
	if spanLen == 0 {
		return []*sound.Sound{snd}
	}

	slices := make([]*sound.Sound, n)
	for i := 0; i < n; i++ {
		start := i * spanLen
		end := start + spanLen
		if i == n-1 {
			end = total
		}
		slices[i] = &sound.Sound{
			SampleRate: snd.SampleRate,
			Frames:     snd.Frames[start:end],
			Offset:     0,
		}
	}
	return slices
}

// LoadSlicedSlot decodes a slot's source file and, if its manifest entry
// requests slicing, expands it into one Sound per slice. The returned
// slice is always at least length 1.
func LoadSlicedSlot(slot Slot, load Loader) ([]*sound.Sound, error) {
	snd, err := load(slot.Path)
	if err != nil {
		return nil, err
	}
	return SliceSound(snd, slot.Slices), nil
}

// ScanDirectory lists the names of the .wav/.flac files directly in dir
// (extension matched case-insensitively), sorted by name. Subdirectories
// are skipped, not listed.
func ScanDirectory(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("soundbank: reading %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".wav" || ext == ".flac" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
