// Package output bridges the engine's Process callback to a real audio
// device via oto. oto pulls bytes through io.Reader; Backend renders
// engine frames and packs them into interleaved float32 stereo samples.
package output

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/schollz/tracksampler/internal/sound"
)

const bytesPerFrame = 8 // stereo, 4 bytes per channel (float32LE)

// Render fills out with the next block of audio. Implemented by
// *engine.Engine in practice; kept as a function type here so output has
// no import dependency on the engine package.
type Render func(out []sound.Frame)

// Backend owns the oto context/player and adapts Render to oto's
// io.Reader-shaped pull model.
type Backend struct {
	ctx    *oto.Context
	player *oto.Player
	render Render

	frames []sound.Frame

	mu      sync.Mutex
	started bool
}

// New opens an oto context at sampleRate and wires render as the audio
// source.
func New(sampleRate int, render Render) (*Backend, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0,
	})
	if err != nil {
		return nil, fmt.Errorf("output: creating oto context: %w", err)
	}
	<-ready

	b := &Backend{ctx: ctx, render: render}
	b.player = ctx.NewPlayer(b)
	return b, nil
}

// Read implements io.Reader for oto's player: it renders the requested
// number of frames and packs them as little-endian float32 stereo.
func (b *Backend) Read(p []byte) (int, error) {
	numFrames := len(p) / bytesPerFrame
	if cap(b.frames) < numFrames {
		b.frames = make([]sound.Frame, numFrames)
	}
	out := b.frames[:numFrames]
	for i := range out {
		out[i] = sound.Frame{}
	}

	b.render(out)

	for i, f := range out {
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame:], math.Float32bits(f.L))
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame+4:], math.Float32bits(f.R))
	}
	return numFrames * bytesPerFrame, nil
}

// Start begins pulling frames through the player.
func (b *Backend) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		b.player.Play()
		b.started = true
	}
}

// Stop pauses playback; the player can be resumed with Start.
func (b *Backend) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		b.player.Pause()
		b.started = false
	}
}

// Close stops playback and releases the player.
func (b *Backend) Close() error {
	b.Stop()
	return b.player.Close()
}
