package engine

import (
	"math"
	"sync/atomic"
)

// packedRMS is a lock-free holder for an RMS pair: both channels packed
// into one atomic word so a reader never observes a torn L/R pair, and
// publishing never allocates.
type packedRMS struct {
	bits atomic.Uint64
}

func (p *packedRMS) store(v RMS) {
	bits := uint64(math.Float32bits(v.L))<<32 | uint64(math.Float32bits(v.R))
	p.bits.Store(bits)
}

func (p *packedRMS) load() RMS {
	bits := p.bits.Load()
	return RMS{
		L: math.Float32frombits(uint32(bits >> 32)),
		R: math.Float32frombits(uint32(bits)),
	}
}
