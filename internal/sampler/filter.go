package sampler

import "math"

// filterState is a single one-pole low-pass or high-pass filter applied to
// a voice's interpolated sample before the envelope multiply. The zero
// value passes signal through unchanged, so an unconfigured voice (the
// common case) costs nothing.
type filterState struct {
	enabled   bool
	highPass  bool
	coeff     float32
	prevIn    float32
	prevOut   float32
}

func (f *filterState) process(x float32) float32 {
	if !f.enabled {
		return x
	}
	if f.highPass {
		// coeff is the low-pass smoothing factor; the high-pass form at the
		// same cutoff uses its complement.
		y := (1 - f.coeff) * (f.prevOut + x - f.prevIn)
		f.prevIn = x
		f.prevOut = y
		return y
	}
	y := f.prevOut + f.coeff*(x-f.prevOut)
	f.prevOut = y
	return y
}

// cutoffHzFromColumn maps a tracker column value (0-254) exponentially
// onto 20Hz-20kHz, matching the teacher's own comment on ColLowPassFilter
// and ColHighPassFilter ("00-FE maps 20Hz to 20kHz exponentially").
func cutoffHzFromColumn(col byte) float64 {
	t := float64(col) / 254.0
	return 20.0 * math.Pow(1000.0, t)
}

// onePoleCoeff derives the feedback coefficient for a one-pole filter at
// cutoffHz running at sampleRate.
func onePoleCoeff(cutoffHz float64, sampleRate int) float32 {
	dt := 1.0 / float64(sampleRate)
	rc := 1.0 / (2 * math.Pi * cutoffHz)
	return float32(dt / (rc + dt))
}
