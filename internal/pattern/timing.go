package pattern

// FramesPerLine returns how many output frames one pattern line occupies
// at the given tempo. Matches the teacher's CalculatePhraseTicks summation
// logic, adapted to produce a frame count instead of an abstract tick
// count: 60/bpm seconds per beat, divided across linesPerBeat lines,
// scaled to the output sample rate.
func FramesPerLine(bpm float64, linesPerBeat int, sampleRate int) float64 {
	if bpm <= 0 || linesPerBeat <= 0 {
		return 0
	}
	secondsPerBeat := 60.0 / bpm
	secondsPerLine := secondsPerBeat / float64(linesPerBeat)
	return secondsPerLine * float64(sampleRate)
}
