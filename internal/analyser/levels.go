package analyser

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Levels splits pcm into frames of samplesPerFrame samples and returns the
// RMS of each frame, scaled so the loudest frame is 1. frames fixes the
// number of frames reported; frames past the end of pcm are 0. A frames
// value <= 0 covers pcm exactly, rounding up.
func Levels(pcm []int16, samplesPerFrame, frames int) []float64 {
	if samplesPerFrame <= 0 {
		return nil
	}
	if frames <= 0 {
		frames = (len(pcm) + samplesPerFrame - 1) / samplesPerFrame
	}
	if frames == 0 {
		return nil
	}

	levels := make([]float64, frames)
	for f := range levels {
		start := f * samplesPerFrame
		if start >= len(pcm) {
			break
		}
		end := min(start+samplesPerFrame, len(pcm))

		var sum float64
		for _, s := range pcm[start:end] {
			x := float64(s) / pcmScale
			sum += x * x
		}
		levels[f] = math.Sqrt(sum / float64(end-start))
	}

	if peak := floats.Max(levels); peak > 0 {
		floats.Scale(1/peak, levels)
	}
	return levels
}

// PeakBin returns the index of the tallest bar, or -1 when every bar is
// empty.
func PeakBin(bars []float64) int {
	if len(bars) == 0 {
		return -1
	}
	i := floats.MaxIdx(bars)
	if bars[i] <= 0 {
		return -1
	}
	return i
}
