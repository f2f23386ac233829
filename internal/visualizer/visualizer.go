// Package visualizer draws analyser output as terminal text.
package visualizer

import "strings"

// Renderer turns one frame of bin levels (each in [0,1], lowest frequency
// first) into a width×height block of text.
type Renderer interface {
	Name() string
	Update(bars []float64, width, height int)
	View() string
}

// ModeNames lists the renderers in cycling order.
var ModeNames = []string{"bars", "braille", "dense", "waterfall"}

// Modes returns one renderer per entry of ModeNames. fps is the rate at
// which Update will be called and tunes the bar motion.
func Modes(p Palette, fps int) []Renderer {
	return []Renderer{
		NewBars(p, fps),
		NewBraille(p),
		NewDense(),
		NewWaterfall(p, fps),
	}
}

// ModeIndex returns the position of name in ModeNames, or -1.
func ModeIndex(name string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range ModeNames {
		if n == name {
			return i
		}
	}
	return -1
}

// resample linearly interpolates src across len(dst) points, mapping the
// first and last entries onto each other.
func resample(dst, src []float64) {
	if len(src) == 0 {
		clear(dst)
		return
	}
	den := max(len(dst)-1, 1)
	last := len(src) - 1
	for c := range dst {
		frac := float64(c) / float64(den) * float64(last)
		lo := int(frac)
		hi := min(lo+1, last)
		t := frac - float64(lo)
		dst[c] = clamp01(src[lo]*(1-t) + src[hi]*t)
	}
}
