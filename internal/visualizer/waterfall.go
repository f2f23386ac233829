package visualizer

import "strings"

var waterfallChars = []rune{' ', '.', ':', '-', '=', '+', '*', '#', '%', '@'}

// Waterfall renders a scrolling spectrogram: the newest frame on the top
// row, older frames fading as they move down.
type Waterfall struct {
	palette Palette
	profile colorProfile
	smooth  springField
	history [][]float64
	output  string
}

func NewWaterfall(p Palette, fps int) *Waterfall {
	return &Waterfall{
		palette: p,
		profile: currentColorProfile(),
		smooth:  newSpringField(fps, 8.5, 0.72),
	}
}

func (w *Waterfall) Name() string { return "waterfall" }

func (w *Waterfall) Update(bins []float64, width, height int) {
	height = max(height, 1)
	cols := max(width-2, 8)

	if len(w.history) != height || len(w.history[0]) != cols {
		w.history = make([][]float64, height)
		for r := range height {
			w.history[r] = make([]float64, cols)
		}
	}

	// Recycle the oldest row as the newest.
	newest := w.history[height-1]
	copy(w.history[1:], w.history[:height-1])
	w.history[0] = newest
	resample(newest, bins)
	w.smooth.stepAll(newest)

	var out strings.Builder
	color := newANSIState(w.profile)
	last := len(waterfallChars) - 1
	for r, line := range w.history {
		if r > 0 {
			out.WriteByte('\n')
		}
		age := float64(r) / float64(height)
		for _, v := range line {
			ch := waterfallChars[min(int(v*float64(last)), last)]
			if ch != ' ' {
				color.set(&out, fade(w.palette.At(v), age*0.65))
			}
			out.WriteRune(ch)
		}
		color.reset(&out)
	}
	w.output = out.String()
}

func (w *Waterfall) View() string {
	return w.output
}
