package visualizer

import "strings"

var barChars = []rune(" ▁▂▃▄▅▆▇█")

// Bars renders one vertical bar per bin, topped with eighth blocks and
// shaded along the palette from the bottom row up.
type Bars struct {
	palette Palette
	profile colorProfile
	motion  springField
	levels  []float64
	output  string
}

// NewBars creates a bar renderer updated fps times a second.
func NewBars(p Palette, fps int) *Bars {
	return &Bars{
		palette: p,
		profile: currentColorProfile(),
		motion:  newSpringField(fps, 9, 0.8),
	}
}

func (b *Bars) Name() string { return "bars" }

func (b *Bars) Update(bins []float64, width, height int) {
	height = max(height, 1)
	cols := max(width-2, 1)

	// One bar per bin when there is room, otherwise squeeze bins into the
	// available columns.
	count := min(len(bins), cols)
	if count == 0 {
		b.output = ""
		return
	}
	colWidth := max(cols/count, 1)
	gap := 0
	if colWidth > 2 {
		gap = 1
	}

	if len(b.levels) != count {
		b.levels = make([]float64, count)
	}
	if count == len(bins) {
		copy(b.levels, bins)
	} else {
		resample(b.levels, bins)
	}
	b.motion.stepAll(b.levels)

	var out strings.Builder
	color := newANSIState(b.profile)
	for row := range height {
		if row > 0 {
			out.WriteByte('\n')
		}
		rowFromBottom := float64(height - 1 - row)
		color.set(&out, b.palette.At((rowFromBottom+1)/float64(height)))
		for i, level := range b.levels {
			if i > 0 && gap > 0 {
				out.WriteByte(' ')
			}
			ch := barGlyph(level*float64(height), rowFromBottom)
			for range colWidth - gap {
				out.WriteRune(ch)
			}
		}
		color.reset(&out)
	}
	b.output = out.String()
}

// barGlyph picks the block for a cell rowFromBottom rows above the base of
// a bar that is height rows tall.
func barGlyph(height, rowFromBottom float64) rune {
	switch {
	case height >= rowFromBottom+1:
		return barChars[len(barChars)-1]
	case height > rowFromBottom:
		return barChars[int((height-rowFromBottom)*float64(len(barChars)-1))]
	default:
		return barChars[0]
	}
}

func (b *Bars) View() string {
	return b.output
}
