package visualizer

import "strings"

// Braille renders the spectrum as a filled curve of Braille cells, each a
// 2x4 dot grid, for twice the horizontal and four times the vertical
// resolution of block bars.
type Braille struct {
	palette Palette
	profile colorProfile
	dots    []float64
	output  string
}

func NewBraille(p Palette) *Braille {
	return &Braille{palette: p, profile: currentColorProfile()}
}

func (b *Braille) Name() string { return "braille" }

// Braille dot positions (col, row) → bit offset:
//
//	(0,0)=0  (1,0)=3
//	(0,1)=1  (1,1)=4
//	(0,2)=2  (1,2)=5
//	(0,3)=6  (1,3)=7
var brailleBits = [2][4]uint{
	{0, 1, 2, 6},
	{3, 4, 5, 7},
}

func (b *Braille) Update(bins []float64, width, height int) {
	height = max(height, 1)
	cols := max(width-2, 2)

	dotCols := cols * 2
	dotRows := height * 4
	if len(b.dots) != dotCols {
		b.dots = make([]float64, dotCols)
	}
	resample(b.dots, bins)

	var out strings.Builder
	color := newANSIState(b.profile)
	for row := range height {
		if row > 0 {
			out.WriteByte('\n')
		}
		color.set(&out, b.palette.At(float64(height-row)/float64(height)))
		for col := range cols {
			var pattern uint
			for dx := range 2 {
				level := b.dots[col*2+dx] * float64(dotRows)
				for dy := range 4 {
					if level > float64(dotRows-1-(row*4+dy)) {
						pattern |= 1 << brailleBits[dx][dy]
					}
				}
			}
			out.WriteRune(rune(0x2800 + pattern))
		}
		color.reset(&out)
	}
	b.output = out.String()
}

func (b *Braille) View() string {
	return b.output
}
