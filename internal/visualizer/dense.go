package visualizer

import "strings"

var densityRamp = []byte(" .:-=+*#%@")

// Dense renders a filled area chart with ASCII density characters, dense at
// the baseline and sparse towards the surface. It needs no colour support.
type Dense struct {
	levels []float64
	output string
}

func NewDense() *Dense {
	return &Dense{}
}

func (d *Dense) Name() string { return "dense" }

func (d *Dense) Update(bins []float64, width, height int) {
	height = max(height, 1)
	cols := max(width-2, 4)
	if len(d.levels) != cols {
		d.levels = make([]float64, cols)
	}
	resample(d.levels, bins)

	last := len(densityRamp) - 1
	rows := make([]string, height)
	line := make([]byte, cols)
	for row := range height {
		rowFromBottom := float64(height - 1 - row)
		for c, v := range d.levels {
			dist := v*float64(height) - rowFromBottom
			switch {
			case dist <= 0:
				line[c] = ' '
			case dist >= 1:
				// below the surface: denser with depth
				line[c] = densityRamp[min(int(dist/float64(height)*float64(last)), last)]
			default:
				line[c] = densityRamp[min(int(dist*float64(last)), last)]
			}
		}
		rows[row] = string(line)
	}
	d.output = strings.Join(rows, "\n")
}

func (d *Dense) View() string {
	return d.output
}
