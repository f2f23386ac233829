package analyser

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// visualScale lifts the normalised magnitudes to roughly the bar heights a
// browser analyser draws. It is a calibration constant.
const visualScale = 4.0

// dft is a direct real-input transform that only produces the lower half
// spectrum, with twiddles tabulated once at construction.
type dft struct {
	n   int
	cos []float64 // cos(-2*pi*m/n)
	sin []float64 // sin(-2*pi*m/n)
	re  []float64
	im  []float64
}

func newDFT(n int) *dft {
	d := &dft{
		n:   n,
		cos: make([]float64, n),
		sin: make([]float64, n),
		re:  make([]float64, n/2),
		im:  make([]float64, n/2),
	}
	for m := range n {
		angle := -2 * math.Pi * float64(m) / float64(n)
		d.cos[m] = math.Cos(angle)
		d.sin[m] = math.Sin(angle)
	}
	return d
}

// magnitudes writes |X[k]|/n * visualScale for k in [0, n/2) into dst.
func (d *dft) magnitudes(dst, x []float64) {
	for k := range d.re {
		var re, im float64
		for n, v := range x {
			m := (k * n) % d.n
			re += v * d.cos[m]
			im += v * d.sin[m]
		}
		d.re[k] = re
		d.im[k] = im
	}
	vecmath.Magnitude(dst, d.re, d.im)
	vecmath.ScaleBlockInPlace(dst, visualScale/float64(d.n))
}
