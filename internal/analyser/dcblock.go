package analyser

const (
	// dcPole is the high-pass pole R in y[n] = x[n] - x[n-1] + R*y[n-1].
	dcPole = 0.995

	pcmScale = 32768.0
)

// dcBlocker is a first-order DC-blocking high-pass filter. Its state carries
// across calls so consecutive chunks form one continuous stream.
type dcBlocker struct {
	x1 float64 // previous input
	y1 float64 // previous output
}

// process filters every sample of pcm into dst, which must have the same
// length, and keeps the final input/output pair.
func (f *dcBlocker) process(dst []float64, pcm []int16) {
	x1, y1 := f.x1, f.y1
	for i, s := range pcm {
		x := float64(s) / pcmScale
		y := x - x1 + dcPole*y1
		dst[i] = y
		x1, y1 = x, y
	}
	f.x1, f.y1 = x1, y1
}

func (f *dcBlocker) reset() {
	f.x1, f.y1 = 0, 0
}
