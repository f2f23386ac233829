// Package analyser turns a stream of 16-bit PCM chunks into normalised
// frequency bar heights, the way a browser AnalyserNode with fftSize 64
// would: DC blocking, Blackman windowing, a half-spectrum DFT, temporal
// smoothing and a decibel mapping onto [0, 1].
package analyser

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
	"github.com/sirupsen/logrus"
)

const (
	// magnitudeFloor keeps log10 finite for silent bins.
	magnitudeFloor = 1e-20

	// quantFloor emulates the 1/255 step of an 8-bit byte frequency array;
	// anything below it is drawn as an empty bar.
	quantFloor = 0.004
)

// Visualizer holds the per-stream analysis state. It is not safe for
// concurrent use: every ProcessFrame call reads and rewrites the filter and
// smoothing state.
type Visualizer struct {
	fftSize     int
	smoothing   float64
	minDecibels float64
	maxDecibels float64

	prev   []float64 // smoothed magnitude per bin, carried across frames
	window []float64
	dc     dcBlocker
	dft    *dft

	filtered []float64
	timeData []float64
	mags     []float64
}

// New returns a Visualizer with the default configuration.
func New() *Visualizer {
	v, err := NewWithConfig(DefaultConfig())
	if err != nil {
		// The defaults are constants; failing here is a programming error.
		panic(err)
	}
	return v
}

// NewWithConfig returns a Visualizer using cfg for smoothing and the
// decibel range. The transform size is always FFTSize.
func NewWithConfig(cfg Config) (*Visualizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newVisualizer(FFTSize, cfg)
}

func newVisualizer(size int, cfg Config) (*Visualizer, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":     "analyser.New",
		"fft_size":     size,
		"smoothing":    cfg.Smoothing,
		"min_decibels": cfg.MinDecibels,
		"max_decibels": cfg.MaxDecibels,
	}).Debug("Creating visualizer")

	return &Visualizer{
		fftSize:     size,
		smoothing:   cfg.Smoothing,
		minDecibels: cfg.MinDecibels,
		maxDecibels: cfg.MaxDecibels,
		prev:        make([]float64, size/2),
		window:      blackman(size),
		dft:         newDFT(size),
		timeData:    make([]float64, size),
		mags:        make([]float64, size/2),
	}, nil
}

// ProcessFrame consumes one chunk of mono PCM and returns FFTSize/2 bar
// heights in [0, 1], lowest frequency first. Any chunk length is accepted,
// including zero. The returned slice is freshly allocated.
func (v *Visualizer) ProcessFrame(pcm []int16) []float64 {
	filtered := v.filter(pcm)
	v.snapshot(filtered)
	v.dft.magnitudes(v.mags, v.timeData)

	out := make([]float64, len(v.prev))
	a := v.smoothing
	span := v.maxDecibels - v.minDecibels
	for k, mag := range v.mags {
		smoothed := v.prev[k]*a + mag*(1-a)
		v.prev[k] = smoothed

		db := 20 * math.Log10(math.Max(smoothed, magnitudeFloor))
		scaled := (db - v.minDecibels) / span
		scaled = math.Min(math.Max(scaled, 0), 1)
		if scaled < quantFloor {
			scaled = 0
		}
		out[k] = scaled
	}
	return out
}

// filter runs the DC blocker over the whole chunk so its state stays
// continuous, reusing the scratch buffer when it is large enough.
func (v *Visualizer) filter(pcm []int16) []float64 {
	if cap(v.filtered) < len(pcm) {
		v.filtered = make([]float64, len(pcm))
	}
	filtered := v.filtered[:len(pcm)]
	v.dc.process(filtered, pcm)
	return filtered
}

// snapshot windows the newest fftSize filtered samples into timeData. A
// short chunk is right-aligned and keeps the window index of its slot.
func (v *Visualizer) snapshot(filtered []float64) {
	n := v.fftSize
	if len(filtered) > n {
		filtered = filtered[len(filtered)-n:]
	}
	off := n - len(filtered)
	clear(v.timeData[:off])
	if len(filtered) > 0 {
		vecmath.MulBlock(v.timeData[off:], filtered, v.window[off:])
	}
}

// Reset drops the filter and smoothing state. Only call it at a real
// discontinuity such as a seek; resetting mid-stream shows up as a DC
// transient in the lowest bar.
func (v *Visualizer) Reset() {
	clear(v.prev)
	v.dc.reset()
}

// FFTSize returns the transform length.
func (v *Visualizer) FFTSize() int { return v.fftSize }

// Bins returns the number of bars ProcessFrame produces.
func (v *Visualizer) Bins() int { return len(v.prev) }

// Smoothing returns the smoothing time constant.
func (v *Visualizer) Smoothing() float64 { return v.smoothing }

// DecibelRange returns the range mapped onto [0, 1].
func (v *Visualizer) DecibelRange() (minDB, maxDB float64) {
	return v.minDecibels, v.maxDecibels
}

// Window returns a copy of the window table.
func (v *Visualizer) Window() []float64 {
	return append([]float64(nil), v.window...)
}
