package analyser

import (
	"errors"
	"fmt"
	"math"
)

const (
	// FFTSize is the transform length. It is fixed: the analyser mirrors a
	// browser AnalyserNode running at its smallest size.
	FFTSize = 64

	defaultSmoothing   = 0.8
	defaultMinDecibels = -100.0
	defaultMaxDecibels = -30.0
)

var (
	ErrSmoothing    = errors.New("smoothing must be in [0, 1)")
	ErrDecibelRange = errors.New("min decibels must be below max decibels")
	ErrFFTSize      = errors.New("fft size must be even and at least 2")
	ErrSampleRate   = errors.New("sample rate must be positive")
	ErrFramesPerSec = errors.New("frames per second must be positive")
)

// Config holds the tunable parameters of a Visualizer. The transform size is
// not part of it.
type Config struct {
	Smoothing   float64 `yaml:"smoothing"`
	MinDecibels float64 `yaml:"min_decibels"`
	MaxDecibels float64 `yaml:"max_decibels"`
}

// DefaultConfig returns the AnalyserNode defaults.
func DefaultConfig() Config {
	return Config{
		Smoothing:   defaultSmoothing,
		MinDecibels: defaultMinDecibels,
		MaxDecibels: defaultMaxDecibels,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if math.IsNaN(c.Smoothing) || c.Smoothing < 0 || c.Smoothing >= 1 {
		return fmt.Errorf("%w: got %v", ErrSmoothing, c.Smoothing)
	}
	if math.IsNaN(c.MinDecibels) || math.IsNaN(c.MaxDecibels) || c.MinDecibels >= c.MaxDecibels {
		return fmt.Errorf("%w: got [%v, %v]", ErrDecibelRange, c.MinDecibels, c.MaxDecibels)
	}
	return nil
}

func validateSize(n int) error {
	if n < 2 || n%2 != 0 {
		return fmt.Errorf("%w: got %d", ErrFFTSize, n)
	}
	return nil
}

// SamplesPerFrame returns how many samples one animation tick covers,
// e.g. 1470 at 44.1 kHz and 30 fps.
func SamplesPerFrame(sampleRate, fps int) (int, error) {
	if sampleRate <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrSampleRate, sampleRate)
	}
	if fps <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrFramesPerSec, fps)
	}
	n := sampleRate / fps
	if n < 1 {
		n = 1
	}
	return n, nil
}
