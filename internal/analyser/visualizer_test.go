package analyser

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sine returns n samples of a sine at bin k of an FFTSize-point transform,
// so the newest FFTSize samples hold exactly k periods.
func sine(n, k int, amplitude float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(amplitude * 32767 * math.Sin(2*math.Pi*float64(k)*float64(i)/FFTSize))
	}
	return out
}

func TestNewDefaults(t *testing.T) {
	v := New()

	assert.Equal(t, 64, v.FFTSize())
	assert.Equal(t, 32, v.Bins())
	assert.Equal(t, 0.8, v.Smoothing())
	minDB, maxDB := v.DecibelRange()
	assert.Equal(t, -100.0, minDB)
	assert.Equal(t, -30.0, maxDB)
	assert.Len(t, v.prev, 32)
	assert.Len(t, v.Window(), 64)
	assert.Equal(t, make([]float64, 32), v.prev)
	assert.Equal(t, dcBlocker{}, v.dc)
}

func TestNewWithConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"smoothing one", Config{Smoothing: 1, MinDecibels: -100, MaxDecibels: -30}, ErrSmoothing},
		{"smoothing negative", Config{Smoothing: -0.1, MinDecibels: -100, MaxDecibels: -30}, ErrSmoothing},
		{"smoothing nan", Config{Smoothing: math.NaN(), MinDecibels: -100, MaxDecibels: -30}, ErrSmoothing},
		{"equal range", Config{Smoothing: 0.5, MinDecibels: -30, MaxDecibels: -30}, ErrDecibelRange},
		{"inverted range", Config{Smoothing: 0.5, MinDecibels: -10, MaxDecibels: -90}, ErrDecibelRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewWithConfig(tt.cfg)
			assert.Nil(t, v)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewVisualizerRejectsBadSize(t *testing.T) {
	for _, n := range []int{-2, 0, 1, 3, 63} {
		_, err := newVisualizer(n, DefaultConfig())
		assert.ErrorIs(t, err, ErrFFTSize, "size %d", n)
	}
}

func TestWindowMatchesBlackmanFormula(t *testing.T) {
	w := New().Window()
	for i, got := range w {
		n := float64(i)
		want := 0.42 - 0.5*math.Cos(2*math.Pi*n/63) + 0.08*math.Cos(4*math.Pi*n/63)
		assert.InDelta(t, want, got, 1e-15, "window[%d]", i)
	}
	assert.InDelta(t, 0, w[0], 1e-15)
	assert.InDelta(t, 0, w[63], 1e-15)
}

func TestWindowIsSymmetric(t *testing.T) {
	w := New().Window()
	for i := range w {
		assert.InDelta(t, w[i], w[len(w)-1-i], 1e-12, "window[%d]", i)
	}
}

func TestWindowAccessorReturnsCopy(t *testing.T) {
	v := New()
	w := v.Window()
	w[10] = 42
	assert.NotEqual(t, 42.0, v.window[10])
}

func TestDCFilterStateStaysBounded(t *testing.T) {
	v := New()
	rng := rand.New(rand.NewSource(1))
	pcm := make([]int16, 1470)

	for call := range 500 {
		for i := range pcm {
			if call%2 == 0 {
				pcm[i] = int16(rng.Intn(65536) - 32768)
			} else if i%2 == 0 {
				pcm[i] = math.MaxInt16
			} else {
				pcm[i] = math.MinInt16
			}
		}
		v.ProcessFrame(pcm)

		require.False(t, math.IsNaN(v.dc.y1) || math.IsInf(v.dc.y1, 0))
		require.LessOrEqual(t, math.Abs(v.dc.x1), 1.0)
		// |y| <= max|x[n]-x[n-1]| / (1-R)
		require.Less(t, math.Abs(v.dc.y1), 2/(1-dcPole))
	}
}

func TestDCFilterContinuesAcrossCalls(t *testing.T) {
	pcm := sine(300, 3, 0.5)
	for i := range pcm {
		pcm[i] += 4000 // DC offset
	}

	var whole dcBlocker
	want := make([]float64, len(pcm))
	whole.process(want, pcm)

	var split dcBlocker
	got := make([]float64, len(pcm))
	split.process(got[:117], pcm[:117])
	split.process(got[117:], pcm[117:])

	assert.Equal(t, want, got)
	assert.Equal(t, whole, split)
}

func TestDCFilterRemovesOffset(t *testing.T) {
	pcm := make([]int16, 4096)
	for i := range pcm {
		pcm[i] = 16384
	}
	var f dcBlocker
	out := make([]float64, len(pcm))
	f.process(out, pcm)

	assert.InDelta(t, 0.5, out[0], 1e-12)
	assert.Less(t, math.Abs(out[len(out)-1]), 1e-8)
}

func TestOutputRangeForArbitraryInput(t *testing.T) {
	v := New()
	rng := rand.New(rand.NewSource(7))

	for call := range 200 {
		pcm := make([]int16, rng.Intn(3000))
		for i := range pcm {
			pcm[i] = int16(rng.Intn(65536) - 32768)
		}
		if call%10 == 0 {
			pcm = pcm[:0]
		}

		out := v.ProcessFrame(pcm)
		require.Len(t, out, 32)
		for k, x := range out {
			require.GreaterOrEqual(t, x, 0.0, "call %d bin %d", call, k)
			require.LessOrEqual(t, x, 1.0, "call %d bin %d", call, k)
			if x != 0 {
				require.GreaterOrEqual(t, x, quantFloor)
			}
		}
	}
}

func TestEmptyInputOnFreshVisualizer(t *testing.T) {
	v := New()
	out := v.ProcessFrame(nil)
	assert.Equal(t, make([]float64, 32), out)
	assert.Equal(t, dcBlocker{}, v.dc)
}

func TestSilenceConvergesToZero(t *testing.T) {
	v := New()
	v.ProcessFrame(sine(1470, 5, 0.9))

	silence := make([]int16, 1470)
	var out []float64
	calls := 0
	for ; calls < 200; calls++ {
		out = v.ProcessFrame(silence)
		if allZero(out) {
			break
		}
	}
	require.Less(t, calls, 200, "bars never settled")

	// Once settled, silence keeps them there.
	for range 10 {
		assert.Equal(t, make([]float64, 32), v.ProcessFrame(silence))
	}
}

func TestShortInputMatchesLeftZeroPadding(t *testing.T) {
	for _, n := range []int{1, 7, 31, 63} {
		pcm := sine(n, 6, 0.7)
		for i := range pcm {
			pcm[i] += int16(i * 50)
		}
		padded := append(make([]int16, FFTSize-n), pcm...)

		short := New()
		full := New()
		for range 3 {
			assert.Equal(t, full.ProcessFrame(padded), short.ProcessFrame(pcm), "len %d", n)
			// Feed both the same follow-up so later frames stay comparable.
			padded = pcm
		}
	}
}

func TestShortInputUsesWindowAtDestinationIndex(t *testing.T) {
	v := New()
	pcm := []int16{1000, -2000, 3000}
	v.ProcessFrame(pcm)

	var f dcBlocker
	filtered := make([]float64, len(pcm))
	f.process(filtered, pcm)

	for i := 0; i < FFTSize-len(pcm); i++ {
		assert.Zero(t, v.timeData[i])
	}
	for i, y := range filtered {
		slot := FFTSize - len(pcm) + i
		assert.Equal(t, y*v.window[slot], v.timeData[slot])
	}
}

func TestLongInputUsesNewestSamples(t *testing.T) {
	pcm := sine(1470, 4, 0.3)

	v := New()
	v.ProcessFrame(pcm)

	var f dcBlocker
	filtered := make([]float64, len(pcm))
	f.process(filtered, pcm)
	tail := filtered[len(filtered)-FFTSize:]
	for i := range tail {
		assert.Equal(t, tail[i]*v.window[i], v.timeData[i])
	}
}

func TestSmoothingDecaysGeometrically(t *testing.T) {
	const k = 8
	v := New()
	v.ProcessFrame(sine(4410, k, 0.9))

	silence := make([]int16, 4410)
	v.ProcessFrame(silence)

	last := v.prev[k]
	require.Greater(t, last, 0.0)
	for range 30 {
		v.ProcessFrame(silence)
		assert.InEpsilon(t, v.Smoothing(), v.prev[k]/last, 1e-6)
		last = v.prev[k]
	}

	calls := 0
	for ; calls < 100 && !allZero(v.ProcessFrame(silence)); calls++ {
	}
	assert.Less(t, calls, 100)
}

func TestSmoothingBlendsWithPreviousFrame(t *testing.T) {
	v := New()
	pcm := sine(1470, 10, 0.5)

	v.ProcessFrame(pcm)
	first := append([]float64(nil), v.prev...)
	v.ProcessFrame(pcm)

	mags := make([]float64, 32)
	v.dft.magnitudes(mags, v.timeData)
	for k := range mags {
		assert.InDelta(t, first[k]*0.8+mags[k]*0.2, v.prev[k], 1e-12, "bin %d", k)
	}
}

func TestSineAtBinPeaksAtThatBin(t *testing.T) {
	for _, k := range []int{2, 8, 15, 24} {
		v := New()
		out := v.ProcessFrame(sine(1470, k, 0.1))

		assert.Equal(t, k, PeakBin(out), "bin %d: %v", k, out)
		assert.Greater(t, out[k], 0.5)
		for j, x := range out {
			if j == k {
				continue
			}
			assert.Less(t, x, out[k], "bin %d vs %d", j, k)
			if j < k-3 || j > k+3 {
				assert.Less(t, x, out[k]/2, "bin %d far from %d", j, k)
			}
		}
	}
}

func TestResetClearsState(t *testing.T) {
	v := New()
	v.ProcessFrame(sine(1470, 3, 0.8))
	require.NotEqual(t, dcBlocker{}, v.dc)

	v.Reset()
	assert.Equal(t, dcBlocker{}, v.dc)
	assert.Equal(t, make([]float64, 32), v.prev)
	assert.Equal(t, New().ProcessFrame(sine(100, 3, 0.8)), v.ProcessFrame(sine(100, 3, 0.8)))
}

func TestProcessFrameReturnsFreshSlice(t *testing.T) {
	v := New()
	a := v.ProcessFrame(sine(1470, 8, 0.5))
	saved := append([]float64(nil), a...)
	v.ProcessFrame(make([]int16, 1470))
	assert.Equal(t, saved, a)
}

func allZero(xs []float64) bool {
	for _, x := range xs {
		if x != 0 {
			return false
		}
	}
	return true
}
