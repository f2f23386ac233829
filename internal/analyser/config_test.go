package analyser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, Config{Smoothing: 0.8, MinDecibels: -100, MaxDecibels: -30}, cfg)
}

func TestNewWithConfigUsesOverrides(t *testing.T) {
	v, err := NewWithConfig(Config{Smoothing: 0, MinDecibels: -90, MaxDecibels: -10})
	require.NoError(t, err)

	assert.Equal(t, FFTSize, v.FFTSize())
	assert.Equal(t, 0.0, v.Smoothing())
	minDB, maxDB := v.DecibelRange()
	assert.Equal(t, -90.0, minDB)
	assert.Equal(t, -10.0, maxDB)
}

func TestSamplesPerFrame(t *testing.T) {
	tests := []struct {
		rate, fps int
		want      int
		err       error
	}{
		{44100, 30, 1470, nil},
		{48000, 60, 800, nil},
		{44100, 7, 6300, nil},
		{10, 30, 1, nil},
		{0, 30, 0, ErrSampleRate},
		{44100, 0, 0, ErrFramesPerSec},
	}
	for _, tt := range tests {
		got, err := SamplesPerFrame(tt.rate, tt.fps)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "rate %d fps %d", tt.rate, tt.fps)
	}
}
