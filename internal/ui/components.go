package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/olivier-w/barscope/internal/analyser"
	"github.com/olivier-w/barscope/internal/visualizer"
)

func newProgress(p visualizer.Palette) progress.Model {
	return progress.New(
		progress.WithScaledGradient(p.Low.Hex(), p.High.Hex()),
		progress.WithoutPercentage(),
	)
}

// renderProgressBar draws elapsed/total at the given width.
func renderProgressBar(bar progress.Model, elapsed, total float64, width int) string {
	var ratio float64
	if total > 0 {
		ratio = elapsed / total
	}
	bar.Width = max(width, 10)
	return bar.ViewAs(max(0, min(ratio, 1)))
}

func renderVolumePercent(vol float64) string {
	return fmt.Sprintf("vol %d%%", int(vol*100+0.5))
}

// renderPeak names the centre frequency of the loudest bar, or "" when
// every bar is silent.
func renderPeak(bars []float64, sampleRate int) string {
	k := analyser.PeakBin(bars)
	if k < 0 || sampleRate <= 0 {
		return ""
	}
	hz := float64(k*sampleRate) / analyser.FFTSize
	if hz >= 1000 {
		return fmt.Sprintf("peak %.1f kHz", hz/1000)
	}
	return fmt.Sprintf("peak %.0f Hz", hz)
}
