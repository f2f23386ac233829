package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/olivier-w/barscope/internal/analyser"
	"github.com/olivier-w/barscope/internal/config"
	"github.com/olivier-w/barscope/internal/player"
	"github.com/sirupsen/logrus"
)

type dumpFrame struct {
	Frame  int       `json:"frame"`
	TimeMS float64   `json:"time_ms"`
	Peak   int       `json:"peak"`
	Bars   []float64 `json:"bars"`
}

type levelFrame struct {
	Frame  int     `json:"frame"`
	TimeMS float64 `json:"time_ms"`
	Level  float64 `json:"level"`
}

// frameSource is the part of player.Source the headless modes read from.
type frameSource interface {
	ReadFrame(n int) ([]int16, error)
	SampleRate() int
}

func runDump(w io.Writer, path string, cfg *config.Config) error {
	src, err := player.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	v, err := analyser.NewWithConfig(cfg.Analyser)
	if err != nil {
		return err
	}
	spf, err := analyser.SamplesPerFrame(src.SampleRate(), cfg.FPS)
	if err != nil {
		return err
	}
	n, err := dumpFrames(w, src, v, spf)
	logrus.WithFields(logrus.Fields{
		"function": "runDump",
		"path":     path,
		"frames":   n,
	}).Debug("dump finished")
	return err
}

// dumpFrames feeds src to v one spf-sized chunk at a time and writes a JSON
// line per chunk. time_ms is the position of the chunk's first sample.
func dumpFrames(w io.Writer, src frameSource, v *analyser.Visualizer, spf int) (int, error) {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	rate := float64(src.SampleRate())

	frame := 0
	for ; ; frame++ {
		pcm, err := src.ReadFrame(spf)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return frame, fmt.Errorf("frame %d: %w", frame, err)
		}
		bars := v.ProcessFrame(pcm)
		if err := enc.Encode(dumpFrame{
			Frame:  frame,
			TimeMS: float64(frame*spf) * 1000 / rate,
			Peak:   analyser.PeakBin(bars),
			Bars:   bars,
		}); err != nil {
			return frame, err
		}
	}
	return frame, bw.Flush()
}

func runLevels(w io.Writer, path string, cfg *config.Config) error {
	src, err := player.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	pcm, err := src.ReadAll()
	if err != nil {
		return err
	}
	spf, err := analyser.SamplesPerFrame(src.SampleRate(), cfg.FPS)
	if err != nil {
		return err
	}
	return writeLevels(w, pcm, spf, src.SampleRate())
}

func writeLevels(w io.Writer, pcm []int16, spf, sampleRate int) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i, level := range analyser.Levels(pcm, spf, 0) {
		if err := enc.Encode(levelFrame{
			Frame:  i,
			TimeMS: float64(i*spf) * 1000 / float64(sampleRate),
			Level:  level,
		}); err != nil {
			return err
		}
	}
	return bw.Flush()
}
