package player

import (
	"testing"
	"time"
)

func TestParseProbe(t *testing.T) {
	out := []byte(`{"streams":[{"sample_rate":"48000","channels":6}],"format":{"duration":"12.5"}}`)
	probe, err := parseProbe(out)
	if err != nil {
		t.Fatalf("parseProbe: %v", err)
	}
	if probe.sampleRate != 48000 {
		t.Fatalf("expected 48000 Hz, got %d", probe.sampleRate)
	}
	if probe.channels != 2 {
		t.Fatalf("expected surround capped to stereo, got %d", probe.channels)
	}
	if probe.duration != 12500*time.Millisecond {
		t.Fatalf("expected 12.5s, got %s", probe.duration)
	}
}

func TestParseProbeDefaults(t *testing.T) {
	probe, err := parseProbe([]byte(`{"streams":[{"sample_rate":"N/A"}],"format":{}}`))
	if err != nil {
		t.Fatalf("parseProbe: %v", err)
	}
	if probe.sampleRate != 44100 || probe.channels != 2 || probe.duration != 0 {
		t.Fatalf("unexpected defaults %+v", probe)
	}
}

func TestParseProbeErrors(t *testing.T) {
	if _, err := parseProbe([]byte(`{"streams":[]}`)); err == nil {
		t.Fatal("expected error when no audio stream is present")
	}
	if _, err := parseProbe([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed output")
	}
}

func TestFormatSeekTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00.000"},
		{-3, "00:00:00.000"},
		{61.25, "00:01:01.250"},
		{3723.5, "01:02:03.500"},
	}
	for _, tt := range tests {
		if got := formatSeekTime(tt.seconds); got != tt.want {
			t.Fatalf("formatSeekTime(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
