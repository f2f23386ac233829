package ui

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/olivier-w/barscope/internal/analyser"
	"github.com/olivier-w/barscope/internal/config"
	"github.com/olivier-w/barscope/internal/player"
)

type fakeAudio struct {
	chunk    []int16
	fps      int
	drains   int
	paused   bool
	muted    bool
	pos      time.Duration
	volume   float64
	seekErr  error
	seeks    []time.Duration
	restarts int
	closed   int
	done     chan struct{}
}

func newFakeAudio() *fakeAudio {
	return &fakeAudio{volume: 0.5, done: make(chan struct{})}
}

func (f *fakeAudio) Drain() []int16 {
	f.drains++
	return f.chunk
}
func (f *fakeAudio) TogglePause()    { f.paused = !f.paused }
func (f *fakeAudio) Paused() bool    { return f.paused }
func (f *fakeAudio) Muted() bool     { return f.muted }
func (f *fakeAudio) SampleRate() int { return 44100 }
func (f *fakeAudio) Seek(d time.Duration) error {
	if f.seekErr != nil {
		return f.seekErr
	}
	f.seeks = append(f.seeks, d)
	f.pos += d
	return nil
}
func (f *fakeAudio) Restart() error {
	f.restarts++
	f.pos = 0
	return nil
}
func (f *fakeAudio) Position() time.Duration { return f.pos }
func (f *fakeAudio) Duration() time.Duration { return time.Minute }
func (f *fakeAudio) Volume() float64         { return f.volume }
func (f *fakeAudio) AdjustVolume(d float64) {
	f.volume = math.Max(0, math.Min(f.volume+d, 1))
}
func (f *fakeAudio) SetFPS(fps int) error {
	f.fps = fps
	return nil
}
func (f *fakeAudio) Done() <-chan struct{} { return f.done }
func (f *fakeAudio) Close()                { f.closed++ }

// tone returns one 30 fps chunk of a sine landing on analyser bin k.
func tone(k int) []int16 {
	out := make([]int16, 1470)
	for i := range out {
		out[i] = int16(0.02 * 32767 * math.Sin(2*math.Pi*float64(k)*float64(i)/analyser.FFTSize))
	}
	return out
}

func newTestModel(t *testing.T, a *fakeAudio) Model {
	t.Helper()
	m, err := New(a, player.Metadata{Title: "Song", Artist: "Band"}, analyser.New(), config.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestFrameMsgFeedsAnalyser(t *testing.T) {
	a := newFakeAudio()
	a.chunk = tone(8)
	m := newTestModel(t, a)

	var cmd tea.Cmd
	for range 10 {
		m, cmd = m.handleMsg(frameMsg(time.Now()))
	}
	if cmd == nil {
		t.Fatal("expected next frame to be scheduled")
	}
	if a.drains != 10 {
		t.Fatalf("expected one drain per frame, got %d", a.drains)
	}
	if got := analyser.PeakBin(m.bars); got != 8 {
		t.Fatalf("expected peak at bin 8, got %d (%v)", got, m.bars)
	}
	if !strings.Contains(m.View(), "peak 5.5 kHz") {
		t.Fatalf("expected peak frequency in status line, got %q", m.View())
	}
}

func TestFrameMsgHoldsBarsWhilePaused(t *testing.T) {
	a := newFakeAudio()
	a.chunk = tone(4)
	m := newTestModel(t, a)
	m, _ = m.handleMsg(frameMsg(time.Now()))
	before := append([]float64(nil), m.bars...)

	m, _ = m.handleMsg(key(" "))
	if !m.paused {
		t.Fatal("expected space to pause")
	}
	m, _ = m.handleMsg(frameMsg(time.Now()))
	if a.drains != 1 {
		t.Fatalf("expected no drain while paused, got %d", a.drains)
	}
	for i := range before {
		if m.bars[i] != before[i] {
			t.Fatal("expected bars to hold while paused")
		}
	}
}

func TestSeekResetsAnalyser(t *testing.T) {
	a := newFakeAudio()
	a.chunk = tone(8)
	m := newTestModel(t, a)
	for range 5 {
		m, _ = m.handleMsg(frameMsg(time.Now()))
	}

	m, _ = m.handleMsg(key("right"))
	if len(a.seeks) != 1 || a.seeks[0] != 5*time.Second {
		t.Fatalf("expected +5s seek, got %v", a.seeks)
	}
	if m.elapsed != 5*time.Second {
		t.Fatalf("expected elapsed 5s, got %v", m.elapsed)
	}

	// A reset analyser fed silence reports silence straight away.
	a.chunk = make([]int16, 1470)
	m, _ = m.handleMsg(frameMsg(time.Now()))
	for k, v := range m.bars {
		if v != 0 {
			t.Fatalf("expected silent bars after seek, bin %d = %v", k, v)
		}
	}
}

func TestSeekFailureShowsStatus(t *testing.T) {
	a := newFakeAudio()
	a.seekErr = errors.New("boom")
	m := newTestModel(t, a)

	m, _ = m.handleMsg(key("left"))
	if !m.statusErr || !strings.Contains(m.status, "boom") {
		t.Fatalf("expected error status, got %q", m.status)
	}
}

func TestVolumeAndModeKeys(t *testing.T) {
	a := newFakeAudio()
	m := newTestModel(t, a)

	m, _ = m.handleMsg(key("+"))
	if math.Abs(m.volume-0.55) > 1e-9 {
		t.Fatalf("expected volume 0.55, got %v", m.volume)
	}
	m, _ = m.handleMsg(key("-"))
	m, _ = m.handleMsg(key("-"))
	if math.Abs(m.volume-0.45) > 1e-9 {
		t.Fatalf("expected volume 0.45, got %v", m.volume)
	}

	start := m.mode
	for range len(m.modes) {
		m, _ = m.handleMsg(key("v"))
	}
	if m.mode != start {
		t.Fatalf("expected mode to cycle back to %d, got %d", start, m.mode)
	}
	m, _ = m.handleMsg(key("v"))
	if m.mode != start+1 {
		t.Fatalf("expected next mode, got %d", m.mode)
	}
}

func TestQuitClosesAudio(t *testing.T) {
	a := newFakeAudio()
	m := newTestModel(t, a)

	m, cmd := m.handleMsg(key("esc"))
	if !m.quitting || cmd == nil {
		t.Fatal("expected quit")
	}
	if a.closed != 1 {
		t.Fatalf("expected audio closed once, got %d", a.closed)
	}
	if m.View() != "" {
		t.Fatal("expected empty view after quit")
	}
}

func TestPlaybackEndedLoopsWhenEnabled(t *testing.T) {
	a := newFakeAudio()
	m := newTestModel(t, a)

	m, _ = m.handleMsg(key("r"))
	m, cmd := m.handleMsg(playbackEndedMsg{})
	if m.quitting {
		t.Fatal("expected loop to keep playing")
	}
	if a.restarts != 1 || cmd == nil {
		t.Fatalf("expected restart and a new done watcher, got %d restarts", a.restarts)
	}

	m, _ = m.handleMsg(key("r"))
	m, _ = m.handleMsg(playbackEndedMsg{})
	if !m.quitting {
		t.Fatal("expected quit once loop is off")
	}
}

func TestConfigReloadSwitchesModeAndAnalyser(t *testing.T) {
	a := newFakeAudio()
	m := newTestModel(t, a)
	old := m.analyser

	cfg := config.Default()
	cfg.Mode = "waterfall"
	cfg.Palette.Low = "#101010"
	m, _ = m.handleMsg(ConfigReloadedMsg{Config: cfg})
	if m.modes[m.mode].Name() != "waterfall" {
		t.Fatalf("expected waterfall mode, got %s", m.modes[m.mode].Name())
	}
	if m.analyser != old {
		t.Fatal("expected analyser kept when its settings did not change")
	}

	cfg2 := *cfg
	cfg2.Analyser.Smoothing = 0.5
	m, _ = m.handleMsg(ConfigReloadedMsg{Config: &cfg2})
	if m.analyser == old || m.analyser.Smoothing() != 0.5 {
		t.Fatal("expected analyser rebuilt with new smoothing")
	}

	bad := cfg2
	bad.Palette.High = "nope"
	m, _ = m.handleMsg(ConfigReloadedMsg{Config: &bad})
	if !m.statusErr || m.cfg != &cfg2 {
		t.Fatal("expected bad palette to be rejected")
	}
}

func TestConfigReloadRetimesAudio(t *testing.T) {
	a := newFakeAudio()
	m := newTestModel(t, a)

	cfg := *m.cfg
	m, _ = m.handleMsg(ConfigReloadedMsg{Config: &cfg})
	if a.fps != 0 {
		t.Fatalf("expected no retime for unchanged fps, got %d", a.fps)
	}

	cfg2 := cfg
	cfg2.FPS = 60
	m, _ = m.handleMsg(ConfigReloadedMsg{Config: &cfg2})
	if a.fps != 60 {
		t.Fatalf("expected audio retimed to 60 fps, got %d", a.fps)
	}
	if m.cfg.FPS != 60 {
		t.Fatalf("expected model fps 60, got %d", m.cfg.FPS)
	}
}

func TestViewPadsToWindowHeight(t *testing.T) {
	a := newFakeAudio()
	m := newTestModel(t, a)
	m, _ = m.handleMsg(tea.WindowSizeMsg{Width: 80, Height: 40})
	m, _ = m.handleMsg(frameMsg(time.Now()))

	view := m.View()
	if lipgloss.Height(view) < 40 {
		t.Fatalf("expected padded view height >= 40, got %d", lipgloss.Height(view))
	}
	for _, want := range []string{"barscope", "Song", "Band", "vol 50%", "q quit"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view, got %q", want, view)
		}
	}
}

func TestMutedViewHidesVolume(t *testing.T) {
	a := newFakeAudio()
	a.muted = true
	m := newTestModel(t, a)

	view := m.View()
	if strings.Contains(view, "vol ") || strings.Contains(view, "+/- volume") {
		t.Fatalf("expected no volume controls when muted, got %q", view)
	}
	if !strings.Contains(view, "muted") {
		t.Fatalf("expected muted marker, got %q", view)
	}
}
