package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/olivier-w/barscope/internal/analyser"
	"github.com/olivier-w/barscope/internal/config"
	"github.com/olivier-w/barscope/internal/player"
	"github.com/olivier-w/barscope/internal/util"
	"github.com/olivier-w/barscope/internal/visualizer"
	"github.com/sirupsen/logrus"
)

// Audio is the playback side the model drives. *player.Player implements
// it.
type Audio interface {
	Drain() []int16
	TogglePause()
	Paused() bool
	Muted() bool
	Seek(delta time.Duration) error
	Restart() error
	Position() time.Duration
	Duration() time.Duration
	SampleRate() int
	Volume() float64
	AdjustVolume(delta float64)
	SetFPS(fps int) error
	Done() <-chan struct{}
	Close()
}

const (
	// lines used by everything except the visualizer
	chromeLines   = 13
	minVisHeight  = 4
	defaultWidth  = 60
	defaultHeight = 24
	statusTTL     = 4 * time.Second
)

// Model is the Bubbletea model for the barscope TUI.
type Model struct {
	audio    Audio
	metadata player.Metadata
	analyser *analyser.Visualizer
	cfg      *config.Config
	modes    []visualizer.Renderer
	mode     int
	bars     []float64
	progress progress.Model
	styles   styles

	elapsed  time.Duration
	duration time.Duration
	volume   float64
	paused   bool
	loop     bool
	width    int
	height   int
	quitting bool

	status     string
	statusErr  bool
	statusTime time.Time
}

// New creates a Model playing through a and drawing with v, configured by
// cfg.
func New(a Audio, meta player.Metadata, v *analyser.Visualizer, cfg *config.Config) (Model, error) {
	palette, err := cfg.PaletteColors()
	if err != nil {
		return Model{}, err
	}
	return Model{
		audio:    a,
		metadata: meta,
		analyser: v,
		cfg:      cfg,
		modes:    visualizer.Modes(palette, cfg.FPS),
		mode:     max(visualizer.ModeIndex(cfg.Mode), 0),
		bars:     make([]float64, v.Bins()),
		progress: newProgress(palette),
		styles:   newStyles(palette),
		duration: a.Duration(),
		volume:   a.Volume(),
	}, nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		frameCmd(m.cfg.FPS),
		checkDone(m.audio),
		tea.SetWindowTitle(windowTitle(m.metadata.Title, false)),
	)
}

func checkDone(a Audio) tea.Cmd {
	done := a.Done()
	return func() tea.Msg {
		<-done
		return playbackEndedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.handleMsg(msg)
}

func (m Model) handleMsg(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case frameMsg:
		m.step()
		if m.status != "" && time.Since(m.statusTime) > statusTTL {
			m.status = ""
		}
		return m, frameCmd(m.cfg.FPS)

	case playbackEndedMsg:
		if m.loop {
			if err := m.audio.Restart(); err != nil {
				m.setStatus(fmt.Sprintf("Restart failed: %v", err), true)
			} else {
				m.analyser.Reset()
				m.elapsed = 0
				return m, checkDone(m.audio)
			}
		}
		m.elapsed = m.duration
		return m.quit()

	case ConfigReloadedMsg:
		return m.applyConfig(msg.Config), nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if isQuit(msg) {
		return m.quit()
	}
	switch msg.String() {
	case " ":
		m.audio.TogglePause()
		m.paused = m.audio.Paused()
		return m, tea.SetWindowTitle(windowTitle(m.metadata.Title, m.paused))
	case "left", "h":
		m.seek(-seekStep * time.Second)
	case "right", "l":
		m.seek(seekStep * time.Second)
	case "+", "=", "up", "k":
		m.audio.AdjustVolume(volumeStep)
		m.volume = m.audio.Volume()
	case "-", "down", "j":
		m.audio.AdjustVolume(-volumeStep)
		m.volume = m.audio.Volume()
	case "v":
		m.mode = (m.mode + 1) % len(m.modes)
		m.render()
	case "r":
		m.loop = !m.loop
	}
	return m, nil
}

func (m Model) quit() (Model, tea.Cmd) {
	m.quitting = true
	m.audio.Close()
	return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
}

// step pulls the audio played since the last frame through the analyser.
// Bars hold still while paused.
func (m *Model) step() {
	m.elapsed = m.audio.Position()
	m.volume = m.audio.Volume()
	m.paused = m.audio.Paused()
	if m.paused {
		return
	}
	m.bars = m.analyser.ProcessFrame(m.audio.Drain())
	m.render()
}

// seek jumps and clears analyser state, since the audio on either side of
// the jump is unrelated.
func (m *Model) seek(delta time.Duration) {
	if err := m.audio.Seek(delta); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Model.seek",
			"delta":    delta,
		}).WithError(err).Warn("seek failed")
		m.setStatus(fmt.Sprintf("Seek failed: %v", err), true)
		return
	}
	m.analyser.Reset()
	m.elapsed = m.audio.Position()
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
	m.statusTime = time.Now()
}

// applyConfig swaps palette, mode and frame rate. The analyser is rebuilt
// only when its own settings changed, since rebuilding drops its state.
func (m Model) applyConfig(cfg *config.Config) Model {
	palette, err := cfg.PaletteColors()
	if err != nil {
		m.setStatus(fmt.Sprintf("Config rejected: %v", err), true)
		return m
	}
	if cfg.Analyser != m.cfg.Analyser {
		v, err := analyser.NewWithConfig(cfg.Analyser)
		if err != nil {
			m.setStatus(fmt.Sprintf("Config rejected: %v", err), true)
			return m
		}
		m.analyser = v
	}
	if cfg.FPS != m.cfg.FPS {
		if err := m.audio.SetFPS(cfg.FPS); err != nil {
			m.setStatus(fmt.Sprintf("Config rejected: %v", err), true)
			return m
		}
	}
	if cfg.Mode != m.cfg.Mode {
		m.mode = max(visualizer.ModeIndex(cfg.Mode), 0)
	}
	m.modes = visualizer.Modes(palette, cfg.FPS)
	m.progress = newProgress(palette)
	m.styles = newStyles(palette)
	m.cfg = cfg
	m.render()
	m.setStatus("Config reloaded", false)
	return m
}

func (m Model) visSize() (int, int) {
	w, h := m.width, m.height
	if w < 30 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w - 2, max(h-chromeLines, minVisHeight)
}

func (m *Model) render() {
	w, h := m.visSize()
	m.modes[m.mode].Update(m.bars, w, h)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	w := m.width
	if w < 30 {
		w = defaultWidth
	}

	var b strings.Builder
	b.WriteString("\n  " + m.styles.header.Render("barscope") + "\n\n")
	b.WriteString("  " + m.styles.title.Render(m.metadata.Title) + "\n")
	if sub := subtitle(m.metadata); sub != "" {
		b.WriteString("  " + m.styles.byline.Render(sub) + "\n")
	}
	b.WriteString("\n")

	if len(m.modes) > 0 {
		for _, line := range strings.Split(m.modes[m.mode].View(), "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString("\n")

	elapsed := util.FormatDuration(m.elapsed)
	total := util.FormatDuration(m.duration)
	bar := renderProgressBar(m.progress, m.elapsed.Seconds(), m.duration.Seconds(), w-len(elapsed)-len(total)-6)
	b.WriteString(fmt.Sprintf("  %s %s %s\n\n", m.styles.clock.Render(elapsed), bar, m.styles.clock.Render(total)))

	b.WriteString("  " + m.statusLine(w) + "\n")
	if m.status != "" {
		style := m.styles.help
		if m.statusErr {
			style = m.styles.err
		}
		b.WriteString("  " + style.Render(m.status) + "\n")
	}
	b.WriteString("\n  " + m.styles.help.Render(helpText(m.audio == nil || m.audio.Muted())) + "\n")

	view := b.String()
	if pad := m.height - lipgloss.Height(view); pad > 0 {
		view += strings.Repeat("\n", pad)
	}
	return view
}

func (m Model) statusLine(w int) string {
	icon, text := "▶", "playing"
	if m.paused {
		icon, text = "❚❚", "paused"
	}
	left := fmt.Sprintf("%s  %s  · %s", icon, text, visualizer.ModeNames[m.mode])
	if m.loop {
		left += "  [loop]"
	}
	var peak string
	if m.audio != nil {
		peak = renderPeak(m.bars, m.audio.SampleRate())
	}
	if peak != "" {
		left += "  "
	}

	right := "muted"
	if m.audio != nil && !m.audio.Muted() {
		right = renderVolumePercent(m.volume)
	}
	gap := max(w-lipgloss.Width(left)-len(peak)-len(right)-4, 2)
	return m.styles.status.Render(left) + m.styles.peak.Render(peak) +
		strings.Repeat(" ", gap) + m.styles.status.Render(right)
}

func subtitle(meta player.Metadata) string {
	switch {
	case meta.Artist != "" && meta.Album != "":
		return fmt.Sprintf("%s - %s", meta.Artist, meta.Album)
	case meta.Artist != "":
		return meta.Artist
	default:
		return meta.Album
	}
}

func windowTitle(title string, paused bool) string {
	if paused {
		return "⏸ " + title + " — barscope"
	}
	return "▶ " + title + " — barscope"
}
