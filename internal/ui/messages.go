package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/barscope/internal/config"
)

type frameMsg time.Time
type playbackEndedMsg struct{}

// ConfigReloadedMsg carries a freshly loaded config into the running
// program.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// frameCmd schedules the next animation frame.
func frameCmd(fps int) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(max(fps, 1)), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}
