package ui

import tea "github.com/charmbracelet/bubbletea"

const (
	seekStep   = 5 // seconds
	volumeStep = 0.05
)

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return true
	}
	return false
}

func helpText(muted bool) string {
	s := "space pause  ←/→ seek"
	if !muted {
		s += "  +/- volume"
	}
	return s + "  v mode  r loop  q quit"
}
