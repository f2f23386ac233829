package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/olivier-w/barscope/internal/visualizer"
)

// styles is the set of text styles for one palette. The header and the
// peak readout follow the palette; everything else is neutral grey.
type styles struct {
	header lipgloss.Style
	title  lipgloss.Style
	byline lipgloss.Style
	clock  lipgloss.Style
	status lipgloss.Style
	peak   lipgloss.Style
	help   lipgloss.Style
	err    lipgloss.Style
}

func newStyles(p visualizer.Palette) styles {
	grey := func(light, dark string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: light, Dark: dark})
	}
	return styles{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(p.High.Hex())),
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}),
		byline: grey("#666666", "#AAAAAA"),
		clock:  grey("#888888", "#888888"),
		status: grey("#555555", "#BBBBBB"),
		peak:   lipgloss.NewStyle().Foreground(lipgloss.Color(p.Low.Hex())),
		help:   grey("#999999", "#666666"),
		err:    lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B00020", Dark: "#FF6B6B"}),
	}
}
