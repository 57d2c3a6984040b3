package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Core palette
	Green     = lipgloss.Color("#00FF41")
	DarkGreen = lipgloss.Color("#008F11")
	Cyan      = lipgloss.Color("#00D4AA")
	Yellow    = lipgloss.Color("#FFD700")
	Orange    = lipgloss.Color("#FF8C00")
	Red       = lipgloss.Color("#FF5555")
	LightGray = lipgloss.Color("#aaaaaa")
	White     = lipgloss.Color("#e0e0e0")
)

type theme struct {
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	dim     lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	bands   [4]lipgloss.Style // mastery >=80, >=60, >=40, below
}

func newTheme(r *lipgloss.Renderer) theme {
	return theme{
		title:   r.NewStyle().Foreground(Green).Bold(true),
		label:   r.NewStyle().Foreground(Cyan),
		value:   r.NewStyle().Foreground(White),
		dim:     r.NewStyle().Foreground(LightGray),
		success: r.NewStyle().Foreground(Green).Bold(true),
		warn:    r.NewStyle().Foreground(Yellow).Bold(true),
		err:     r.NewStyle().Foreground(Red).Bold(true),
		bands: [4]lipgloss.Style{
			r.NewStyle().Foreground(Green),
			r.NewStyle().Foreground(Yellow),
			r.NewStyle().Foreground(Orange),
			r.NewStyle().Foreground(Red),
		},
	}
}

// band maps a mastery score to its display band.
func band(mastery int) int {
	switch {
	case mastery >= 80:
		return 0
	case mastery >= 60:
		return 1
	case mastery >= 40:
		return 2
	}
	return 3
}

// bar draws mastery (0-100) as a fixed-width meter.
func bar(mastery, width int) string {
	filled := mastery * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
