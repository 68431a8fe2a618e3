package cli

import (
	"github.com/charmbracelet/lipgloss"

	"famcal/internal/model"
)

var (
	colorRed    = lipgloss.Color("#fb4934")
	colorYellow = lipgloss.Color("#fabd2f")
	colorBlue   = lipgloss.Color("#83a598")
	colorGreen  = lipgloss.Color("#8ec07c")
	colorDim    = lipgloss.Color("#928374")

	styleHeader = lipgloss.NewStyle().Bold(true)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)
	styleOK     = lipgloss.NewStyle().Foreground(colorGreen)
)

func severityStyle(s model.Severity) lipgloss.Style {
	switch s {
	case model.SeverityError:
		return lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	case model.SeverityWarning:
		return lipgloss.NewStyle().Foreground(colorYellow)
	default:
		return lipgloss.NewStyle().Foreground(colorBlue)
	}
}
