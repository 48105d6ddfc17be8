package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Palette. Door and lamp colours mirror the node's LED matrix: green for
// a closed door, red for open, amber for the lamp.
var (
	PrimaryColor = lipgloss.Color("#5B8DEF")
	SuccessColor = lipgloss.Color("#3FB950")
	ErrorColor   = lipgloss.Color("#F85149")
	WarningColor = lipgloss.Color("#E3A008")
	MutedColor   = lipgloss.Color("#6E7681")
	TextColor    = lipgloss.Color("#E6EDF3")
)

const (
	MinTerminalWidth = 60
	MaxContentWidth  = 100
)

func fg(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

func bold(c lipgloss.Color) lipgloss.Style { return fg(c).Bold(true) }

var (
	HeaderTitleStyle      = bold(TextColor).PaddingLeft(2)
	HeaderCommandStyle    = fg(MutedColor).PaddingLeft(2)
	HeaderParamKeyStyle   = fg(MutedColor).PaddingLeft(2)
	HeaderParamValueStyle = fg(TextColor)

	SuccessTitleStyle = bold(SuccessColor)
	ErrorTitleStyle   = bold(ErrorColor)
	WarningTitleStyle = bold(WarningColor)
	ErrorMessageStyle = fg(ErrorColor)

	// ResultKeyStyle pads detail keys into a column
	ResultKeyStyle   = fg(MutedColor).Width(15)
	ResultValueStyle = fg(TextColor)

	TroubleshootingTitleStyle = bold(MutedColor)
	TroubleshootingItemStyle  = fg(MutedColor)

	DoorClosedStyle = bold(SuccessColor)
	DoorOpenStyle   = bold(ErrorColor)
	LightOnStyle    = bold(WarningColor)
	LightOffStyle   = fg(MutedColor)

	HelpStyle = fg(MutedColor).Italic(true)
)

const (
	SuccessMarker = "✓"
	FailureMarker = "✗"
	WarningMarker = "⚠"
)

// IsTerminal reports whether stdout is a terminal
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// GetTerminalWidth returns the stdout width clamped to
// [MinTerminalWidth, MaxContentWidth]. Pipes get the minimum.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth
	}
	return clampWidth(width)
}

func clampWidth(width int) int {
	return max(MinTerminalWidth, min(width, MaxContentWidth))
}

func RenderHorizontalDivider(width int) string {
	return fg(PrimaryColor).Render(strings.Repeat("─", width))
}
