package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/garagenode/internal/client"
	"github.com/muurk/garagenode/internal/display"
)

// DoorBadge renders the door state
func DoorBadge(s *client.Status) string {
	if s.DoorClosed {
		return DoorClosedStyle.Render("CLOSED")
	}
	return DoorOpenStyle.Render("OPEN")
}

// LightBadge renders the light state with its remaining time
func LightBadge(s *client.Status) string {
	if !s.LightOn {
		return LightOffStyle.Render("off")
	}
	badge := LightOnStyle.Render("ON")
	if s.LightRemaining > 0 {
		badge += " " + LightOffStyle.Render(fmt.Sprintf("(%s left)", s.LightRemaining.Round(time.Second)))
	}
	return badge
}

// StatusFrame maps a snapshot onto the node's front-panel layout. The
// button and pulse indicators are not part of the snapshot and stay dark.
func StatusFrame(s *client.Status) display.Frame {
	return display.StatusFrame(display.Status{
		Night:      s.Night,
		DoorClosed: s.DoorClosed,
		LightOn:    s.LightOn,
		Connected:  s.Network.Connected,
	})
}

// RenderStatus renders the status panel: state details next to the
// front-panel matrix
func RenderStatus(node string, s *client.Status, width int) string {
	width = clampWidth(width)

	row := func(k, v string) string {
		return ResultKeyStyle.Render(k+":") + " " + ResultValueStyle.Render(v)
	}

	lines := []string{
		HeaderTitleStyle.Render(strings.ToUpper(node)),
		"",
		row("Door", DoorBadge(s)),
		row("Light", LightBadge(s)),
		row("Night", fmt.Sprintf("%v", s.Night)),
		"",
	}
	if s.Network.Connected {
		lines = append(lines,
			row("Network", s.Network.SSID),
			row("Address", s.Network.IP),
			row("Gateway", s.Network.Gateway),
			row("Signal", fmt.Sprintf("%d dBm", s.Network.RSSI)),
		)
	} else {
		lines = append(lines, row("Network", ErrorMessageStyle.Render("down")))
	}

	details := strings.Join(lines, "\n")
	panel := lipgloss.JoinHorizontal(lipgloss.Top, details, "   ", display.Render(StatusFrame(s)))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width-2).
		Padding(0, 1).
		Render(panel)
}
