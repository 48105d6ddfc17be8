package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm shows a warning box on out and reads one answer line from in.
// Only "y" or "yes" (any case) confirm.
func Confirm(in io.Reader, out io.Writer, title string, warnings ...string) bool {
	width := GetTerminalWidth()

	lines := []string{"", WarningTitleStyle.Render(fmt.Sprintf("   %s  %s", WarningMarker, title)), ""}
	bullet := lipgloss.NewStyle().Foreground(TextColor)
	for _, w := range warnings {
		lines = append(lines, bullet.Render("   • "+w))
	}
	if len(warnings) > 0 {
		lines = append(lines, "")
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(WarningColor).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))

	_, _ = fmt.Fprintln(out, box)
	_, _ = fmt.Fprint(out, WarningTitleStyle.Render("Proceed? [y/N]: "))

	answer, err := bufio.NewReader(in).ReadString('\n')
	_, _ = fmt.Fprintln(out)
	if err != nil && answer == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	_, _ = fmt.Fprintln(out, lipgloss.NewStyle().Foreground(MutedColor).Render("  Cancelled."))
	return false
}

// ConfirmDoor asks before moving the door
func ConfirmDoor(in io.Reader, out io.Writer, node, action string) bool {
	return Confirm(in, out, "DOOR "+strings.ToUpper(action)+" on "+node,
		"The door will start moving as soon as the node receives the command",
		"Make sure the doorway is clear",
	)
}
