package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	litStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
	darkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A"))
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262"))
)

const (
	litGlyph  = "●"
	darkGlyph = "·"
)

// Render draws f as a bordered grid of dots.
func Render(f Frame) string {
	var sb strings.Builder
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if x > 0 {
				sb.WriteByte(' ')
			}
			if f.Lit(x, y) {
				sb.WriteString(litStyle.Render(litGlyph))
			} else {
				sb.WriteString(darkStyle.Render(darkGlyph))
			}
		}
		if y < Height-1 {
			sb.WriteByte('\n')
		}
	}
	return borderStyle.Render(sb.String())
}

// Hex returns the packed words, the form the matrix driver loads.
func Hex(f Frame) string {
	return fmt.Sprintf("0x%08X 0x%08X 0x%08X", f[0], f[1], f[2])
}

// TerminalSink prints frames to a writer: the rendered grid on a terminal,
// one line of packed words otherwise.
type TerminalSink struct {
	w   io.Writer
	tty bool
}

// NewTerminalSink creates a sink writing to w.
func NewTerminalSink(w io.Writer) *TerminalSink {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &TerminalSink{w: w, tty: tty}
}

func (s *TerminalSink) Load(f Frame) error {
	var err error
	if s.tty {
		_, err = fmt.Fprintln(s.w, Render(f))
	} else {
		_, err = fmt.Fprintf(s.w, "frame %s\n", Hex(f))
	}
	return err
}
