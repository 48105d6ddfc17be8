package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/muurk/garagenode/internal/client"
)

// Printer writes UI components to a writer
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a Printer. If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

// Width returns the width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Param) {
	h := NewHeader(title, command, params...)
	h.Width = p.width
	p.Println(h.Render())
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Param) {
	r := NewSuccessResult(title, details...)
	r.Width = p.width
	p.Println(r.Render())
}

// PrintNodeError prints a failure box with the hint for err
func (p *Printer) PrintNodeError(title string, err error) {
	r := NewFailureResult(title, err, client.Hints(err)...)
	r.Width = p.width
	p.Println(r.Render())
}

// PrintStatus prints the status panel
func (p *Printer) PrintStatus(node string, s *client.Status) {
	p.Println(RenderStatus(node, s, p.width))
}
