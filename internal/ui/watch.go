package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/garagenode/internal/client"
)

// DefaultWatchInterval is how often the watch screen polls the node
const DefaultWatchInterval = 2 * time.Second

// NodeControl is what the watch screen needs from a node client
type NodeControl interface {
	GetStatus(ctx context.Context) (*client.Status, error)
	Lamp(ctx context.Context, action string, duration time.Duration) (string, error)
}

type statusMsg struct {
	status *client.Status
	err    error
	at     time.Time
}

type pollMsg struct{}

type lampMsg struct {
	message string
	err     error
}

type watchKeyMap struct {
	Refresh key.Binding
	Lamp    key.Binding
	Quit    key.Binding
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Lamp, k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// WatchModel polls a node and shows its status panel until quit. The lamp
// can be toggled from the keyboard; the door cannot.
type WatchModel struct {
	Node     string
	Interval time.Duration
	Timeout  time.Duration

	control NodeControl
	status  *client.Status
	err     error
	notice  string
	updated time.Time
	polling bool
	width   int

	spinner spinner.Model
	help    help.Model
	keys    watchKeyMap
}

// NewWatchModel creates the watch screen for the named node
func NewWatchModel(node string, control NodeControl, interval time.Duration) WatchModel {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	return WatchModel{
		Node:     node,
		Interval: interval,
		Timeout:  client.DefaultTimeout,
		control:  control,
		width:    GetTerminalWidth(),
		spinner:  s,
		help:     help.New(),
		keys: watchKeyMap{
			Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
			Lamp:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "toggle lamp")),
			Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		},
	}
}

func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m WatchModel) fetch() tea.Cmd {
	control, timeout := m.control, m.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s, err := control.GetStatus(ctx)
		return statusMsg{status: s, err: err, at: time.Now()}
	}
}

func (m WatchModel) toggleLamp() tea.Cmd {
	action := "on"
	if m.status != nil && m.status.LightOn {
		action = "off"
	}
	control, timeout := m.control, m.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		message, err := control.Lamp(ctx, action, 0)
		return lampMsg{message: message, err: err}
	}
}

func (m WatchModel) schedulePoll() tea.Cmd {
	return tea.Tick(m.Interval, func(time.Time) tea.Msg { return pollMsg{} })
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if m.polling {
				return m, nil
			}
			m.polling = true
			return m, m.fetch()
		case key.Matches(msg, m.keys.Lamp):
			return m, m.toggleLamp()
		}

	case tea.WindowSizeMsg:
		m.width = clampWidth(msg.Width)

	case statusMsg:
		m.polling = false
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
			m.updated = msg.at
		}
		return m, m.schedulePoll()

	case pollMsg:
		if m.polling {
			return m, nil
		}
		m.polling = true
		return m, m.fetch()

	case lampMsg:
		if msg.err != nil {
			m.notice = ErrorMessageStyle.Render("Lamp: " + client.ShortMessage(msg.err))
			return m, nil
		}
		m.notice = msg.message
		m.polling = true
		return m, m.fetch()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m WatchModel) View() string {
	if m.status == nil {
		if m.err != nil {
			r := NewFailureResult("Cannot reach "+m.Node, m.err, client.Hints(m.err)...)
			r.Width = m.width
			return r.Render() + "\n" + m.help.View(m.keys) + "\n"
		}
		return m.spinner.View() + " Contacting " + m.Node + "...\n"
	}

	view := RenderStatus(m.Node, m.status, m.width) + "\n"

	footer := HelpStyle.Render("updated " + m.updated.Format("15:04:05"))
	if m.polling {
		footer = m.spinner.View() + " " + footer
	}
	if m.err != nil {
		footer += "  " + ErrorMessageStyle.Render(client.ShortMessage(m.err))
	}
	view += footer + "\n"
	if m.notice != "" {
		view += m.notice + "\n"
	}
	return view + m.help.View(m.keys) + "\n"
}

// RunWatch runs the watch screen until the user quits
func RunWatch(node string, control NodeControl, interval time.Duration) error {
	_, err := tea.NewProgram(NewWatchModel(node, control, interval)).Run()
	return err
}
