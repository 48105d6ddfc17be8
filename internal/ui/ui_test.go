package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/garagenode/internal/client"
	"github.com/muurk/garagenode/internal/display"
)

func sampleStatus() *client.Status {
	return &client.Status{
		DoorClosed:     true,
		LightOn:        true,
		LightRemaining: 42 * time.Second,
		Network: client.NetworkStatus{
			Connected: true,
			IP:        "192.168.1.190",
			Gateway:   "192.168.1.1",
			SSID:      "garage",
			RSSI:      -61,
		},
	}
}

func TestRenderStatus(t *testing.T) {
	out := RenderStatus("north", sampleStatus(), 80)
	for _, want := range []string{"NORTH", "CLOSED", "ON", "42s left", "192.168.1.190", "-61 dBm"} {
		if !strings.Contains(out, want) {
			t.Errorf("status panel missing %q:\n%s", want, out)
		}
	}

	down := sampleStatus()
	down.Network.Connected = false
	down.DoorClosed = false
	out = RenderStatus("north", down, 80)
	if !strings.Contains(out, "OPEN") || !strings.Contains(out, "down") {
		t.Errorf("disconnected panel:\n%s", out)
	}
}

func TestStatusFrame(t *testing.T) {
	s := sampleStatus()
	want := display.StatusFrame(display.Status{DoorClosed: true, LightOn: true, Connected: true})
	if got := StatusFrame(s); got != want {
		t.Errorf("StatusFrame() = %v, want %v", got, want)
	}
}

func TestResultRender(t *testing.T) {
	tests := []struct {
		name   string
		result *Result
		want   []string
	}{
		{
			name:   "success",
			result: NewSuccessResult("Door opening", Param{"Node", "north"}),
			want:   []string{"SUCCESS", "Door opening", "Node:", "north"},
		},
		{
			name:   "failure",
			result: NewFailureResult("Lamp", errors.New("boom"), "", "check power"),
			want:   []string{"FAILED", "Error: boom", "Troubleshooting:", "check power"},
		},
		{
			name:   "warning",
			result: NewWarningResult("Stale address").AddDetail("Seen", "yesterday"),
			want:   []string{"WARNING", "Stale address", "yesterday"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.result.Render()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("Render() missing %q:\n%s", w, out)
				}
			}
		})
	}

	if r := NewFailureResult("x", nil, "", ""); len(r.Troubleshooting) != 0 {
		t.Errorf("empty tips kept: %v", r.Troubleshooting)
	}
}

func TestHeaderKeepsParamOrder(t *testing.T) {
	h := NewHeader("Door", "garage-ctl door open", Param{"Node", "north"}, Param{"Action", "open"})
	out := h.Render()
	if strings.Index(out, "Node:") > strings.Index(out, "Action:") {
		t.Errorf("params out of order:\n%s", out)
	}
	if !strings.Contains(out, "DOOR") {
		t.Errorf("title not upper-cased:\n%s", out)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"y", true},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		if got := ConfirmDoor(strings.NewReader(tt.input), &out, "north", "open"); got != tt.want {
			t.Errorf("ConfirmDoor(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "DOOR OPEN") {
			t.Errorf("prompt missing title: %s", out.String())
		}
	}
}

type fakeControl struct {
	status  *client.Status
	err     error
	actions []string
}

func (f *fakeControl) GetStatus(context.Context) (*client.Status, error) {
	return f.status, f.err
}

func (f *fakeControl) Lamp(_ context.Context, action string, _ time.Duration) (string, error) {
	f.actions = append(f.actions, action)
	return "Lamp " + action, nil
}

func TestWatchModel_StatusCycle(t *testing.T) {
	ctl := &fakeControl{status: sampleStatus()}
	m := NewWatchModel("north", ctl, time.Second)

	if !strings.Contains(m.View(), "Contacting north") {
		t.Errorf("initial view = %q", m.View())
	}

	msg := m.fetch()()
	next, cmd := m.Update(msg)
	m = next.(WatchModel)
	if cmd == nil {
		t.Error("status should schedule the next poll")
	}
	if !strings.Contains(m.View(), "CLOSED") {
		t.Errorf("view after status:\n%s", m.View())
	}

	ctl.err = client.NewNetworkError("unreachable", errors.New("timeout"))
	next, _ = m.Update(m.fetch()())
	m = next.(WatchModel)
	if m.status == nil || !strings.Contains(m.View(), "CLOSED") {
		t.Error("a failed poll should keep the last good status")
	}
}

func TestWatchModel_Unreachable(t *testing.T) {
	ctl := &fakeControl{err: client.NewNetworkError("unreachable", errors.New("timeout"))}
	m := NewWatchModel("north", ctl, time.Second)
	next, _ := m.Update(m.fetch()())
	if view := next.(WatchModel).View(); !strings.Contains(view, "Cannot reach north") {
		t.Errorf("view:\n%s", view)
	}
}

func TestWatchModel_LampToggle(t *testing.T) {
	ctl := &fakeControl{status: sampleStatus()}
	m := NewWatchModel("north", ctl, time.Second)
	next, _ := m.Update(m.fetch()())
	m = next.(WatchModel)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	if cmd == nil {
		t.Fatal("l produced no command")
	}
	msg := cmd()
	if len(ctl.actions) != 1 || ctl.actions[0] != "off" {
		t.Errorf("actions = %v, want [off]", ctl.actions)
	}
	next, _ = m.Update(msg)
	if !strings.Contains(next.(WatchModel).View(), "Lamp off") {
		t.Error("lamp notice not shown")
	}
}

func TestWatchModel_Quit(t *testing.T) {
	m := NewWatchModel("north", &fakeControl{}, 0)
	if m.Interval != DefaultWatchInterval {
		t.Errorf("Interval = %v", m.Interval)
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q produced no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestClampWidth(t *testing.T) {
	for in, want := range map[int]int{10: MinTerminalWidth, 80: 80, 500: MaxContentWidth} {
		if got := clampWidth(in); got != want {
			t.Errorf("clampWidth(%d) = %d, want %d", in, got, want)
		}
	}
}
