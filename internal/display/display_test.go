package display

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFrame_BitLayout(t *testing.T) {
	tests := []struct {
		x, y int
		want Frame
	}{
		{0, 0, Frame{1 << 31, 0, 0}},
		{11, 0, Frame{1 << 20, 0, 0}},
		{7, 2, Frame{1, 0, 0}},
		{8, 2, Frame{0, 1 << 31, 0}},
		{3, 5, Frame{0, 1, 0}},
		{4, 5, Frame{0, 0, 1 << 31}},
		{11, 7, Frame{0, 0, 1}},
	}
	for _, tt := range tests {
		var f Frame
		f.Set(tt.x, tt.y)
		if f != tt.want {
			t.Errorf("Set(%d, %d) = %s, want %s", tt.x, tt.y, Hex(f), Hex(tt.want))
		}
		if !f.Lit(tt.x, tt.y) || f.Count() != 1 {
			t.Errorf("Set(%d, %d): Lit=%v Count=%d", tt.x, tt.y, f.Lit(tt.x, tt.y), f.Count())
		}
	}
}

func TestFrame_OutOfRangeIgnored(t *testing.T) {
	var f Frame
	f.Set(-1, 0)
	f.Set(12, 0)
	f.Set(0, 8)
	f.Set(0, -3)
	if f != (Frame{}) {
		t.Errorf("out-of-range Set changed frame: %s", Hex(f))
	}
	if f.Lit(12, 0) {
		t.Error("Lit(12, 0) = true")
	}
}

func TestStatusFrame(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		lit    [][2]int
		count  int
	}{
		{"empty", Status{}, nil, 0},
		{"night", Status{Night: true}, [][2]int{{0, 0}, {1, 1}}, 4},
		{"closed", Status{DoorClosed: true}, [][2]int{{3, 0}, {4, 1}}, 4},
		{"button", Status{ButtonLatched: true}, [][2]int{{6, 0}, {7, 1}}, 4},
		{"light", Status{LightOn: true}, [][2]int{{0, 4}, {2, 6}}, 9},
		{"pulse", Status{DoorPulse: true}, [][2]int{{4, 4}, {6, 6}}, 9},
		{"network", Status{Connected: true}, [][2]int{{10, 0}, {11, 1}, {10, 3}, {11, 6}, {10, 7}, {11, 7}}, 14},
		{"all", Status{true, true, true, true, true, true}, [][2]int{{0, 0}, {6, 6}, {11, 7}}, 4*3 + 9*2 + 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := StatusFrame(tt.status)
			for _, p := range tt.lit {
				if !f.Lit(p[0], p[1]) {
					t.Errorf("pixel (%d, %d) not lit", p[0], p[1])
				}
			}
			if f.Count() != tt.count {
				t.Errorf("Count() = %d, want %d", f.Count(), tt.count)
			}
		})
	}
}

func TestStatusFrame_NetworkBarLeavesGap(t *testing.T) {
	f := StatusFrame(Status{Connected: true})
	if f.Lit(10, 2) || f.Lit(11, 2) {
		t.Error("row 2 of the network bar should be dark")
	}
}

func TestAddressFrame(t *testing.T) {
	tests := []struct {
		octet  uint8
		startX int
		digits int
	}{
		{190, 0, 3},
		{42, 2, 2},
		{5, 4, 1},
		{0, 4, 1},
		{100, 0, 3},
	}

	for _, tt := range tests {
		f := AddressFrame(tt.octet)
		// Every glyph lights its top-left pixel; nothing is drawn outside
		// rows 2-5.
		for y := 0; y < Height; y++ {
			for x := 0; x < Width; x++ {
				if (y < 2 || y > 5) && f.Lit(x, y) {
					t.Errorf("octet %d: pixel (%d, %d) outside digit rows", tt.octet, x, y)
				}
			}
		}
		for x := 0; x < tt.startX; x++ {
			for y := 2; y <= 5; y++ {
				if f.Lit(x, y) {
					t.Errorf("octet %d: pixel (%d, %d) left of start column %d", tt.octet, x, y, tt.startX)
				}
			}
		}
		if !f.Lit(tt.startX, 2) {
			t.Errorf("octet %d: first glyph missing at column %d", tt.octet, tt.startX)
		}
	}
}

func TestAddressFrame_Glyphs(t *testing.T) {
	// 190: "1" at x=0, "9" at x=4, "0" at x=8.
	f := AddressFrame(190)
	want := map[[2]int]bool{
		{0, 2}: true, {1, 2}: true, {2, 2}: false,
		{1, 3}: true, {0, 3}: false,
		{0, 5}: true, {2, 5}: true,
		{4, 4}: false, {5, 4}: true, {6, 4}: true,
		{8, 3}: true, {9, 3}: false, {10, 3}: true,
		{11, 2}: false,
	}
	for p, lit := range want {
		if f.Lit(p[0], p[1]) != lit {
			t.Errorf("pixel (%d, %d) lit = %v, want %v", p[0], p[1], !lit, lit)
		}
	}
}

type recordingSink struct {
	frames []Frame
	err    error
}

func (r *recordingSink) Load(f Frame) error {
	r.frames = append(r.frames, f)
	return r.err
}

func TestMatrix_AddressOverlayExpires(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	sink := &recordingSink{}
	status := Status{Connected: true, DoorClosed: true}
	m := New(sink, func() Status { return status }, Options{Now: func() time.Time { return now }})

	m.Refresh()
	m.ShowAddress(190)
	if m.Current() != AddressFrame(190) {
		t.Fatal("overlay not shown")
	}

	now = now.Add(DefaultOverlay)
	if m.Current() != AddressFrame(190) {
		t.Error("overlay gone at exactly the overlay duration")
	}

	now = now.Add(time.Millisecond)
	m.Refresh()
	if m.Current() != StatusFrame(status) {
		t.Error("status layout not restored after overlay")
	}

	want := []Frame{StatusFrame(status), AddressFrame(190), StatusFrame(status)}
	if len(sink.frames) != len(want) {
		t.Fatalf("sink got %d frames, want %d", len(sink.frames), len(want))
	}
	for i := range want {
		if sink.frames[i] != want[i] {
			t.Errorf("frame %d = %s, want %s", i, Hex(sink.frames[i]), Hex(want[i]))
		}
	}
}

func TestMatrix_RefreshSkipsUnchangedFrames(t *testing.T) {
	sink := &recordingSink{}
	status := Status{LightOn: true}
	m := New(sink, func() Status { return status }, Options{})

	for i := 0; i < 5; i++ {
		m.Refresh()
	}
	status.LightOn = false
	m.Refresh()
	m.Refresh()

	if len(sink.frames) != 2 {
		t.Errorf("sink loads = %d, want 2", len(sink.frames))
	}
}

func TestMatrix_Disabled(t *testing.T) {
	sink := &recordingSink{}
	m := New(sink, func() Status { return Status{Night: true} }, Options{Disabled: true})

	m.ShowAddress(12)
	if m.Current() != (Frame{}) {
		t.Error("disabled matrix drew something")
	}

	m.SetEnabled(true)
	if m.Current() != AddressFrame(12) {
		t.Error("overlay not shown once enabled")
	}
	if n := len(sink.frames); n != 2 || sink.frames[0] != (Frame{}) {
		t.Errorf("sink frames = %d", n)
	}
}

func TestMatrix_SinkErrorIsNotFatal(t *testing.T) {
	sink := &recordingSink{err: errors.New("bus busy")}
	m := New(sink, func() Status { return Status{Night: true} }, Options{})
	m.Refresh()
	if len(sink.frames) != 1 {
		t.Errorf("sink loads = %d", len(sink.frames))
	}
}

func TestTerminalSink_NonTTY(t *testing.T) {
	var buf bytes.Buffer
	s := NewTerminalSink(&buf)
	var f Frame
	f.Set(0, 0)
	if err := s.Load(f); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := buf.String(); got != "frame 0x80000000 0x00000000 0x00000000\n" {
		t.Errorf("output = %q", got)
	}
}

func TestRender(t *testing.T) {
	out := Render(StatusFrame(Status{Night: true}))
	if strings.Count(out, litGlyph) != 4 {
		t.Errorf("lit glyphs = %d, want 4", strings.Count(out, litGlyph))
	}
	if strings.Count(out, darkGlyph) != Width*Height-4 {
		t.Errorf("dark glyphs = %d", strings.Count(out, darkGlyph))
	}
}
