package radio

import (
	"net"
	"strings"
	"testing"
)

func TestStatus_String(t *testing.T) {
	if got := StatusConnected.String(); !strings.HasPrefix(got, "CONNECTED") {
		t.Errorf("StatusConnected = %q", got)
	}
	if got := Status(42).String(); got != "UNKNOWN(42)" {
		t.Errorf("Status(42) = %q", got)
	}
}

func TestHasAddress(t *testing.T) {
	tests := []struct {
		ip   net.IP
		want bool
	}{
		{nil, false},
		{net.IPv4zero, false},
		{net.IPv4(192, 168, 1, 190), true},
		{net.ParseIP("fe80::1"), false},
	}
	for _, tt := range tests {
		if got := HasAddress(tt.ip); got != tt.want {
			t.Errorf("HasAddress(%v) = %v, want %v", tt.ip, got, tt.want)
		}
	}
}

func TestLastOctet(t *testing.T) {
	if got := LastOctet(net.IPv4(10, 0, 0, 190)); got != 190 {
		t.Errorf("LastOctet = %d", got)
	}
	if got := LastOctet(nil); got != 0 {
		t.Errorf("LastOctet(nil) = %d", got)
	}
}

func TestSim_Lifecycle(t *testing.T) {
	s := NewSim()
	if Attached(s) {
		t.Fatal("new sim should not be attached")
	}

	_ = s.Begin("garage", "secret")
	if s.Status() != StatusDisconnected || s.SSID() != "garage" {
		t.Errorf("after Begin: status=%v ssid=%q", s.Status(), s.SSID())
	}

	s.SetStatus(StatusConnected)
	if Attached(s) {
		t.Error("associated without address must not count as attached")
	}

	s.Attach(net.IPv4(192, 168, 4, 23))
	if !Attached(s) {
		t.Fatal("sim should be attached")
	}
	if !s.Gateway().Equal(net.IPv4(192, 168, 4, 1)) {
		t.Errorf("gateway = %v", s.Gateway())
	}

	s.Drop()
	if Attached(s) || s.Status() != StatusConnectionLost {
		t.Errorf("after Drop: status=%v", s.Status())
	}
	_ = s.Disconnect()
	if s.Begins() != 1 || s.Disconnects() != 1 {
		t.Errorf("begins=%d disconnects=%d", s.Begins(), s.Disconnects())
	}
}

func TestSim_AutoAttach(t *testing.T) {
	s := NewSim()
	s.AutoAttach = net.IPv4(10, 1, 1, 5)
	_ = s.Begin("garage", "")
	if !Attached(s) {
		t.Error("AutoAttach should attach on Begin")
	}
}

func TestParseDefaultGateway(t *testing.T) {
	table := `Iface	Destination	Gateway 	Flags	RefCnt	Use	Metric	Mask		MTU	Window	IRTT
eth0	00000000	0101A8C0	0003	0	0	100	00000000	0	0	0
wlan0	0001A8C0	00000000	0001	0	0	600	00FFFFFF	0	0	0
wlan0	00000000	0104A8C0	0003	0	0	600	00000000	0	0	0
`
	got := parseDefaultGateway(strings.NewReader(table), "wlan0")
	if !got.Equal(net.IPv4(192, 168, 4, 1)) {
		t.Errorf("gateway = %v, want 192.168.4.1", got)
	}
	if got := parseDefaultGateway(strings.NewReader(table), "wlan1"); !got.Equal(net.IPv4zero) {
		t.Errorf("missing interface gateway = %v", got)
	}
}

func TestParseSignalLevel(t *testing.T) {
	table := `Inter-| sta-|   Quality        |   Discarded packets               | Missed | WE
 face | tus | link level noise |  nwid  crypt   frag  retry   misc | beacon | 22
 wlan0: 0000   54.  -56.  -256        0      0      0      0     12        0
`
	if got := parseSignalLevel(strings.NewReader(table), "wlan0"); got != -56 {
		t.Errorf("level = %d, want -56", got)
	}
	if got := parseSignalLevel(strings.NewReader(table), "eth0"); got != 0 {
		t.Errorf("unknown interface level = %d", got)
	}
}

func TestNetInterface_MissingInterface(t *testing.T) {
	n := NewNetInterface("garage-test-missing0", nil, nil)
	if n.Status() != StatusNoSSIDAvail {
		t.Errorf("status = %v", n.Status())
	}
	if HasAddress(n.LocalIP()) {
		t.Errorf("ip = %v", n.LocalIP())
	}
	if err := n.Begin("garage", "pw"); err != nil {
		t.Errorf("Begin without helper = %v", err)
	}
	if n.SSID() != "garage" {
		t.Errorf("ssid = %q", n.SSID())
	}
}
