package radio

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/garagenode/internal/logging"
)

const (
	procRoute    = "/proc/net/route"
	procWireless = "/proc/net/wireless"

	// commandTimeout bounds the association helper commands.
	commandTimeout = 3 * time.Second
)

// NetInterface observes a host network interface (e.g. wlan0). Association
// and release are delegated to optional helper commands; the SSID and
// passphrase are passed to them as GARAGE_WIFI_SSID and GARAGE_WIFI_PASSWORD.
type NetInterface struct {
	Name       string
	ConnectCmd []string
	ReleaseCmd []string

	// RoutePath and WirelessPath default to the /proc tables.
	RoutePath    string
	WirelessPath string

	mu      sync.Mutex
	ssid    string
	begun   bool
	lastErr error
}

// NewNetInterface returns an observer for the named interface.
func NewNetInterface(name string, connectCmd, releaseCmd []string) *NetInterface {
	return &NetInterface{
		Name:         name,
		ConnectCmd:   connectCmd,
		ReleaseCmd:   releaseCmd,
		RoutePath:    procRoute,
		WirelessPath: procWireless,
	}
}

func (n *NetInterface) Begin(ssid, passphrase string) error {
	n.mu.Lock()
	n.ssid = ssid
	n.begun = true
	n.mu.Unlock()

	err := n.run(n.ConnectCmd, ssid, passphrase)
	n.mu.Lock()
	n.lastErr = err
	n.mu.Unlock()
	return err
}

func (n *NetInterface) Disconnect() error {
	n.mu.Lock()
	n.begun = false
	n.mu.Unlock()
	return n.run(n.ReleaseCmd, "", "")
}

func (n *NetInterface) run(argv []string, ssid, passphrase string) error {
	if len(argv) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(),
		"GARAGE_WIFI_IFACE="+n.Name,
		"GARAGE_WIFI_SSID="+ssid,
		"GARAGE_WIFI_PASSWORD="+passphrase,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		logging.Warn("Radio helper command failed",
			zap.Strings("command", argv),
			zap.String("output", strings.TrimSpace(string(out))),
			zap.Error(err),
		)
		return fmt.Errorf("radio: %s: %w", argv[0], err)
	}
	return nil
}

func (n *NetInterface) iface() (*net.Interface, error) {
	return net.InterfaceByName(n.Name)
}

// Status maps the interface flags onto radio status codes.
func (n *NetInterface) Status() Status {
	ifc, err := n.iface()
	if err != nil {
		return StatusNoSSIDAvail
	}
	if ifc.Flags&net.FlagUp == 0 {
		return StatusDisconnected
	}
	if ifc.Flags&net.FlagRunning == 0 {
		n.mu.Lock()
		failed := n.begun && n.lastErr != nil
		n.mu.Unlock()
		if failed {
			return StatusConnectFailed
		}
		return StatusConnectionLost
	}
	return StatusConnected
}

func (n *NetInterface) ipv4() (net.IP, net.IPMask) {
	ifc, err := n.iface()
	if err != nil {
		return net.IPv4zero, nil
	}
	addrs, err := ifc.Addrs()
	if err != nil {
		return net.IPv4zero, nil
	}
	for _, a := range addrs {
		if ipn, ok := a.(*net.IPNet); ok {
			if v4 := ipn.IP.To4(); v4 != nil {
				return v4, ipn.Mask
			}
		}
	}
	return net.IPv4zero, nil
}

func (n *NetInterface) LocalIP() net.IP {
	ip, _ := n.ipv4()
	return ip
}

func (n *NetInterface) Mask() net.IPMask {
	_, mask := n.ipv4()
	return mask
}

// Gateway returns the default route of the interface.
func (n *NetInterface) Gateway() net.IP {
	f, err := os.Open(n.RoutePath)
	if err != nil {
		return net.IPv4zero
	}
	defer func() { _ = f.Close() }()
	return parseDefaultGateway(f, n.Name)
}

// RSSI returns the signal level in dBm, or 0 when unknown.
func (n *NetInterface) RSSI() int {
	f, err := os.Open(n.WirelessPath)
	if err != nil {
		return 0
	}
	defer func() { _ = f.Close() }()
	return parseSignalLevel(f, n.Name)
}

func (n *NetInterface) SSID() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ssid
}

// parseDefaultGateway reads /proc/net/route. Addresses there are
// little-endian hex.
func parseDefaultGateway(r io.Reader, iface string) net.IP {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 || fields[0] != iface || fields[1] != "00000000" {
			continue
		}
		raw, err := hex.DecodeString(fields[2])
		if err != nil || len(raw) != 4 {
			continue
		}
		ip := make(net.IP, 4)
		binary.BigEndian.PutUint32(ip, binary.LittleEndian.Uint32(raw))
		return ip
	}
	return net.IPv4zero
}

// parseSignalLevel reads the level column of /proc/net/wireless.
func parseSignalLevel(r io.Reader, iface string) int {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 || strings.TrimSuffix(fields[0], ":") != iface {
			continue
		}
		level, err := strconv.ParseFloat(strings.TrimSuffix(fields[3], "."), 64)
		if err != nil {
			return 0
		}
		return int(level)
	}
	return 0
}
