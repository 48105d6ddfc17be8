package radio

import (
	"fmt"
	"net"
)

// Status is the association state reported by the radio driver.
type Status int

const (
	StatusIdle Status = iota
	StatusNoSSIDAvail
	StatusScanCompleted
	StatusConnected
	StatusConnectFailed
	StatusConnectionLost
	StatusDisconnected
)

// String returns the status name with a short description.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "IDLE (waiting for configuration)"
	case StatusNoSSIDAvail:
		return "NO_SSID_AVAIL (network not found)"
	case StatusScanCompleted:
		return "SCAN_COMPLETED (scan finished)"
	case StatusConnected:
		return "CONNECTED (associated)"
	case StatusConnectFailed:
		return "CONNECT_FAILED (association failed)"
	case StatusConnectionLost:
		return "CONNECTION_LOST (link lost)"
	case StatusDisconnected:
		return "DISCONNECTED (not associated)"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// Radio is the wireless attachment. Every method must return promptly;
// Begin only starts association.
type Radio interface {
	Begin(ssid, passphrase string) error
	Disconnect() error
	Status() Status
	LocalIP() net.IP
	Gateway() net.IP
	Mask() net.IPMask
	RSSI() int
	SSID() string
}

// HasAddress reports whether ip is a usable, non-zero IPv4 address.
func HasAddress(ip net.IP) bool {
	v4 := ip.To4()
	return v4 != nil && !v4.Equal(net.IPv4zero)
}

// Attached reports whether r is associated and holds an address.
func Attached(r Radio) bool {
	return r.Status() == StatusConnected && HasAddress(r.LocalIP())
}

// LastOctet returns the final byte of an IPv4 address, or 0.
func LastOctet(ip net.IP) uint8 {
	v4 := ip.To4()
	if v4 == nil {
		return 0
	}
	return v4[3]
}
