package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/muurk/garagenode/internal/flatobj"
)

// Status is a node's status snapshot
type Status struct {
	DoorClosed     bool
	LightOn        bool
	Night          bool
	LightRemaining time.Duration
	Network        NetworkStatus
}

// NetworkStatus is the network group of the snapshot
type NetworkStatus struct {
	Connected bool
	IP        string
	Gateway   string
	Subnet    string
	RSSI      int
	SSID      string
}

// ParseStatus decodes a status response body
func ParseStatus(body []byte) (*Status, error) {
	obj, err := flatobj.Decode(body)
	if err != nil {
		return nil, NewParseError("invalid status response", err)
	}

	s := &Status{}
	switch obj.String("door") {
	case "closed":
		s.DoorClosed = true
	case "open":
	default:
		return nil, NewParseError(fmt.Sprintf("unexpected door state %q", obj.String("door")), nil)
	}
	switch obj.String("light") {
	case "on":
		s.LightOn = true
	case "off":
	default:
		return nil, NewParseError(fmt.Sprintf("unexpected light state %q", obj.String("light")), nil)
	}

	s.Night, _ = obj.Bool("night")
	if ms, ok := obj.Int("light_timeout_ms"); ok {
		s.LightRemaining = time.Duration(ms) * time.Millisecond
	}

	s.Network.Connected, _ = obj.Bool("network.connected")
	s.Network.IP = obj.String("network.ip")
	s.Network.Gateway = obj.String("network.gateway")
	s.Network.Subnet = obj.String("network.subnet")
	if rssi, ok := obj.Int("network.rssi"); ok {
		s.Network.RSSI = int(rssi)
	}
	s.Network.SSID = obj.String("network.ssid")
	return s, nil
}

// Door returns "open" or "closed"
func (s *Status) Door() string {
	if s.DoorClosed {
		return "closed"
	}
	return "open"
}

// Light returns "on" or "off"
func (s *Status) Light() string {
	if s.LightOn {
		return "on"
	}
	return "off"
}

// Summary returns a one-line summary of the snapshot
func (s *Status) Summary() string {
	return fmt.Sprintf("door %s, light %s, %s", s.Door(), s.Light(), s.networkSummary())
}

func (s *Status) networkSummary() string {
	if !s.Network.Connected {
		return "network down"
	}
	return fmt.Sprintf("%s on %s (%d dBm)", s.Network.IP, s.Network.SSID, s.Network.RSSI)
}

// FormatDetailed returns a multi-section view of the snapshot
func (s *Status) FormatDetailed() string {
	var b strings.Builder

	b.WriteString("=== Actuators ===\n")
	b.WriteString(fmt.Sprintf("Door:        %s\n", s.Door()))
	b.WriteString(fmt.Sprintf("Light:       %s\n", s.Light()))
	if s.LightOn {
		b.WriteString(fmt.Sprintf("Light off in %s\n", s.LightRemaining.Round(time.Second)))
	}
	b.WriteString(fmt.Sprintf("Night:       %v\n", s.Night))
	b.WriteString("\n")

	b.WriteString("=== Network ===\n")
	b.WriteString(fmt.Sprintf("Connected:   %v\n", s.Network.Connected))
	b.WriteString(fmt.Sprintf("SSID:        %s\n", s.Network.SSID))
	b.WriteString(fmt.Sprintf("IP Address:  %s\n", s.Network.IP))
	b.WriteString(fmt.Sprintf("Gateway:     %s\n", s.Network.Gateway))
	b.WriteString(fmt.Sprintf("Subnet:      %s\n", s.Network.Subnet))
	b.WriteString(fmt.Sprintf("Signal:      %d dBm\n", s.Network.RSSI))

	return b.String()
}
