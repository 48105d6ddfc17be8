package radio

import (
	"net"
	"sync"
)

// Sim is a scriptable radio. Tests and the development node drive it by
// setting the status and address directly; Begin and Disconnect are
// recorded.
type Sim struct {
	mu sync.Mutex

	status  Status
	ip      net.IP
	gateway net.IP
	mask    net.IPMask
	rssi    int
	ssid    string

	// AutoAttach makes Begin associate immediately with the given address.
	AutoAttach net.IP

	begins      int
	disconnects int
}

// NewSim returns a disconnected simulated radio.
func NewSim() *Sim {
	return &Sim{status: StatusIdle}
}

func (s *Sim) Begin(ssid, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begins++
	s.ssid = ssid
	if s.AutoAttach != nil {
		s.attachLocked(s.AutoAttach)
		return nil
	}
	s.status = StatusDisconnected
	return nil
}

func (s *Sim) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnects++
	s.status = StatusDisconnected
	s.ip = nil
	return nil
}

// Attach associates with ip as the assigned address.
func (s *Sim) Attach(ip net.IP) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachLocked(ip)
}

func (s *Sim) attachLocked(ip net.IP) {
	s.status = StatusConnected
	s.ip = ip
	s.gateway = net.IPv4(ip[len(ip)-4], ip[len(ip)-3], ip[len(ip)-2], 1)
	s.mask = net.CIDRMask(24, 32)
	if s.rssi == 0 {
		s.rssi = -60
	}
}

// SetStatus overrides the association status without touching the address.
func (s *Sim) SetStatus(st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}

// Drop simulates link loss.
func (s *Sim) Drop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusConnectionLost
	s.ip = nil
}

// SetRSSI sets the reported signal strength.
func (s *Sim) SetRSSI(dbm int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rssi = dbm
}

// Begins returns how many times Begin was called.
func (s *Sim) Begins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.begins
}

// Disconnects returns how many times Disconnect was called.
func (s *Sim) Disconnects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnects
}

func (s *Sim) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Sim) LocalIP() net.IP {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ip == nil {
		return net.IPv4zero
	}
	return s.ip
}

func (s *Sim) Gateway() net.IP {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gateway
}

func (s *Sim) Mask() net.IPMask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mask
}

func (s *Sim) RSSI() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rssi
}

func (s *Sim) SSID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ssid
}
