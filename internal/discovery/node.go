package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// TXT record keys published by a node.
const (
	TxtID         = "id"
	TxtVersion    = "version"
	TxtStatusPath = "status"
	TxtSetPath    = "set"
)

// Node is a garage node found on the local network.
type Node struct {
	// Instance is the advertised instance name (e.g., "garage-north")
	Instance string

	// ID is the node's instance identifier from the TXT record
	ID string

	// Hostname is the mDNS hostname (e.g., "garage-north.local.")
	Hostname string

	// IP is the node address, IPv4 when available
	IP string

	// Port is the request listener port
	Port int

	// Metadata holds all TXT record pairs
	Metadata map[string]string

	// DiscoveredAt is when the node was seen
	DiscoveredAt time.Time
}

// String returns a human-readable description of the node
func (n *Node) String() string {
	return fmt.Sprintf("Garage node %s (%s) at %s", n.Instance, n.ID, n.Addr())
}

// Addr returns host:port for the node's request listener
func (n *Node) Addr() string {
	return net.JoinHostPort(n.IP, strconv.Itoa(n.Port))
}

// GetMetadata retrieves a TXT value by key, or "" when absent
func (n *Node) GetMetadata(key string) string {
	if n.Metadata == nil {
		return ""
	}
	return n.Metadata[key]
}

// StatusPath returns the advertised status path, or "/status"
func (n *Node) StatusPath() string {
	if p := n.GetMetadata(TxtStatusPath); p != "" {
		return p
	}
	return "/status"
}

// SetPath returns the advertised command path, or "/set"
func (n *Node) SetPath() string {
	if p := n.GetMetadata(TxtSetPath); p != "" {
		return p
	}
	return "/set"
}
