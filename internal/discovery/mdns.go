package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type garage nodes advertise
	ServiceType = "_garagenode._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for node discovery
	DefaultScanTimeout = 5 * time.Second
)

// Scanner browses for garage nodes
type Scanner struct {
	// Timeout is the maximum time to wait for answers
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan collects every node that answers within the timeout, in order of
// first answer. Repeat answers from the same instance are dropped.
func (s *Scanner) Scan(ctx context.Context) ([]*Node, error) {
	var found collector
	if err := s.browse(ctx, func(n *Node) bool {
		found.add(n)
		return false
	}); err != nil {
		return nil, err
	}
	return found.list(), nil
}

// Find waits for the node whose instance name or ID equals name and stops
// browsing as soon as it answers.
func (s *Scanner) Find(ctx context.Context, name string) (*Node, error) {
	var match *Node
	err := s.browse(ctx, func(n *Node) bool {
		if n.Instance == name || n.ID == name {
			match = n
			return true
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, fmt.Errorf("node %q not found within %v", name, s.Timeout)
	}
	return match, nil
}

// browse feeds each parsed answer to visit until visit returns true or the
// timeout expires. visit runs on one goroutine which has exited by the
// time browse returns.
func (s *Scanner) browse(ctx context.Context, visit func(*Node) bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if n := parseServiceEntry(entry); n != nil && visit(n) {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}
	<-ctx.Done()
	<-done
	return nil
}

type collector struct {
	seen  map[string]bool
	nodes []*Node
}

func (c *collector) add(n *Node) bool {
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	if c.seen[n.Instance] {
		return false
	}
	c.seen[n.Instance] = true
	c.nodes = append(c.nodes, n)
	return true
}

func (c *collector) list() []*Node {
	if c.nodes == nil {
		return []*Node{}
	}
	return c.nodes
}

// parseServiceEntry converts a service entry to a Node. Entries without an
// address or an id TXT record are ignored.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Node {
	if entry == nil {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" || entry.Port <= 0 {
		return nil
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}
	id := metadata[TxtID]
	if id == "" {
		return nil
	}

	return &Node{
		Instance:     entry.Instance,
		ID:           id,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
