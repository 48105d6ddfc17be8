package main

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/muurk/garagenode/internal/config"
	"github.com/muurk/garagenode/internal/discovery"
)

// target is a resolved node address
type target struct {
	Name       string
	Addr       string
	StatusPath string
	SetPath    string
}

// finder is the part of discovery.Scanner used to resolve nodes
type finder interface {
	Scan(ctx context.Context) ([]*discovery.Node, error)
	Find(ctx context.Context, name string) (*discovery.Node, error)
}

// resolveTarget turns the --node value into an address. An address is used
// as given; otherwise the registry is consulted before mDNS. Nodes found by
// discovery are recorded in reg; changed reports whether reg needs saving.
func resolveTarget(ctx context.Context, reg *config.Registry, name string, f finder) (t *target, changed bool, err error) {
	if name == "" {
		return resolveDefault(ctx, reg, f)
	}
	if looksLikeAddr(name) {
		return &target{Name: name, Addr: name}, false, nil
	}
	if addr, ok := reg.Resolve(name); ok {
		return &target{Name: name, Addr: addr}, false, nil
	}

	node, err := f.Find(ctx, name)
	if err != nil {
		return nil, false, fmt.Errorf("node %q is not in the registry and was not discovered: %w", name, err)
	}
	remember(reg, node)
	return fromDiscovered(name, node), true, nil
}

func resolveDefault(ctx context.Context, reg *config.Registry, f finder) (*target, bool, error) {
	var known []string
	for _, id := range reg.IDs() {
		if reg.Nodes[id].LastAddr != "" {
			known = append(known, id)
		}
	}
	if len(known) == 1 {
		n := reg.Nodes[known[0]]
		return &target{Name: displayName(known[0], n), Addr: n.LastAddr}, false, nil
	}
	if len(known) > 1 {
		return nil, false, fmt.Errorf("%d known nodes (%s); use --node to pick one", len(known), strings.Join(known, ", "))
	}

	nodes, err := f.Scan(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("discovery failed: %w", err)
	}
	switch len(nodes) {
	case 0:
		return nil, false, fmt.Errorf("no garage nodes found. Use --node to give an address")
	case 1:
		remember(reg, nodes[0])
		return fromDiscovered(nodes[0].Instance, nodes[0]), true, nil
	default:
		names := make([]string, 0, len(nodes))
		for _, n := range nodes {
			remember(reg, n)
			names = append(names, n.Instance)
		}
		return nil, true, fmt.Errorf("multiple nodes found (%s); use --node to pick one", strings.Join(names, ", "))
	}
}

func fromDiscovered(name string, n *discovery.Node) *target {
	return &target{
		Name:       name,
		Addr:       n.Addr(),
		StatusPath: n.StatusPath(),
		SetPath:    n.SetPath(),
	}
}

func remember(reg *config.Registry, n *discovery.Node) {
	seen := n.DiscoveredAt
	if seen.IsZero() {
		seen = time.Now()
	}
	reg.UpdateLastSeen(n.ID, n.Instance, n.Addr(), seen)
}

func displayName(id string, n *config.KnownNode) string {
	if n.Nickname != "" {
		return n.Nickname
	}
	if n.Instance != "" {
		return n.Instance
	}
	return id
}

func looksLikeAddr(s string) bool {
	if net.ParseIP(s) != nil {
		return true
	}
	if _, _, err := net.SplitHostPort(s); err == nil {
		return true
	}
	return strings.HasSuffix(s, ".local") || strings.HasSuffix(s, ".local.")
}
