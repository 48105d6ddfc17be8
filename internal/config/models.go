package config

import (
	"sort"
	"time"
)

// Registry is the operator-side list of known nodes, keyed by node ID (the
// mDNS "id" TXT record).
type Registry struct {
	Version int                   `yaml:"version"`
	Nodes   map[string]*KnownNode `yaml:"nodes,omitempty"`
}

// KnownNode is what garage-ctl remembers about one node.
type KnownNode struct {
	Nickname string    `yaml:"nickname,omitempty"`
	Instance string    `yaml:"instance,omitempty"`  // mDNS instance name
	LastAddr string    `yaml:"last_addr,omitempty"` // host:port
	LastSeen time.Time `yaml:"last_seen,omitempty"`
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		Version: registryVersion,
		Nodes:   make(map[string]*KnownNode),
	}
}

// GetNode retrieves a node by ID. Returns nil if it is unknown.
func (r *Registry) GetNode(id string) *KnownNode {
	return r.Nodes[id]
}

// EnsureNode returns the entry for id, creating it if needed.
func (r *Registry) EnsureNode(id string) *KnownNode {
	if r.Nodes == nil {
		r.Nodes = make(map[string]*KnownNode)
	}
	if node, exists := r.Nodes[id]; exists {
		return node
	}
	node := &KnownNode{}
	r.Nodes[id] = node
	return node
}

// UpdateLastSeen records where a node was found.
func (r *Registry) UpdateLastSeen(id, instance, addr string, at time.Time) {
	node := r.EnsureNode(id)
	node.Instance = instance
	node.LastAddr = addr
	node.LastSeen = at
}

// SetNickname sets a user-friendly name for a node.
func (r *Registry) SetNickname(id, nickname string) {
	r.EnsureNode(id).Nickname = nickname
}

// Resolve maps a nickname, node ID or instance name to the last known
// address. ok is false when nothing matches.
func (r *Registry) Resolve(name string) (addr string, ok bool) {
	if node, exists := r.Nodes[name]; exists && node.LastAddr != "" {
		return node.LastAddr, true
	}
	for _, id := range r.IDs() {
		node := r.Nodes[id]
		if node.LastAddr == "" {
			continue
		}
		if node.Nickname == name || node.Instance == name {
			return node.LastAddr, true
		}
	}
	return "", false
}

// IDs returns the known node IDs in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.Nodes))
	for id := range r.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
