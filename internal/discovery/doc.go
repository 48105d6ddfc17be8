// Package discovery advertises garage nodes over mDNS and finds them.
//
// A node registers the "_garagenode._tcp" service whenever its request
// listener starts. The TXT record carries the node id, its version and the
// status and command paths:
//
//	id=6f1c2d9e-...  version=1.2.0  status=/status  set=/set
//
// garage-ctl uses Scanner to list nodes or to resolve one by instance name
// or id when no address is given.
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Nodes must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
