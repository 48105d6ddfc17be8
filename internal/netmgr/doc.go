// Package netmgr keeps the node attached to its wireless network.
//
// Connect performs the blocking startup sequence once. After that the
// control loop calls Supervise on every tick; it never blocks for longer than
// the radio settle delay and drives reconnect attempts across many ticks,
// rate limited to one attempt per ReconnectEvery.
//
// When the node becomes reachable the manager calls the Hooks once per
// attachment event: the address is shown on the display and the request
// listener is started. Losing the link stops the listener.
package netmgr
