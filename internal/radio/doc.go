// Package radio abstracts the wireless attachment used by the connection
// manager.
//
// Radio exposes association status and addressing only; it never blocks.
// NetInterface observes a host interface and shells out to optional helper
// commands for association, Sim is a scriptable stand-in for tests and
// development.
package radio
