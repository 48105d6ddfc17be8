// Package api implements the node's request protocol.
//
// The protocol is a restricted subset of HTTP/1.1 carried over one TCP
// connection per request:
//
//	GET /status          returns the actuator and network snapshot
//	POST /set            applies a {"device":..,"action":..} command
//
// Anything else gets 404. Every response carries Connection: close and the
// connection is closed after it is written.
//
// Service owns the listening socket and is polled from the control loop;
// Dispatcher reads a single request under fixed limits and deadlines and
// applies it to an actuator.Controller.
package api
