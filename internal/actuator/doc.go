// Package actuator holds the door and light relay state of the node.
//
// All state lives in an explicit State value owned by a Bank; the request
// dispatcher sees it only through the Controller interface. A door pulse is
// unconditional: the opener decides the direction from its own position, so
// the closed sensor only changes once travel completes.
package actuator
