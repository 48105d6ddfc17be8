// Package display drives the node's 12x8 pixel matrix.
//
// Inputs (night, door closed, button) are 2x2 blocks along the top, outputs
// (light, door pulse) 3x3 blocks along the bottom, and the two rightmost
// columns show a bar while the radio is associated. After the node gets an
// address the last octet is shown for a few seconds instead.
//
// Without matrix hardware frames go to a Sink; TerminalSink prints them.
package display
