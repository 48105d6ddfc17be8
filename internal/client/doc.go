// Package client talks to a garage node from an operator machine.
//
// Client wraps net/http with the node's routes, the flat-object body format
// and a retry loop with exponential backoff. Failures come back as *NodeError
// values classified by ErrorType so the CLI can print a short message and a
// troubleshooting hint. Door commands are never retried once they may have
// reached the node.
package client
