//go:build !unix

package main

import "github.com/muurk/garagenode/internal/node"

func forwardInputSignals(*node.Node) func() { return func() {} }
