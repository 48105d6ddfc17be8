//go:build unix

package main

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/muurk/garagenode/internal/logging"
	"github.com/muurk/garagenode/internal/node"
)

// forwardInputSignals maps SIGUSR1 to a door button press and SIGUSR2 to a
// night sensor toggle. The returned func stops forwarding.
func forwardInputSignals(n *node.Node) func() {
	sigs := make(chan os.Signal, 4)
	signal.Notify(sigs, syscall.SIGUSR1, syscall.SIGUSR2)
	done := make(chan struct{})

	go func() {
		night := false
		for {
			select {
			case <-done:
				return
			case sig := <-sigs:
				logging.Debug("Input signal", zap.Stringer("signal", sig))
				switch sig {
				case syscall.SIGUSR1:
					n.Submit(node.InputButtonPress)
					n.Submit(node.InputButtonRelease)
				case syscall.SIGUSR2:
					night = !night
					if night {
						n.Submit(node.InputNightOn)
					} else {
						n.Submit(node.InputNightOff)
					}
				}
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}
