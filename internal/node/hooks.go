package node

import (
	"github.com/muurk/garagenode/internal/actuator"
	"github.com/muurk/garagenode/internal/display"
	"github.com/muurk/garagenode/internal/radio"
)

// listenerControl is the part of api.Service the connection manager drives.
type listenerControl interface {
	Start() error
	Stop()
}

// hooks connects the connection manager to the display and the request
// listener.
type hooks struct {
	matrix   *display.Matrix
	listener listenerControl
}

func (h hooks) ShowAddress(lastOctet uint8) { h.matrix.ShowAddress(lastOctet) }
func (h hooks) StartListening() error       { return h.listener.Start() }
func (h hooks) StopListening()              { h.listener.Stop() }

// statusSource reads what the status layout draws. The network bar follows
// the radio association, not the address.
func statusSource(bank *actuator.Bank, r radio.Radio) display.StatusFunc {
	return func() display.Status {
		s := bank.Snapshot()
		return display.Status{
			Night:         s.Night,
			DoorClosed:    s.DoorClosed,
			ButtonLatched: s.ButtonLatched,
			LightOn:       s.LightOn,
			DoorPulse:     s.DoorPulseActive,
			Connected:     r.Status() == radio.StatusConnected,
		}
	}
}
