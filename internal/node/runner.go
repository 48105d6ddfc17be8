package node

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/garagenode/internal/actuator"
	"github.com/muurk/garagenode/internal/api"
	"github.com/muurk/garagenode/internal/display"
	"github.com/muurk/garagenode/internal/logging"
	"github.com/muurk/garagenode/internal/netmgr"
)

// Input is a local event fed into the control loop.
type Input int

const (
	InputButtonPress Input = iota
	InputButtonRelease
	InputNightOn
	InputNightOff
)

func (i Input) String() string {
	switch i {
	case InputButtonPress:
		return "button_press"
	case InputButtonRelease:
		return "button_release"
	case InputNightOn:
		return "night_on"
	case InputNightOff:
		return "night_off"
	default:
		return "unknown"
	}
}

const inputQueue = 16

// Publisher receives the status snapshot once per tick.
type Publisher interface {
	Publish(snapshot []byte) bool
	PublishNow(snapshot []byte) bool
}

// Listener is the request socket as the runner sees it.
type Listener interface {
	Poll() (conn net.Conn, ok bool)
}

// Runner executes the control loop. Everything it touches is driven from
// Tick on a single goroutine; Submit is the only method safe to call from
// elsewhere.
type Runner struct {
	bank       *actuator.Bank
	network    *netmgr.Manager
	listener   Listener
	dispatcher *api.Dispatcher
	matrix     *display.Matrix
	telemetry  Publisher

	inputs chan Input
}

// NewRunner composes a runner. telemetry may be nil.
func NewRunner(bank *actuator.Bank, network *netmgr.Manager, listener Listener, dispatcher *api.Dispatcher, matrix *display.Matrix, telemetry Publisher) *Runner {
	return &Runner{
		bank:       bank,
		network:    network,
		listener:   listener,
		dispatcher: dispatcher,
		matrix:     matrix,
		telemetry:  telemetry,
		inputs:     make(chan Input, inputQueue),
	}
}

// Submit queues a local input for the next tick. It never blocks; inputs
// beyond the queue depth are dropped.
func (r *Runner) Submit(in Input) bool {
	select {
	case r.inputs <- in:
		return true
	default:
		logging.Warn("Input queue full, dropping input", zap.Stringer("input", in))
		return false
	}
}

// Tick runs one pass: local inputs, actuator timers, connection
// supervision, at most one request, display refresh, telemetry.
func (r *Runner) Tick() {
	changed := r.drainInputs()
	if r.bank.Tick() {
		changed = true
	}

	r.network.Supervise()

	if conn, ok := r.listener.Poll(); ok {
		r.dispatcher.Serve(conn)
		changed = true
	}

	r.matrix.Refresh()

	if r.telemetry != nil {
		snapshot := r.dispatcher.Snapshot()
		if changed {
			r.telemetry.PublishNow(snapshot)
		} else {
			r.telemetry.Publish(snapshot)
		}
	}
}

func (r *Runner) drainInputs() bool {
	changed := false
	for {
		select {
		case in := <-r.inputs:
			logging.Debug("Local input", zap.Stringer("input", in))
			switch in {
			case InputButtonPress:
				r.bank.PressButton()
			case InputButtonRelease:
				r.bank.ReleaseButton()
			case InputNightOn:
				r.bank.SetNight(true)
			case InputNightOff:
				r.bank.SetNight(false)
			}
			changed = true
		default:
			return changed
		}
	}
}

// Run ticks every interval until ctx is cancelled.
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		r.Tick()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
