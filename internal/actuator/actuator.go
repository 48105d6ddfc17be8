package actuator

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/garagenode/internal/logging"
)

// Trigger sources recorded with every door pulse.
const (
	SourceAPI    = "API"
	SourceButton = "BUTTON"
)

// State is the complete actuator state. It is owned by a Bank and only
// mutated through Bank methods.
type State struct {
	DoorClosed      bool
	Night           bool
	ButtonLatched   bool
	DoorPulseActive bool
	LightOn         bool
	LightStartedAt  time.Time
	LightDuration   time.Duration

	pulseStartedAt  time.Time
	travelStartedAt time.Time
	travelling      bool
}

// LightState is a read-only view of the light relay.
type LightState struct {
	On        bool
	StartedAt time.Time
	Duration  time.Duration
}

// Remaining returns the time left before the light switches itself off.
func (l LightState) Remaining(now time.Time) time.Duration {
	if !l.On {
		return 0
	}
	elapsed := now.Sub(l.StartedAt)
	if elapsed >= l.Duration {
		return 0
	}
	return l.Duration - elapsed
}

// Controller is the actuator surface the request dispatcher consumes.
type Controller interface {
	DoorClosed() bool
	Night() bool
	Light() LightState
	TriggerDoor(source string)
	SetLight(on bool)
	SetLightDuration(d time.Duration)
	DefaultLightDuration() time.Duration
}

// Options configures a Bank.
type Options struct {
	DefaultLight time.Duration
	PulseLength  time.Duration
	TravelTime   time.Duration
	Now          func() time.Time
}

// Bank drives the door relay and light relay over an explicit State. Without
// GPIO it simulates door travel so the closed sensor follows pulses.
type Bank struct {
	mu    sync.Mutex
	state *State
	opts  Options
}

// NewBank creates a bank over state. A nil state starts with the door closed
// and the light off.
func NewBank(state *State, opts Options) *Bank {
	if state == nil {
		state = &State{DoorClosed: true}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultLight <= 0 {
		opts.DefaultLight = 120 * time.Second
	}
	if state.LightDuration <= 0 {
		state.LightDuration = opts.DefaultLight
	}
	return &Bank{state: state, opts: opts}
}

// Snapshot returns a copy of the current state.
func (b *Bank) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return *b.state
}

func (b *Bank) DoorClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.DoorClosed
}

func (b *Bank) Night() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Night
}

func (b *Bank) Light() LightState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return LightState{On: b.state.LightOn, StartedAt: b.state.LightStartedAt, Duration: b.state.LightDuration}
}

func (b *Bank) DefaultLightDuration() time.Duration {
	return b.opts.DefaultLight
}

// SetNight updates the night sensor reading.
func (b *Bank) SetNight(night bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Night = night
}

// TriggerDoor starts a relay pulse. The door direction is decided by the
// opener itself, so the pulse is unconditional. At night the light is
// switched on for its configured duration.
func (b *Bank) TriggerDoor(source string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.opts.Now()
	b.state.DoorPulseActive = true
	b.state.pulseStartedAt = now
	if !b.state.travelling {
		b.state.travelling = true
		b.state.travelStartedAt = now
	}
	if b.state.Night {
		b.lightOnLocked(now)
	}

	logging.Info("Door pulse triggered",
		zap.String("source", source),
		zap.Bool("door_closed", b.state.DoorClosed),
		zap.Bool("night", b.state.Night),
	)
}

// PressButton latches the wall button and pulses the door.
func (b *Bank) PressButton() {
	b.mu.Lock()
	b.state.ButtonLatched = true
	b.mu.Unlock()
	b.TriggerDoor(SourceButton)
}

// ReleaseButton clears the button latch.
func (b *Bank) ReleaseButton() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.ButtonLatched = false
}

func (b *Bank) SetLight(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if on {
		b.lightOnLocked(b.opts.Now())
		return
	}
	b.state.LightOn = false
}

func (b *Bank) SetLightDuration(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d <= 0 {
		d = b.opts.DefaultLight
	}
	b.state.LightDuration = d
}

func (b *Bank) lightOnLocked(now time.Time) {
	b.state.LightOn = true
	b.state.LightStartedAt = now
}

// Tick ends finished pulses, completes door travel and switches the light
// off when its duration has elapsed. It reports whether anything changed.
func (b *Bank) Tick() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.opts.Now()
	changed := false

	if b.state.DoorPulseActive && now.Sub(b.state.pulseStartedAt) >= b.opts.PulseLength {
		b.state.DoorPulseActive = false
		changed = true
	}
	if b.state.travelling && now.Sub(b.state.travelStartedAt) >= b.opts.TravelTime {
		b.state.travelling = false
		b.state.DoorClosed = !b.state.DoorClosed
		changed = true
		logging.Info("Door travel complete", zap.Bool("door_closed", b.state.DoorClosed))
	}
	if b.state.LightOn && now.Sub(b.state.LightStartedAt) >= b.state.LightDuration {
		b.state.LightOn = false
		changed = true
		logging.Info("Light timeout elapsed")
	}
	return changed
}
