package netmgr

import (
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/garagenode/internal/logging"
	"github.com/muurk/garagenode/internal/radio"
)

// Default timings.
const (
	DefaultStartupTimeout = 20 * time.Second
	DefaultStartupPoll    = 250 * time.Millisecond
	DefaultAddressWait    = 5 * time.Second
	DefaultStatusLogEvery = 30 * time.Second
	DefaultReconnectEvery = 60 * time.Second
	DefaultAttemptTimeout = 10 * time.Second
	DefaultAttemptPoll    = 2 * time.Second
	DefaultSettleDelay    = 100 * time.Millisecond

	// startupRelogEvery re-logs an unchanged status during startup.
	startupRelogEvery = 2 * time.Second
)

// Phase is a state of the connection lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseAwaitingAddress
	PhaseReady
	PhaseDegraded
	PhaseReconnecting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnecting:
		return "connecting"
	case PhaseAwaitingAddress:
		return "awaiting_address"
	case PhaseReady:
		return "ready"
	case PhaseDegraded:
		return "degraded"
	case PhaseReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Clock supplies time to the manager. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Hooks are the collaborators notified when the node becomes reachable or
// stops being reachable.
type Hooks interface {
	ShowAddress(lastOctet uint8)
	StartListening() error
	StopListening()
}

// Options configures a Manager. Zero durations take the defaults.
type Options struct {
	SSID       string
	Passphrase string

	StartupTimeout time.Duration
	StartupPoll    time.Duration
	AddressWait    time.Duration
	StatusLogEvery time.Duration
	ReconnectEvery time.Duration
	AttemptTimeout time.Duration
	AttemptPoll    time.Duration
	SettleDelay    time.Duration

	Clock Clock
}

func (o *Options) applyDefaults() {
	def := func(d *time.Duration, v time.Duration) {
		if *d <= 0 {
			*d = v
		}
	}
	def(&o.StartupTimeout, DefaultStartupTimeout)
	def(&o.StartupPoll, DefaultStartupPoll)
	def(&o.AddressWait, DefaultAddressWait)
	def(&o.StatusLogEvery, DefaultStatusLogEvery)
	def(&o.ReconnectEvery, DefaultReconnectEvery)
	def(&o.AttemptTimeout, DefaultAttemptTimeout)
	def(&o.AttemptPoll, DefaultAttemptPoll)
	def(&o.SettleDelay, DefaultSettleDelay)
	if o.Clock == nil {
		o.Clock = systemClock{}
	}
}

// Info is a read-only view of the attachment.
type Info struct {
	Connected bool
	IP        net.IP
	Gateway   net.IP
	Mask      net.IPMask
	RSSI      int
	SSID      string
}

// Manager owns the radio attachment. It is not safe for concurrent use; the
// control loop is its only caller.
type Manager struct {
	radio radio.Radio
	hooks Hooks
	opts  Options
	clock Clock

	phase             Phase
	attemptStartedAt  time.Time
	addressAcquiredAt time.Time
	lastStatusLogAt   time.Time
	lastAttemptAt     time.Time
	lastPollAt        time.Time
	reconnecting      bool
	listening         bool
}

// New creates a manager in the Idle phase.
func New(r radio.Radio, hooks Hooks, opts Options) *Manager {
	opts.applyDefaults()
	return &Manager{
		radio: r,
		hooks: hooks,
		opts:  opts,
		clock: opts.Clock,
		phase: PhaseIdle,
	}
}

// Phase returns the current lifecycle phase.
func (m *Manager) Phase() Phase { return m.phase }

// Ready reports whether the node is attached and listening is expected.
func (m *Manager) Ready() bool { return m.phase == PhaseReady }

// Reconnecting reports whether a reconnect attempt is in flight.
func (m *Manager) Reconnecting() bool { return m.reconnecting }

// AddressAcquiredAt returns when the node last became ready.
func (m *Manager) AddressAcquiredAt() time.Time { return m.addressAcquiredAt }

// Snapshot returns the attachment details, zeroed when not attached.
func (m *Manager) Snapshot() Info {
	if !radio.Attached(m.radio) {
		return Info{IP: net.IPv4zero, Gateway: net.IPv4zero, Mask: net.IPv4Mask(0, 0, 0, 0)}
	}
	info := Info{
		Connected: true,
		IP:        m.radio.LocalIP(),
		Gateway:   m.radio.Gateway(),
		Mask:      m.radio.Mask(),
		RSSI:      m.radio.RSSI(),
		SSID:      m.radio.SSID(),
	}
	if info.Gateway == nil {
		info.Gateway = net.IPv4zero
	}
	if info.Mask == nil {
		info.Mask = net.IPv4Mask(0, 0, 0, 0)
	}
	return info
}

func (m *Manager) setPhase(p Phase) {
	if m.phase == p {
		return
	}
	logging.Debug("Connection phase change",
		zap.String("from", m.phase.String()),
		zap.String("to", p.String()),
	)
	m.phase = p
}

// markReady enters Ready and notifies the hooks. It runs once per
// attachment event.
func (m *Manager) markReady(now time.Time) {
	ip := m.radio.LocalIP()
	m.reconnecting = false
	m.addressAcquiredAt = now
	m.setPhase(PhaseReady)

	logging.Info("Network ready",
		zap.String("ip", ip.String()),
		zap.Int("rssi", m.radio.RSSI()),
	)

	m.hooks.ShowAddress(radio.LastOctet(ip))
	m.startListening()
}

func (m *Manager) startListening() {
	if err := m.hooks.StartListening(); err != nil {
		m.listening = false
		logging.Error("Failed to start request listener", zap.Error(err))
		return
	}
	m.listening = true
}

func (m *Manager) stopListening() {
	if m.listening {
		m.hooks.StopListening()
		m.listening = false
	}
}

func maskString(mask net.IPMask) string {
	if len(mask) != 4 {
		return "0.0.0.0"
	}
	return net.IP(mask).String()
}
