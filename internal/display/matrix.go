package display

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/garagenode/internal/logging"
)

// DefaultOverlay is how long ShowAddress replaces the status layout.
const DefaultOverlay = 5 * time.Second

// Sink receives every frame that differs from the previous one.
type Sink interface {
	Load(f Frame) error
}

// StatusFunc reports the current status to draw.
type StatusFunc func() Status

// Options configures a Matrix.
type Options struct {
	Disabled bool
	Overlay  time.Duration
	Now      func() time.Time
}

// Matrix decides what the pixel matrix shows: the address overlay while it
// is active, otherwise the status layout, or nothing when disabled.
type Matrix struct {
	mu      sync.Mutex
	sink    Sink
	status  StatusFunc
	enabled bool
	overlay time.Duration
	now     func() time.Time

	addrActive bool
	addrSince  time.Time
	octet      uint8

	last   Frame
	loaded bool
}

// New creates a matrix drawing status into sink.
func New(sink Sink, status StatusFunc, opts Options) *Matrix {
	if sink == nil {
		sink = NopSink{}
	}
	if opts.Overlay <= 0 {
		opts.Overlay = DefaultOverlay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Matrix{
		sink:    sink,
		status:  status,
		enabled: !opts.Disabled,
		overlay: opts.Overlay,
		now:     opts.Now,
	}
}

// SetEnabled switches the matrix on or off and redraws.
func (m *Matrix) SetEnabled(on bool) {
	m.mu.Lock()
	m.enabled = on
	m.mu.Unlock()
	m.Refresh()
}

// ShowAddress starts the address overlay for octet and redraws.
func (m *Matrix) ShowAddress(octet uint8) {
	m.mu.Lock()
	m.addrActive = true
	m.addrSince = m.now()
	m.octet = octet
	m.mu.Unlock()

	logging.Debug("Showing address on display", zap.Uint8("octet", octet))
	m.Refresh()
}

// Current returns the frame that Refresh would load now.
func (m *Matrix) Current() Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentLocked()
}

func (m *Matrix) currentLocked() Frame {
	if !m.enabled {
		return Frame{}
	}
	if m.addrActive {
		if m.now().Sub(m.addrSince) > m.overlay {
			m.addrActive = false
		} else {
			return AddressFrame(m.octet)
		}
	}
	if m.status == nil {
		return Frame{}
	}
	return StatusFrame(m.status())
}

// Refresh loads the current frame into the sink if it changed.
func (m *Matrix) Refresh() {
	m.mu.Lock()
	f := m.currentLocked()
	if m.loaded && f == m.last {
		m.mu.Unlock()
		return
	}
	m.last = f
	m.loaded = true
	m.mu.Unlock()

	if err := m.sink.Load(f); err != nil {
		logging.Debug("Display sink rejected frame", zap.Error(err))
	}
}

// NopSink discards frames.
type NopSink struct{}

func (NopSink) Load(Frame) error { return nil }
