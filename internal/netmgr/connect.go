package netmgr

import (
	"context"

	"go.uber.org/zap"

	"github.com/muurk/garagenode/internal/logging"
	"github.com/muurk/garagenode/internal/radio"
)

// Connect runs the blocking startup sequence. It returns true once the radio
// is associated and holds an address; false on association timeout, address
// timeout or context cancellation. On failure the node continues with local
// control only and Supervise takes over.
func (m *Manager) Connect(ctx context.Context) bool {
	logging.Info("Connecting to network",
		zap.String("ssid", m.opts.SSID),
		zap.Duration("timeout", m.opts.StartupTimeout),
	)

	m.setPhase(PhaseConnecting)
	t0 := m.clock.Now()
	m.lastAttemptAt = t0
	m.attemptStartedAt = t0
	if err := m.radio.Begin(m.opts.SSID, m.opts.Passphrase); err != nil {
		logging.Warn("Radio begin failed", zap.Error(err))
	}

	status := m.radio.Status()
	logging.Info("Initial radio status", zap.Stringer("status", status))

	lastLogAt := t0
	associated := false
	var associatedAt = t0

	for ctx.Err() == nil {
		now := m.clock.Now()

		if associated {
			if radio.HasAddress(m.radio.LocalIP()) {
				break
			}
			if now.Sub(associatedAt) > m.opts.AddressWait {
				logging.Warn("Address assignment timed out",
					zap.Duration("waited", m.opts.AddressWait),
				)
				break
			}
			m.clock.Sleep(m.opts.StartupPoll)
			continue
		}

		if now.Sub(t0) > m.opts.StartupTimeout {
			logging.Warn("Association timed out", zap.Duration("timeout", m.opts.StartupTimeout))
			break
		}

		m.clock.Sleep(m.opts.StartupPoll)
		newStatus := m.radio.Status()
		now = m.clock.Now()

		if newStatus != status || now.Sub(lastLogAt) >= startupRelogEvery {
			fields := []zap.Field{
				zap.Duration("elapsed", now.Sub(t0)),
				zap.Stringer("status", newStatus),
			}
			if ip := m.radio.LocalIP(); radio.HasAddress(ip) {
				fields = append(fields, zap.String("ip", ip.String()))
			}
			if rssi := m.radio.RSSI(); rssi != 0 {
				fields = append(fields, zap.Int("rssi", rssi))
			}
			logging.Info("Radio status", fields...)
			lastLogAt = now
		}
		status = newStatus

		if newStatus == radio.StatusConnected {
			associated = true
			associatedAt = now
			m.setPhase(PhaseAwaitingAddress)
			logging.Info("Associated, waiting for address assignment")
		}
	}

	if radio.Attached(m.radio) {
		logging.Info("Connected",
			zap.String("ip", m.radio.LocalIP().String()),
			zap.String("gateway", m.radio.Gateway().String()),
			zap.String("mask", maskString(m.Snapshot().Mask)),
		)
		m.markReady(m.clock.Now())
		return true
	}

	m.logStartupFailure()
	m.setPhase(PhaseDegraded)
	return false
}

func (m *Manager) logStartupFailure() {
	final := m.radio.Status()
	logging.Error("Network connection failed, continuing with local control only",
		zap.Stringer("status", final),
		zap.String("ip", m.radio.LocalIP().String()),
	)

	switch {
	case final == radio.StatusConnected:
		logging.Warn("Associated but no address assigned; check the DHCP server")
	case final == radio.StatusNoSSIDAvail:
		logging.Warn("Network not found; check the SSID, that the access point is up and in range",
			zap.String("ssid", m.opts.SSID),
		)
	case final == radio.StatusConnectFailed:
		logging.Warn("Association rejected; check the passphrase and access point security settings")
	}
}
