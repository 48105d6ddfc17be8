package netmgr

import (
	"time"

	"go.uber.org/zap"

	"github.com/muurk/garagenode/internal/logging"
	"github.com/muurk/garagenode/internal/radio"
)

// Supervise is the per-tick, non-blocking supervision step. Calling it
// repeatedly with an unchanged radio only emits the periodic status line.
//
// The ReconnectEvery gate applies to starting an attempt. An attempt in
// flight is driven on every tick until it succeeds or exceeds
// AttemptTimeout.
func (m *Manager) Supervise() {
	now := m.clock.Now()
	m.logStatus(now)

	if m.reconnecting {
		m.driveAttempt(now)
		return
	}

	if radio.Attached(m.radio) {
		if m.phase != PhaseReady {
			m.markReady(now)
			return
		}
		if !m.listening && now.Sub(m.lastPollAt) >= m.opts.AttemptPoll {
			m.lastPollAt = now
			m.startListening()
		}
		return
	}

	if m.phase == PhaseReady {
		logging.Warn("Network attachment lost",
			zap.Stringer("status", m.radio.Status()),
		)
		m.stopListening()
		m.setPhase(PhaseDegraded)
	}

	if m.lastAttemptAt.IsZero() || now.Sub(m.lastAttemptAt) >= m.opts.ReconnectEvery {
		m.startAttempt()
		return
	}
	m.setPhase(PhaseDegraded)
}

func (m *Manager) startAttempt() {
	logging.Info("Starting reconnect attempt", zap.String("ssid", m.opts.SSID))

	if err := m.radio.Disconnect(); err != nil {
		logging.Warn("Radio disconnect failed", zap.Error(err))
	}
	m.clock.Sleep(m.opts.SettleDelay)
	if err := m.radio.Begin(m.opts.SSID, m.opts.Passphrase); err != nil {
		logging.Warn("Radio begin failed", zap.Error(err))
	}

	now := m.clock.Now()
	m.attemptStartedAt = now
	m.lastAttemptAt = now
	m.lastPollAt = now
	m.reconnecting = true
	m.setPhase(PhaseReconnecting)
}

// driveAttempt checks for attachment on every tick. Only the
// association-without-address phase change waits for AttemptPoll.
func (m *Manager) driveAttempt(now time.Time) {
	if radio.Attached(m.radio) {
		logging.Info("Reconnect attempt succeeded",
			zap.Duration("took", now.Sub(m.attemptStartedAt)),
		)
		m.markReady(now)
		return
	}
	if now.Sub(m.lastPollAt) >= m.opts.AttemptPoll {
		m.lastPollAt = now
		if m.radio.Status() == radio.StatusConnected {
			m.setPhase(PhaseAwaitingAddress)
		}
	}

	if now.Sub(m.attemptStartedAt) > m.opts.AttemptTimeout {
		logging.Warn("Reconnect attempt timed out, will retry later",
			zap.Duration("timeout", m.opts.AttemptTimeout),
			zap.Duration("retry_in", m.opts.ReconnectEvery-now.Sub(m.lastAttemptAt)),
		)
		m.reconnecting = false
		if err := m.radio.Disconnect(); err != nil {
			logging.Warn("Radio disconnect failed", zap.Error(err))
		}
		m.setPhase(PhaseDegraded)
	}
}

// logStatus emits one diagnostic line every StatusLogEvery.
func (m *Manager) logStatus(now time.Time) {
	if !m.lastStatusLogAt.IsZero() && now.Sub(m.lastStatusLogAt) < m.opts.StatusLogEvery {
		return
	}
	m.lastStatusLogAt = now

	if radio.Attached(m.radio) {
		logging.Info("Network status OK",
			zap.String("ip", m.radio.LocalIP().String()),
			zap.Int("rssi", m.radio.RSSI()),
		)
		return
	}
	logging.Info("Network unavailable, local control operational",
		zap.Stringer("status", m.radio.Status()),
		zap.String("phase", m.phase.String()),
	)
}
