package api

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/garagenode/internal/logging"
)

// acceptWait bounds how long Poll waits for a pending connection. A deadline
// already in the past makes Accept fail before it looks at the backlog.
const acceptWait = time.Millisecond

// Advertiser publishes the listening port on the local network.
type Advertiser interface {
	Advertise(port int) error
	Shutdown()
}

// Service owns the listening socket. It never blocks the control loop: Poll
// hands back at most one pending connection.
type Service struct {
	host string
	port int
	adv  Advertiser

	listener *net.TCPListener
}

// NewService creates a stopped service. adv may be nil.
func NewService(host string, port int, adv Advertiser) *Service {
	return &Service{host: host, port: port, adv: adv}
}

// Start binds the listening socket, replacing one that is already open, and
// (re)registers the advertisement.
func (s *Service) Start() error {
	if s.listener != nil {
		s.Stop()
	}

	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln.(*net.TCPListener)

	logging.Info("Request listener started", zap.String("addr", s.listener.Addr().String()))

	if s.adv != nil {
		if err := s.adv.Advertise(s.Port()); err != nil {
			logging.Warn("Failed to advertise node", zap.Error(err))
		}
	}
	return nil
}

// StartListening implements netmgr.Hooks.
func (s *Service) StartListening() error { return s.Start() }

// StopListening implements netmgr.Hooks.
func (s *Service) StopListening() { s.Stop() }

// Stop closes the listening socket and withdraws the advertisement.
func (s *Service) Stop() {
	if s.listener == nil {
		return
	}
	if s.adv != nil {
		s.adv.Shutdown()
	}
	if err := s.listener.Close(); err != nil {
		logging.Warn("Error closing listener", zap.Error(err))
	}
	s.listener = nil
	logging.Info("Request listener stopped")
}

// Running reports whether the socket is open.
func (s *Service) Running() bool { return s.listener != nil }

// Port returns the bound port, which differs from the configured one when
// that was 0.
func (s *Service) Port() int {
	if s.listener == nil {
		return s.port
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Addr returns the bound address, or nil when stopped.
func (s *Service) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Poll returns a pending connection if there is one.
func (s *Service) Poll() (net.Conn, bool) {
	if s.listener == nil {
		return nil, false
	}
	if err := s.listener.SetDeadline(time.Now().Add(acceptWait)); err != nil {
		logging.Warn("Failed to set accept deadline", zap.Error(err))
		return nil, false
	}

	conn, err := s.listener.Accept()
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, false
		}
		logging.Error("Failed to accept connection", zap.Error(err))
		return nil, false
	}

	logging.ForConn(conn.RemoteAddr().String()).Debug("Connection accepted")
	return conn, true
}
