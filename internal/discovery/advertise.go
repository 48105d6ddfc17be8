package discovery

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/garagenode/internal/logging"
)

// AdvertiserConfig describes what a node publishes.
type AdvertiserConfig struct {
	Instance   string
	ID         string
	Version    string
	StatusPath string
	SetPath    string
}

// Advertiser registers the node's request listener as an mDNS service. It
// is re-registered every time the listener starts so the answer carries the
// current address.
type Advertiser struct {
	cfg AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewAdvertiser creates an advertiser. An empty ID gets a random one.
func NewAdvertiser(cfg AdvertiserConfig) *Advertiser {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.Instance == "" {
		short := cfg.ID
		if len(short) > 8 {
			short = short[:8]
		}
		cfg.Instance = "garage-" + short
	}
	return &Advertiser{cfg: cfg}
}

// ID returns the node identifier published in the TXT record.
func (a *Advertiser) ID() string { return a.cfg.ID }

// Instance returns the advertised instance name.
func (a *Advertiser) Instance() string { return a.cfg.Instance }

// TXT returns the TXT record pairs.
func (a *Advertiser) TXT() []string {
	txt := []string{TxtID + "=" + a.cfg.ID}
	if a.cfg.Version != "" {
		txt = append(txt, TxtVersion+"="+a.cfg.Version)
	}
	if a.cfg.StatusPath != "" {
		txt = append(txt, TxtStatusPath+"="+a.cfg.StatusPath)
	}
	if a.cfg.SetPath != "" {
		txt = append(txt, TxtSetPath+"="+a.cfg.SetPath)
	}
	return txt
}

// Advertise (re)registers the service on port.
func (a *Advertiser) Advertise(port int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	server, err := zeroconf.Register(a.cfg.Instance, ServiceType, ServiceDomain, port, a.TXT(), nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}
	a.server = server

	logging.Info("Advertising node",
		zap.String("instance", a.cfg.Instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
		zap.String("id", a.cfg.ID),
	)
	return nil
}

// Shutdown withdraws the advertisement.
func (a *Advertiser) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
	logging.Debug("Node advertisement withdrawn", zap.String("instance", a.cfg.Instance))
}
