package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/garagenode/internal/actuator"
	"github.com/muurk/garagenode/internal/api"
	"github.com/muurk/garagenode/internal/config"
	"github.com/muurk/garagenode/internal/discovery"
	"github.com/muurk/garagenode/internal/display"
	"github.com/muurk/garagenode/internal/logging"
	"github.com/muurk/garagenode/internal/netmgr"
	"github.com/muurk/garagenode/internal/radio"
	"github.com/muurk/garagenode/internal/telemetry"
	"github.com/muurk/garagenode/internal/version"
)

// Deps overrides collaborators that New would otherwise build from the
// configuration. Zero fields take the configured ones.
type Deps struct {
	Radio   radio.Radio
	Sink    display.Sink
	Clock   netmgr.Clock
	Output  io.Writer // terminal display output, default os.Stdout
	NoMDNS  bool
	NoMQTT  bool
	Publish Publisher
}

// Node is a fully assembled garage node.
type Node struct {
	ID string

	cfg        *config.Config
	radio      radio.Radio
	bank       *actuator.Bank
	network    *netmgr.Manager
	service    *api.Service
	dispatcher *api.Dispatcher
	matrix     *display.Matrix
	advertiser *discovery.Advertiser
	publisher  *telemetry.Publisher
	runner     *Runner
	startedAt  time.Time
}

// New assembles a node from a validated configuration.
func New(cfg *config.Config, deps Deps) (*Node, error) {
	n := &Node{cfg: cfg, ID: cfg.MDNS.ID}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	n.radio = deps.Radio
	if n.radio == nil {
		n.radio = newRadio(cfg)
	}

	n.bank = actuator.NewBank(&actuator.State{DoorClosed: true}, actuator.Options{
		DefaultLight: cfg.GetLightDefault(),
		PulseLength:  cfg.GetDoorPulse(),
		TravelTime:   cfg.GetDoorTravel(),
	})

	sink := deps.Sink
	if sink == nil {
		sink = display.NopSink{}
		if cfg.Display.Terminal {
			out := deps.Output
			if out == nil {
				out = os.Stdout
			}
			sink = display.NewTerminalSink(out)
		}
	}
	n.matrix = display.New(sink, statusSource(n.bank, n.radio), display.Options{Disabled: !cfg.Display.Enabled})

	var adv api.Advertiser
	if cfg.MDNS.Enabled && !deps.NoMDNS {
		n.advertiser = discovery.NewAdvertiser(discovery.AdvertiserConfig{
			Instance:   cfg.MDNS.Instance,
			ID:         n.ID,
			Version:    version.Version,
			StatusPath: cfg.API.StatusPath,
			SetPath:    cfg.API.SetPath,
		})
		adv = n.advertiser
	}
	n.service = api.NewService(cfg.API.Host, cfg.API.Port, adv)

	n.network = netmgr.New(n.radio, hooks{matrix: n.matrix, listener: n.service}, netmgr.Options{
		SSID:           cfg.WiFi.SSID,
		Passphrase:     cfg.WiFi.Password,
		StartupTimeout: cfg.GetStartupTimeout(),
		AddressWait:    cfg.GetAddressWait(),
		StatusLogEvery: cfg.GetStatusLogEvery(),
		ReconnectEvery: cfg.GetReconnectEvery(),
		AttemptTimeout: cfg.GetAttemptTimeout(),
		Clock:          deps.Clock,
	})

	n.dispatcher = api.NewDispatcher(n.bank, n.network, n.matrix, api.Config{
		Routes: api.Routes{StatusPath: cfg.API.StatusPath, SetPath: cfg.API.SetPath},
		Limits: api.Limits{
			MaxLineBytes: cfg.API.MaxLineBytes,
			MaxHeaders:   cfg.API.MaxHeaders,
			MaxBodyBytes: cfg.API.MaxBodyBytes,
			HeadTimeout:  cfg.GetHeadTimeout(),
			BodyTimeout:  cfg.GetBodyTimeout(),
			WriteTimeout: cfg.GetWriteTimeout(),
		},
	})

	pub := deps.Publish
	if pub == nil && cfg.MQTT.Enabled && !deps.NoMQTT {
		clientID := cfg.MQTT.ClientID
		if clientID == "" {
			clientID = "garage-node-" + n.ID
		}
		p, err := telemetry.New(telemetry.Options{
			Broker:      cfg.MQTT.Broker,
			ClientID:    clientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.Topic,
			QoS:         byte(cfg.MQTT.QoS),
			Interval:    cfg.GetMQTTInterval(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure telemetry: %w", err)
		}
		n.publisher = p
		pub = p
	}

	n.runner = NewRunner(n.bank, n.network, n.service, n.dispatcher, n.matrix, pub)
	return n, nil
}

func newRadio(cfg *config.Config) radio.Radio {
	if cfg.WiFi.Interface != "" {
		return radio.NewNetInterface(cfg.WiFi.Interface, cfg.WiFi.ConnectCommand, cfg.WiFi.DisconnectCommand)
	}
	sim := radio.NewSim()
	sim.AutoAttach = cfg.SimAddressIP()
	return sim
}

// Runner returns the control loop.
func (n *Node) Runner() *Runner { return n.runner }

// Network returns the connection manager.
func (n *Node) Network() *netmgr.Manager { return n.network }

// Service returns the request listener.
func (n *Node) Service() *api.Service { return n.service }

// Submit queues a local input; see Runner.Submit.
func (n *Node) Submit(in Input) bool { return n.runner.Submit(in) }

// Run performs the startup connect and then runs the control loop until
// ctx is cancelled. A failed startup connect is not fatal.
func (n *Node) Run(ctx context.Context) error {
	logging.Info("Garage node starting",
		zap.String("id", n.ID),
		zap.String("version", version.Version),
		zap.String("ssid", n.cfg.WiFi.SSID),
	)

	n.startedAt = time.Now()
	if n.publisher != nil {
		n.publisher.Start()
	}
	defer n.Shutdown()

	if !n.network.Connect(ctx) {
		logging.Warn("Continuing with local control only")
	}
	n.matrix.Refresh()

	err := n.runner.Run(ctx, n.cfg.GetTickInterval())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Shutdown closes the listener, withdraws the advertisement and
// disconnects telemetry.
func (n *Node) Shutdown() {
	n.service.Stop()
	if n.publisher != nil {
		n.publisher.Close()
	}
	fields := []zap.Field{}
	if !n.startedAt.IsZero() {
		fields = append(fields, zap.Duration("uptime", time.Since(n.startedAt).Round(time.Second)))
	}
	logging.Info("Garage node stopped", fields...)
}
