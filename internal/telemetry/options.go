package telemetry

import (
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Connection constants.
const (
	// DefaultInterval is how often an unchanged snapshot is republished.
	DefaultInterval = 30 * time.Second

	defaultConnectTimeout    = 10 * time.Second
	defaultPublishTimeout    = 2 * time.Second
	defaultDisconnectQuiesce = 250 // milliseconds
	defaultKeepAlive         = 60 * time.Second
	defaultMaxReconnect      = 2 * time.Minute
	maxQoS                   = 2
)

// Options configures a Publisher.
type Options struct {
	Broker      string // e.g. "tcp://broker.local:1883"
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string // e.g. "garage/north"
	QoS         byte
	Interval    time.Duration
	Now         func() time.Time
}

// Validate checks the options before any connection is attempted.
func (o Options) Validate() error {
	if o.Broker == "" {
		return ErrNoBroker
	}
	if o.QoS > maxQoS {
		return fmt.Errorf("%w: %d", ErrInvalidQoS, o.QoS)
	}
	if o.TopicPrefix == "" || strings.ContainsAny(o.TopicPrefix, "+#") {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, o.TopicPrefix)
	}
	return nil
}

func (o *Options) applyDefaults() {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	o.TopicPrefix = strings.TrimSuffix(o.TopicPrefix, "/")
}

// buildClientOptions creates paho options. The client retries the initial
// connection and reconnects on its own goroutines; the control loop never
// waits on the broker.
func buildClientOptions(o Options) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(o.Broker)
	opts.SetClientID(o.ClientID)

	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetMaxReconnectInterval(defaultMaxReconnect)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	// The broker marks the node offline if it disappears without Close.
	opts.SetWill(availabilityTopic(o.TopicPrefix), availabilityOffline, 1, true)
	return opts
}
