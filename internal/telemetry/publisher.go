package telemetry

import (
	"bytes"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/muurk/garagenode/internal/logging"
)

// broker is the part of the paho client the publisher uses.
type broker interface {
	Connect() pahomqtt.Token
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
}

// Publisher mirrors the node's status snapshot to an MQTT broker. Snapshots
// are published retained on <prefix>/status; <prefix>/availability carries
// online/offline with a last will.
//
// Publish never blocks: when the broker is unreachable the snapshot is
// dropped and the next one goes out after reconnection.
type Publisher struct {
	opts   Options
	client broker

	mu     sync.Mutex
	last   []byte
	lastAt time.Time
}

// New validates opts and creates a publisher. Call Start to connect.
func New(opts Options) (*Publisher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	p := &Publisher{opts: opts}
	co := buildClientOptions(opts)
	co.SetOnConnectHandler(func(c pahomqtt.Client) {
		logging.Info("Telemetry broker connected", zap.String("broker", opts.Broker))
		c.Publish(availabilityTopic(opts.TopicPrefix), 1, true, availabilityOnline)
	})
	co.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logging.Warn("Telemetry broker connection lost", zap.Error(err))
	})
	p.client = pahomqtt.NewClient(co)
	return p, nil
}

func newWithBroker(opts Options, b broker) *Publisher {
	opts.applyDefaults()
	return &Publisher{opts: opts, client: b}
}

// StatusTopic returns the topic snapshots are published on.
func (p *Publisher) StatusTopic() string { return statusTopic(p.opts.TopicPrefix) }

// AvailabilityTopic returns the online/offline topic.
func (p *Publisher) AvailabilityTopic() string { return availabilityTopic(p.opts.TopicPrefix) }

// Start begins connecting in the background.
func (p *Publisher) Start() {
	logging.Info("Starting telemetry",
		zap.String("broker", p.opts.Broker),
		zap.String("topic", p.StatusTopic()),
		zap.Duration("interval", p.opts.Interval),
	)
	token := p.client.Connect()
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			logging.Warn("Telemetry connect failed", zap.Error(err))
		}
	}()
}

// Publish sends snapshot when the publish interval has elapsed. It reports
// whether a publish was issued.
func (p *Publisher) Publish(snapshot []byte) bool {
	return p.publish(snapshot, false)
}

// PublishNow sends snapshot immediately if it differs from the last one.
func (p *Publisher) PublishNow(snapshot []byte) bool {
	return p.publish(snapshot, true)
}

func (p *Publisher) publish(snapshot []byte, force bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.opts.Now()
	due := p.lastAt.IsZero() || now.Sub(p.lastAt) >= p.opts.Interval
	if !due && !(force && !bytes.Equal(snapshot, p.last)) {
		return false
	}
	if !p.client.IsConnectionOpen() {
		return false
	}

	token := p.client.Publish(p.StatusTopic(), p.opts.QoS, true, snapshot)
	p.last = append(p.last[:0], snapshot...)
	p.lastAt = now

	go func() {
		if !token.WaitTimeout(defaultPublishTimeout) {
			logging.Debug("Telemetry publish not acknowledged", zap.Duration("timeout", defaultPublishTimeout))
			return
		}
		if err := token.Error(); err != nil {
			logging.Warn("Telemetry publish failed", zap.Error(err))
		}
	}()
	return true
}

// Close publishes offline and disconnects.
func (p *Publisher) Close() {
	if p.client.IsConnectionOpen() {
		token := p.client.Publish(p.AvailabilityTopic(), 1, true, availabilityOffline)
		token.WaitTimeout(defaultPublishTimeout)
	}
	p.client.Disconnect(defaultDisconnectQuiesce)
	logging.Info("Telemetry stopped")
}
