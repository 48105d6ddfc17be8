package telemetry

import (
	"errors"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type message struct {
	topic    string
	retained bool
	payload  string
}

type fakeBroker struct {
	mu           sync.Mutex
	open         bool
	connects     int
	disconnected bool
	published    []message
}

func (f *fakeBroker) Connect() pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	return doneToken{}
}

func (f *fakeBroker) IsConnectionOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeBroker) Publish(topic string, _ byte, retained bool, payload interface{}) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s string
	switch v := payload.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	}
	f.published = append(f.published, message{topic: topic, retained: retained, payload: s})
	return doneToken{}
}

func (f *fakeBroker) Disconnect(uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = true
	f.open = false
}

func (f *fakeBroker) messages() []message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]message(nil), f.published...)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{"valid", Options{Broker: "tcp://b:1883", TopicPrefix: "garage/north"}, nil},
		{"no broker", Options{TopicPrefix: "garage"}, ErrNoBroker},
		{"bad qos", Options{Broker: "tcp://b:1883", TopicPrefix: "garage", QoS: 3}, ErrInvalidQoS},
		{"empty prefix", Options{Broker: "tcp://b:1883"}, ErrInvalidTopic},
		{"wildcard prefix", Options{Broker: "tcp://b:1883", TopicPrefix: "garage/#"}, ErrInvalidTopic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("Validate() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_RejectsInvalidOptions(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrNoBroker) {
		t.Errorf("New() error = %v, want ErrNoBroker", err)
	}
	p, err := New(Options{Broker: "tcp://127.0.0.1:1883", ClientID: "garage-test", TopicPrefix: "garage/north/"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.StatusTopic() != "garage/north/status" || p.AvailabilityTopic() != "garage/north/availability" {
		t.Errorf("topics = %q, %q", p.StatusTopic(), p.AvailabilityTopic())
	}
}

func TestPublish_RateLimited(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	fb := &fakeBroker{open: true}
	p := newWithBroker(Options{TopicPrefix: "garage", Interval: 30 * time.Second, Now: func() time.Time { return now }}, fb)

	if !p.Publish([]byte(`{"door":"closed"}`)) {
		t.Fatal("first Publish() = false")
	}
	now = now.Add(10 * time.Second)
	if p.Publish([]byte(`{"door":"open"}`)) {
		t.Error("Publish() inside the interval = true")
	}
	now = now.Add(20 * time.Second)
	if !p.Publish([]byte(`{"door":"open"}`)) {
		t.Error("Publish() after the interval = false")
	}

	msgs := fb.messages()
	if len(msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(msgs))
	}
	if msgs[0].topic != "garage/status" || !msgs[0].retained || msgs[1].payload != `{"door":"open"}` {
		t.Errorf("messages = %+v", msgs)
	}
}

func TestPublishNow_OnlyOnChange(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	fb := &fakeBroker{open: true}
	p := newWithBroker(Options{TopicPrefix: "garage", Now: func() time.Time { return now }}, fb)

	p.Publish([]byte(`{"light":"off"}`))
	now = now.Add(time.Second)
	if p.PublishNow([]byte(`{"light":"off"}`)) {
		t.Error("PublishNow() of an unchanged snapshot = true")
	}
	if !p.PublishNow([]byte(`{"light":"on"}`)) {
		t.Error("PublishNow() of a changed snapshot = false")
	}
	if n := len(fb.messages()); n != 2 {
		t.Errorf("published %d messages, want 2", n)
	}
}

func TestPublish_DroppedWhileDisconnected(t *testing.T) {
	fb := &fakeBroker{}
	p := newWithBroker(Options{TopicPrefix: "garage"}, fb)

	if p.Publish([]byte(`{}`)) {
		t.Error("Publish() while disconnected = true")
	}
	fb.mu.Lock()
	fb.open = true
	fb.mu.Unlock()
	if !p.Publish([]byte(`{}`)) {
		t.Error("Publish() after connect = false")
	}
}

func TestStartAndClose(t *testing.T) {
	fb := &fakeBroker{open: true}
	p := newWithBroker(Options{Broker: "tcp://b:1883", TopicPrefix: "garage"}, fb)

	p.Start()
	p.Close()

	if fb.connects != 1 || !fb.disconnected {
		t.Errorf("connects=%d disconnected=%v", fb.connects, fb.disconnected)
	}
	msgs := fb.messages()
	if len(msgs) != 1 || msgs[0].topic != "garage/availability" || msgs[0].payload != "offline" || !msgs[0].retained {
		t.Errorf("messages = %+v", msgs)
	}
}
