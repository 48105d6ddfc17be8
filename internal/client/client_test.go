package client

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muurk/garagenode/internal/actuator"
	"github.com/muurk/garagenode/internal/api"
	"github.com/muurk/garagenode/internal/netmgr"
)

const statusBody = `{"door":"closed","light":"on","night":true,"light_timeout_ms":45000,"network":{"connected":true,"ip":"192.168.1.190","gateway":"192.168.1.1","subnet":"255.255.255.0","rssi":-61,"ssid":"garage"}}`

func newTestClient(url string) *Client {
	c := NewClientWithURL(url)
	c.RetryDelay = time.Millisecond
	c.MaxRetryDelay = 5 * time.Millisecond
	return c
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"192.168.1.190", "http://192.168.1.190:80"},
		{"192.168.1.190:8080", "http://192.168.1.190:8080"},
		{"garage.local", "http://garage.local:80"},
	}
	for _, tt := range tests {
		if got := NewClient(tt.addr).BaseURL; got != tt.want {
			t.Errorf("NewClient(%q).BaseURL = %s, want %s", tt.addr, got, tt.want)
		}
	}
}

func TestSetPaths(t *testing.T) {
	c := NewClient("10.0.0.2")
	c.SetPaths("/api/status", "")
	if c.StatusPath != "/api/status" || c.SetPath != DefaultSetPath {
		t.Errorf("paths = %s, %s", c.StatusPath, c.SetPath)
	}
}

func TestGetStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/status" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = io.WriteString(w, statusBody)
	}))
	defer server.Close()

	status, err := newTestClient(server.URL).GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if !status.DoorClosed || !status.LightOn || !status.Night {
		t.Errorf("status = %+v", status)
	}
	if status.LightRemaining != 45*time.Second {
		t.Errorf("LightRemaining = %v, want 45s", status.LightRemaining)
	}
	want := NetworkStatus{Connected: true, IP: "192.168.1.190", Gateway: "192.168.1.1", Subnet: "255.255.255.0", RSSI: -61, SSID: "garage"}
	if status.Network != want {
		t.Errorf("Network = %+v, want %+v", status.Network, want)
	}
}

func TestGetStatus_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusRequestTimeout)
			_, _ = io.WriteString(w, `{"result":"error","message":"Request timeout"}`)
			return
		}
		_, _ = io.WriteString(w, statusBody)
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).GetStatus(context.Background()); err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestGetStatus_ParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"door":"ajar"}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetStatus(context.Background())
	if err == nil {
		t.Fatal("expected parse error")
	}
	if _, ok := errorType(err); !ok || IsRetryable(err) {
		t.Errorf("error = %v, want non-retryable NodeError", err)
	}
}

func TestSend(t *testing.T) {
	tests := []struct {
		name     string
		cmd      Command
		wantBody string
	}{
		{"door open", Command{Device: "door", Action: "open"}, `{"device":"door","action":"open"}`},
		{"lamp on default", Command{Device: "lamp", Action: "on"}, `{"device":"lamp","action":"on"}`},
		{"lamp on 90s", Command{Device: "lamp", Action: "on", Duration: 90 * time.Second}, `{"device":"lamp","action":"on","duration":90}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				mu  sync.Mutex
				got string
			)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/set" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				body, _ := io.ReadAll(r.Body)
				mu.Lock()
				got = string(body)
				mu.Unlock()
				_, _ = io.WriteString(w, `{"result":"ok","message":"done"}`)
			}))
			defer server.Close()

			msg, err := newTestClient(server.URL).Send(context.Background(), tt.cmd)
			if err != nil {
				t.Fatalf("Send() error = %v", err)
			}
			if msg != "done" {
				t.Errorf("message = %q", msg)
			}
			mu.Lock()
			defer mu.Unlock()
			if got != tt.wantBody {
				t.Errorf("body = %s, want %s", got, tt.wantBody)
			}
		})
	}
}

func TestSend_Validation(t *testing.T) {
	tests := []Command{
		{Device: "door", Action: "toggle"},
		{Device: "lamp", Action: "dim"},
		{Device: "gate", Action: "open"},
		{Device: "lamp", Action: "on", Duration: -time.Second},
		{Device: "lamp", Action: "on", Duration: 500 * time.Millisecond},
	}
	c := NewClient("127.0.0.1:1")
	for _, cmd := range tests {
		_, err := c.Send(context.Background(), cmd)
		if t2, ok := errorType(err); !ok || t2 != ErrTypeValidation {
			t.Errorf("Send(%+v) error = %v, want validation error", cmd, err)
		}
	}
}

func TestSend_RejectedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"result":"error","message":"Door is already open"}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Door(context.Background(), "open")
	if !IsRejected(err) {
		t.Fatalf("Door() error = %v, want rejection", err)
	}
	if ShortMessage(err) != "Door is already open" {
		t.Errorf("short message = %q", ShortMessage(err))
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestSend_TimeoutIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusRequestTimeout)
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).Door(context.Background(), "close"); err == nil {
		t.Fatal("expected error")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1 (a door pulse must not be repeated)", n)
	}
}

func TestSend_ConnectionRefusedIsRetried(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	c := newTestClient("http://" + addr)
	c.MaxRetries = 2
	_, err = c.Lamp(context.Background(), "off", 0)
	if t2, ok := errorType(err); !ok || t2 != ErrTypeConnectionRefused {
		t.Fatalf("Lamp() error = %v, want connection refused", err)
	}
	if hints := strings.Join(Hints(err), "\n"); !strings.Contains(hints, "garage-ctl scan") {
		t.Errorf("hints = %q", hints)
	}
}

type staticNetwork struct{ info netmgr.Info }

func (s staticNetwork) Snapshot() netmgr.Info { return s.info }

// TestAgainstDispatcher drives a real request service and dispatcher.
func TestAgainstDispatcher(t *testing.T) {
	bank := actuator.NewBank(nil, actuator.Options{TravelTime: time.Hour, PulseLength: time.Millisecond})
	network := staticNetwork{netmgr.Info{
		Connected: true,
		IP:        net.IPv4(10, 0, 0, 7),
		Gateway:   net.IPv4(10, 0, 0, 1),
		Mask:      net.CIDRMask(24, 32),
		RSSI:      -55,
		SSID:      "garage",
	}}
	d := api.NewDispatcher(bank, network, nil, api.Config{})

	svc := api.NewService("127.0.0.1", 0, nil)
	if err := svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	addr := svc.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ctx.Err() == nil {
			if conn, ok := svc.Poll(); ok {
				d.Serve(conn)
			}
		}
	}()
	defer func() {
		cancel()
		<-done
		svc.Stop()
	}()

	c := newTestClient("http://" + addr)

	msg, err := c.Lamp(context.Background(), "on", 30*time.Second)
	if err != nil {
		t.Fatalf("Lamp() error = %v", err)
	}
	if msg == "" {
		t.Error("empty lamp message")
	}

	status, err := c.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if !status.LightOn || !status.DoorClosed {
		t.Errorf("status = %+v", status)
	}
	if status.LightRemaining <= 0 || status.LightRemaining > 30*time.Second {
		t.Errorf("LightRemaining = %v", status.LightRemaining)
	}
	if status.Network.IP != "10.0.0.7" || status.Network.Subnet != "255.255.255.0" {
		t.Errorf("Network = %+v", status.Network)
	}

	if _, err := c.Door(context.Background(), "close"); !IsRejected(err) {
		t.Errorf("closing a closed door: error = %v, want rejection", err)
	}
}
