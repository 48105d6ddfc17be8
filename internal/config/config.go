package config

import (
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvWiFiSSID     = "GARAGE_WIFI_SSID"
	EnvWiFiPassword = "GARAGE_WIFI_PASSWORD"
	EnvAPIPort      = "GARAGE_API_PORT"
	EnvMQTTBroker   = "GARAGE_MQTT_BROKER"
	EnvLogLevel     = "GARAGE_LOG_LEVEL"
)

// Config is the node's startup configuration. It is read once and never
// written back by the node.
type Config struct {
	WiFi    WiFiConfig    `yaml:"wifi"`
	API     APIConfig     `yaml:"api"`
	Light   LightConfig   `yaml:"light"`
	Door    DoorConfig    `yaml:"door"`
	Display DisplayConfig `yaml:"display"`
	MDNS    MDNSConfig    `yaml:"mdns"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Logging LoggingConfig `yaml:"logging"`
	Tick    TickConfig    `yaml:"tick"`
}

// WiFiConfig selects the radio and the connection timings.
type WiFiConfig struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`

	// Interface names a host interface (e.g. wlan0). When empty the node runs
	// on a simulated radio that attaches with SimAddress.
	Interface         string   `yaml:"interface"`
	ConnectCommand    []string `yaml:"connect_command"`
	DisconnectCommand []string `yaml:"disconnect_command"`
	SimAddress        string   `yaml:"sim_address"`

	StartupTimeoutSec int `yaml:"startup_timeout_sec"`
	AddressWaitSec    int `yaml:"address_wait_sec"`
	StatusLogSec      int `yaml:"status_log_sec"`
	ReconnectSec      int `yaml:"reconnect_sec"`
	AttemptTimeoutSec int `yaml:"attempt_timeout_sec"`
}

// APIConfig configures the request listener and its limits.
type APIConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	StatusPath     string `yaml:"status_path"`
	SetPath        string `yaml:"set_path"`
	MaxLineBytes   int    `yaml:"max_line_bytes"`
	MaxHeaders     int    `yaml:"max_headers"`
	MaxBodyBytes   int    `yaml:"max_body_bytes"`
	HeadTimeoutMS  int    `yaml:"head_timeout_ms"`
	BodyTimeoutMS  int    `yaml:"body_timeout_ms"`
	WriteTimeoutMS int    `yaml:"write_timeout_ms"`
}

// LightConfig configures the light relay.
type LightConfig struct {
	DefaultSeconds int `yaml:"default_seconds"`
}

// DoorConfig configures the door relay pulse and simulated travel.
type DoorConfig struct {
	PulseMS  int `yaml:"pulse_ms"`
	TravelMS int `yaml:"travel_ms"`
}

// DisplayConfig configures the status matrix.
type DisplayConfig struct {
	Enabled  bool `yaml:"enabled"`
	Terminal bool `yaml:"terminal"`
}

// MDNSConfig configures the mDNS advertisement.
type MDNSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance"`
	ID       string `yaml:"id"`
}

// MQTTConfig configures the optional telemetry publisher.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	Topic       string `yaml:"topic"`
	QoS         int    `yaml:"qos"`
	IntervalSec int    `yaml:"interval_sec"`
}

// LoggingConfig configures zap and the optional rotated log file.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// TickConfig configures the control loop.
type TickConfig struct {
	IntervalMS int `yaml:"interval_ms"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		WiFi: WiFiConfig{
			SimAddress:        "192.168.4.190",
			StartupTimeoutSec: 20,
			AddressWaitSec:    5,
			StatusLogSec:      30,
			ReconnectSec:      60,
			AttemptTimeoutSec: 10,
		},
		API: APIConfig{
			Host:           "0.0.0.0",
			Port:           80,
			StatusPath:     "/status",
			SetPath:        "/set",
			MaxLineBytes:   512,
			MaxHeaders:     32,
			MaxBodyBytes:   1024,
			HeadTimeoutMS:  2000,
			BodyTimeoutMS:  2000,
			WriteTimeoutMS: 2000,
		},
		Light: LightConfig{DefaultSeconds: 120},
		Door:  DoorConfig{PulseMS: 500, TravelMS: 12000},
		Display: DisplayConfig{
			Enabled:  true,
			Terminal: true,
		},
		MDNS: MDNSConfig{Enabled: true},
		MQTT: MQTTConfig{
			Topic:       "garage",
			QoS:         1,
			IntervalSec: 30,
		},
		Logging: LoggingConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Tick: TickConfig{IntervalMS: 20},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path uses the defaults alone.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvWiFiSSID); v != "" {
		cfg.WiFi.SSID = v
	}
	if v := os.Getenv(EnvWiFiPassword); v != "" {
		cfg.WiFi.Password = v
	}
	if v := os.Getenv(EnvAPIPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q", EnvAPIPort, v)
		}
		cfg.API.Port = port
	}
	if v := os.Getenv(EnvMQTTBroker); v != "" {
		cfg.MQTT.Broker = v
		cfg.MQTT.Enabled = true
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []string

	if c.WiFi.SSID == "" {
		errs = append(errs, "wifi.ssid is required (set "+EnvWiFiSSID+")")
	}
	if c.WiFi.Interface == "" && net.ParseIP(c.WiFi.SimAddress).To4() == nil {
		errs = append(errs, "wifi.sim_address must be an IPv4 address when no interface is set")
	}
	for name, v := range map[string]int{
		"wifi.startup_timeout_sec": c.WiFi.StartupTimeoutSec,
		"wifi.address_wait_sec":    c.WiFi.AddressWaitSec,
		"wifi.status_log_sec":      c.WiFi.StatusLogSec,
		"wifi.reconnect_sec":       c.WiFi.ReconnectSec,
		"wifi.attempt_timeout_sec": c.WiFi.AttemptTimeoutSec,
		"api.max_line_bytes":       c.API.MaxLineBytes,
		"api.max_headers":          c.API.MaxHeaders,
		"api.max_body_bytes":       c.API.MaxBodyBytes,
		"api.head_timeout_ms":      c.API.HeadTimeoutMS,
		"api.body_timeout_ms":      c.API.BodyTimeoutMS,
		"api.write_timeout_ms":     c.API.WriteTimeoutMS,
		"light.default_seconds":    c.Light.DefaultSeconds,
		"door.pulse_ms":            c.Door.PulseMS,
		"door.travel_ms":           c.Door.TravelMS,
		"tick.interval_ms":         c.Tick.IntervalMS,
	} {
		if v <= 0 {
			errs = append(errs, name+" must be positive")
		}
	}

	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 0 and 65535")
	}
	if !strings.HasPrefix(c.API.StatusPath, "/") || !strings.HasPrefix(c.API.SetPath, "/") {
		errs = append(errs, "api.status_path and api.set_path must start with /")
	} else if strings.HasPrefix(c.API.StatusPath, c.API.SetPath) || strings.HasPrefix(c.API.SetPath, c.API.StatusPath) {
		errs = append(errs, "api.status_path and api.set_path must not be prefixes of each other")
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			errs = append(errs, "mqtt.broker is required when mqtt is enabled")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.IntervalSec <= 0 {
			errs = append(errs, "mqtt.interval_sec must be positive")
		}
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// SimAddressIP returns the simulated radio's address.
func (c *Config) SimAddressIP() net.IP {
	return net.ParseIP(c.WiFi.SimAddress).To4()
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }
func millis(n int) time.Duration  { return time.Duration(n) * time.Millisecond }

// GetStartupTimeout returns the bounded startup connect time.
func (c *Config) GetStartupTimeout() time.Duration { return seconds(c.WiFi.StartupTimeoutSec) }

// GetAddressWait returns how long an associated radio may wait for an address.
func (c *Config) GetAddressWait() time.Duration { return seconds(c.WiFi.AddressWaitSec) }

// GetStatusLogEvery returns the periodic status log interval.
func (c *Config) GetStatusLogEvery() time.Duration { return seconds(c.WiFi.StatusLogSec) }

// GetReconnectEvery returns the minimum spacing of reconnection attempts.
func (c *Config) GetReconnectEvery() time.Duration { return seconds(c.WiFi.ReconnectSec) }

// GetAttemptTimeout returns how long one reconnection attempt may run.
func (c *Config) GetAttemptTimeout() time.Duration { return seconds(c.WiFi.AttemptTimeoutSec) }

func (c *Config) GetHeadTimeout() time.Duration  { return millis(c.API.HeadTimeoutMS) }
func (c *Config) GetBodyTimeout() time.Duration  { return millis(c.API.BodyTimeoutMS) }
func (c *Config) GetWriteTimeout() time.Duration { return millis(c.API.WriteTimeoutMS) }

func (c *Config) GetLightDefault() time.Duration { return seconds(c.Light.DefaultSeconds) }
func (c *Config) GetDoorPulse() time.Duration    { return millis(c.Door.PulseMS) }
func (c *Config) GetDoorTravel() time.Duration   { return millis(c.Door.TravelMS) }

func (c *Config) GetMQTTInterval() time.Duration { return seconds(c.MQTT.IntervalSec) }
func (c *Config) GetTickInterval() time.Duration { return millis(c.Tick.IntervalMS) }
