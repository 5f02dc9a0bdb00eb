package samealert

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Meshtastic radios have eight channel slots.
const maxChannel = 7

// TestChannelUnset means routine required tests are dropped instead
// of forwarded.
const TestChannelUnset = -1

// Config carries everything the pipeline needs.  Exactly one of
// SerialPort and TCPHost must be set.
type Config struct {
	// Audio input.  Empty SamplePath means standard input.
	SamplePath string `yaml:"sample_path"`
	SampleRate int    `yaml:"sample_rate"`

	// Mesh node transport.
	SerialPort string `yaml:"serial_port"`
	TCPHost    string `yaml:"tcp_host"`

	AlertChannel int `yaml:"alert_channel"`
	TestChannel  int `yaml:"test_channel"`

	// Demodulator squelch: minimum tone envelope swing before bits
	// are trusted.
	SquelchLevel float64 `yaml:"squelch_level"`

	// Unresolved character positions tolerated outside the header's
	// fixed-format prefix during reconciliation.
	ReconcileTolerance int `yaml:"reconcile_tolerance"`

	// Pause allowed between burst repetitions of one transmission.
	InterBurstGap time.Duration `yaml:"inter_burst_gap"`

	// Forwarder queue and retry policy.
	QueueSize        int           `yaml:"queue_size"`
	BackoffInitial   time.Duration `yaml:"backoff_initial"`
	BackoffMax       time.Duration `yaml:"backoff_max"`
	MaxDeliveryTries int           `yaml:"max_delivery_tries"`
	ShutdownGrace    time.Duration `yaml:"shutdown_grace"`

	// Optional prometheus listener, e.g. ":9090".  Empty disables.
	MetricsAddr string `yaml:"metrics_addr"`

	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the documented defaults.  Tests are dropped
// unless a test channel is configured.
func DefaultConfig() *Config {
	return &Config{
		SampleRate:         48000,
		AlertChannel:       0,
		TestChannel:        TestChannelUnset,
		SquelchLevel:       0.05,
		ReconcileTolerance: 6,
		InterBurstGap:      2 * time.Second,
		QueueSize:          16,
		BackoffInitial:     time.Second,
		BackoffMax:         30 * time.Second,
		MaxDeliveryTries:   10,
		ShutdownGrace:      5 * time.Second,
		LogLevel:           "info",
	}
}

// LoadConfig overlays a YAML file onto the defaults.
func LoadConfig(path string) (*Config, error) {
	var cfg = DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("read %s: %v", path, err)}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigError{Reason: fmt.Sprintf("parse %s: %v", path, err)}
	}

	return cfg, nil
}

// Validate checks the configuration before the pipeline starts.  Any
// problem found here is fatal; nothing else in the system is.
func (c *Config) Validate() error {
	if c.SerialPort == "" && c.TCPHost == "" {
		return &ConfigError{Reason: "one of serial port or TCP host must be set"}
	}
	if c.SerialPort != "" && c.TCPHost != "" {
		return &ConfigError{Reason: "serial port and TCP host are mutually exclusive"}
	}
	if c.SampleRate <= 0 {
		return &ConfigError{Reason: "sample rate must be positive"}
	}
	if c.AlertChannel < 0 || c.AlertChannel > maxChannel {
		return &ConfigError{Reason: fmt.Sprintf("alert channel must be 0-%d", maxChannel)}
	}
	if c.TestChannel != TestChannelUnset && (c.TestChannel < 0 || c.TestChannel > maxChannel) {
		return &ConfigError{Reason: fmt.Sprintf("test channel must be 0-%d", maxChannel)}
	}
	if c.QueueSize < 1 {
		return &ConfigError{Reason: "queue size must be at least 1"}
	}
	if c.MaxDeliveryTries < 1 {
		return &ConfigError{Reason: "max delivery tries must be at least 1"}
	}
	if c.BackoffInitial <= 0 || c.BackoffMax < c.BackoffInitial {
		return &ConfigError{Reason: "backoff bounds are inverted"}
	}
	return nil
}

// interBurstGapBits converts the configured gap into bit times.
func (c *Config) interBurstGapBits() uint64 {
	return uint64(c.InterBurstGap.Seconds() * sameBaud)
}
