// Package config loads the host receiver configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the host receiver configuration
type Config struct {
	Bus       BusConfig       `yaml:"bus"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Buffer    int             `yaml:"buffer"` // Samples held between the bus reader and the publisher
}

// BusConfig describes the secondary SPI bus the host drives as controller
type BusConfig struct {
	Port        string        `yaml:"port"`         // periph SPI port name, e.g. "/dev/spidev0.0"
	SpeedHz     int64         `yaml:"speed_hz"`     // Clock rate
	Mode        int           `yaml:"mode"`         // SPI mode 0..3
	SelectPin   string        `yaml:"select_pin"`   // GPIO the firmware pulls low while a frame is loaded
	EdgeTimeout time.Duration `yaml:"edge_timeout"` // How long to wait for a frame before polling stop
	LoadDelay   time.Duration `yaml:"load_delay"`   // Wait after select falls before clocking; must exceed the firmware's select setup
}

// TelemetryConfig describes the firmware's serial telemetry link
type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Device  string `yaml:"device"`
	Baud    int    `yaml:"baud"`
}

// MQTTConfig describes the broker samples are published to
type MQTTConfig struct {
	Broker   string        `yaml:"broker"` // tcp://host:port
	ClientID string        `yaml:"client_id"`
	Topic    string        `yaml:"topic"`
	QoS      byte          `yaml:"qos"`
	Timeout  time.Duration `yaml:"timeout"` // Connect and publish acknowledgement timeout
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Bus: BusConfig{
			Port:        "/dev/spidev0.0",
			SpeedHz:     500000,
			Mode:        0,
			SelectPin:   "GPIO25",
			EdgeTimeout: time.Second,
			LoadDelay:   5 * time.Millisecond,
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
			Device:  "/dev/ttyUSB0",
			Baud:    115200,
		},
		MQTT: MQTTConfig{
			Broker:   "tcp://localhost:1883",
			ClientID: "adsbridge-host",
			Topic:    "adc/data",
			QoS:      0,
			Timeout:  5 * time.Second,
		},
		Buffer: 64,
	}
}

// Load reads filename and fills missing fields from Default. A missing
// file yields the defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) ensureDefaults() {
	def := Default()

	if c.Bus.Port == "" {
		c.Bus.Port = def.Bus.Port
	}
	if c.Bus.SpeedHz == 0 {
		c.Bus.SpeedHz = def.Bus.SpeedHz
	}
	if c.Bus.SelectPin == "" {
		c.Bus.SelectPin = def.Bus.SelectPin
	}
	if c.Bus.EdgeTimeout == 0 {
		c.Bus.EdgeTimeout = def.Bus.EdgeTimeout
	}
	if c.Bus.LoadDelay == 0 {
		c.Bus.LoadDelay = def.Bus.LoadDelay
	}

	if c.Telemetry.Device == "" {
		c.Telemetry.Device = def.Telemetry.Device
	}
	if c.Telemetry.Baud == 0 {
		c.Telemetry.Baud = def.Telemetry.Baud
	}

	if c.MQTT.Broker == "" {
		c.MQTT.Broker = def.MQTT.Broker
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = def.MQTT.Topic
	}
	if c.MQTT.Timeout == 0 {
		c.MQTT.Timeout = def.MQTT.Timeout
	}

	if c.Buffer == 0 {
		c.Buffer = def.Buffer
	}
}

// Validate reports the first setting that cannot work
func (c *Config) Validate() error {
	switch {
	case c.Bus.Mode < 0 || c.Bus.Mode > 3:
		return fmt.Errorf("config: bus.mode %d out of range 0..3", c.Bus.Mode)
	case c.Bus.SpeedHz < 0:
		return fmt.Errorf("config: bus.speed_hz %d is negative", c.Bus.SpeedHz)
	case c.Bus.LoadDelay < 0:
		return fmt.Errorf("config: bus.load_delay %v is negative", c.Bus.LoadDelay)
	case c.MQTT.QoS > 2:
		return fmt.Errorf("config: mqtt.qos %d out of range 0..2", c.MQTT.QoS)
	case c.Buffer < 0:
		return fmt.Errorf("config: buffer %d is negative", c.Buffer)
	case c.Telemetry.Baud < 0:
		return fmt.Errorf("config: telemetry.baud %d is negative", c.Telemetry.Baud)
	}
	return nil
}
