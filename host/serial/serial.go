// Package serial reads the firmware's telemetry UART on the host. Open wraps
// github.com/tarm/serial; LineReader splits the stream into banner and sample
// lines.
package serial

import (
	"io"

	"adsbridge/host/config"
)

// Port is an open telemetry link. Tests substitute in-memory pipes.
type Port interface {
	io.ReadWriteCloser

	// Flush discards input the driver received but nobody has read yet
	Flush() error
}

// Config selects the telemetry device and its line settings
type Config struct {
	Device      string // e.g. "/dev/ttyUSB0", "COM3"
	Baud        int    // Must match the firmware's UART
	ReadTimeout int    // Milliseconds, 0 blocks until data or Close
}

// DefaultConfig returns the settings the firmware's UART ships with
func DefaultConfig(device string) *Config {
	return &Config{
		Device: device,
		Baud:   115200,
	}
}

// ConfigFor builds the port settings from the receiver's telemetry section.
// A zero baud falls back to the firmware default.
func ConfigFor(t config.TelemetryConfig) *Config {
	cfg := DefaultConfig(t.Device)
	if t.Baud > 0 {
		cfg.Baud = t.Baud
	}
	return cfg
}
