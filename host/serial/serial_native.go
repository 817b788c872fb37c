package serial

import (
	"errors"
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// NativePort is a telemetry link on a local UART
type NativePort struct {
	port *serial.Port
	name string
}

// Open opens the UART named in cfg, 8N1, and drops input buffered before the
// call so tailing starts with fresh lines.
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, errors.New("serial: nil config")
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s at %d baud: %w", cfg.Device, cfg.Baud, err)
	}

	p := &NativePort{port: port, name: cfg.Device}
	if err := p.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to flush serial port %s: %w", cfg.Device, err)
	}
	return p, nil
}

func (p *NativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close releases the UART
func (p *NativePort) Close() error {
	if p.port == nil {
		return nil
	}
	return p.port.Close()
}

// Flush discards received input that has not been read
func (p *NativePort) Flush() error {
	return p.port.Flush()
}

// String returns the device path
func (p *NativePort) String() string {
	return p.name
}
