// Package mcu follows the bridge firmware over its telemetry link.
package mcu

import (
	"errors"
	"fmt"
	"io"

	"github.com/golang/glog"

	"adsbridge/host/serial"
	"adsbridge/protocol"
)

// ErrDeviceRejected is returned by Tail when the firmware reports that the
// converter failed identification
var ErrDeviceRejected = errors.New("mcu: firmware rejected the converter")

// MCU represents the telemetry connection to the bridge firmware
type MCU struct {
	port  serial.Port
	lines *serial.LineReader

	// Connection state
	connected  bool
	identified bool
	samples    uint64
	last       uint32
}

// NewMCU creates a new MCU instance (not yet connected)
func NewMCU() *MCU {
	return &MCU{}
}

// Connect opens the telemetry UART at device
func (m *MCU) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig opens the telemetry UART with a custom serial config
func (m *MCU) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	m.Attach(port)
	return nil
}

// Attach uses an already open port
func (m *MCU) Attach(port serial.Port) {
	m.port = port
	m.lines = serial.NewLineReader(port)
	m.connected = true
}

// Close closes the connection to the MCU
func (m *MCU) Close() error {
	m.connected = false
	if m.port != nil {
		return m.port.Close()
	}
	return nil
}

// Tail consumes telemetry until the link closes, passing every sample value
// to onSample. It returns ErrDeviceRejected as soon as the failure banner
// arrives and nil when the stream ends.
func (m *MCU) Tail(onSample func(value uint32)) error {
	if !m.connected {
		return fmt.Errorf("not connected to MCU")
	}

	for {
		line, err := m.lines.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}

		switch line.Kind {
		case protocol.LineBannerSuccess:
			if m.identified {
				glog.Warning("firmware restarted")
			}
			m.identified = true
			glog.Info("firmware identified the converter")
		case protocol.LineBannerFailure:
			glog.Error("firmware halted: converter identity mismatch or no response")
			return ErrDeviceRejected
		case protocol.LineSample:
			m.samples++
			m.last = line.Value
			if glog.V(2) {
				glog.Infof("telemetry sample %d", line.Value)
			}
			if onSample != nil {
				onSample(line.Value)
			}
		}
	}
}

// IsConnected returns whether the MCU is connected
func (m *MCU) IsConnected() bool {
	return m.connected
}

// Identified reports whether the success banner has been seen
func (m *MCU) Identified() bool {
	return m.identified
}

// Samples returns the number of sample lines received and the last value
func (m *MCU) Samples() (count uint64, last uint32) {
	return m.samples, m.last
}

// Skipped returns how many unrecognised telemetry lines were dropped
func (m *MCU) Skipped() int {
	if m.lines == nil {
		return 0
	}
	return m.lines.Skipped()
}
