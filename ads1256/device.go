// Package ads1256 drives a 24-bit delta-sigma ADC over its SPI command
// interface: register access, identification, configuration and triggered
// single conversions gated on the DRDY line.
package ads1256

import (
	"time"

	"adsbridge/core"
)

// Timing holds the delays and deadlines used around device commands
type Timing struct {
	ResetPulse      time.Duration // Each half of the reset line pulse
	ConfigureSettle time.Duration // After the configuration block write
	RegisterSettle  time.Duration // After a register read
	PreTrigger      time.Duration // Before waiting for DRDY ahead of a data read
	PostTrigger     time.Duration // Device recovery after a data read

	Ready core.PollConfig // DRDY wait bounds
}

// DefaultTiming returns the timing the firmware ships with
func DefaultTiming() Timing {
	return Timing{
		ResetPulse:      200 * time.Millisecond,
		ConfigureSettle: 1 * time.Millisecond,
		RegisterSettle:  100 * time.Millisecond,
		PreTrigger:      1 * time.Millisecond,
		PostTrigger:     10 * time.Millisecond,
		Ready: core.PollConfig{
			Timeout:  500 * time.Millisecond,
			Interval: 10 * time.Microsecond,
		},
	}
}

// Config is the register block written by Configure, STATUS through DRATE
type Config struct {
	Status byte
	Mux    byte
	ADCON  byte
	DRate  byte
}

// DefaultConfig enables auto-calibration, selects AIN0 against AINCOM, unity
// gain and 15 kSPS.
func DefaultConfig() Config {
	return Config{
		Status: StatusACAL,
		Mux:    MuxAINCOM,
		ADCON:  GainPGA1,
		DRate:  DRate15000SPS,
	}
}

// Pins are the control lines besides the SPI bus itself
type Pins struct {
	Ready    core.GPIOPin // DRDY input, low when the device accepts a command
	Reset    core.GPIOPin // RESET output, active low
	HasReset bool
}

// Phase is a step of an acquisition, reported to the tracer
type Phase uint8

const (
	PhaseConfigureMux Phase = iota + 1
	PhaseSync
	PhaseWakeup
	PhaseWaitReady
	PhaseTransfer
	PhaseDecode
)

// Device is one ADS1256 on a controller SPI bus
type Device struct {
	spi    *core.SPIDevice
	gpio   core.GPIODriver
	clock  core.Clock
	pins   Pins
	timing Timing
	config Config
	trace  func(Phase)
}

// New configures the DRDY input (and the reset output when present) and
// returns the device with default timing and configuration.
func New(spi *core.SPIDevice, gpio core.GPIODriver, clock core.Clock, pins Pins) (*Device, error) {
	if err := gpio.ConfigureInputPullUp(pins.Ready); err != nil {
		return nil, core.Wrap("ads1256: configure drdy pin "+core.Utoa(uint32(pins.Ready)), err)
	}
	if pins.HasReset {
		if err := gpio.ConfigureOutput(pins.Reset); err != nil {
			return nil, core.Wrap("ads1256: configure reset pin "+core.Utoa(uint32(pins.Reset)), err)
		}
		if err := gpio.SetPin(pins.Reset, core.High); err != nil {
			return nil, core.Wrap("ads1256: release reset pin "+core.Utoa(uint32(pins.Reset)), err)
		}
	}

	return &Device{
		spi:    spi,
		gpio:   gpio,
		clock:  clock,
		pins:   pins,
		timing: DefaultTiming(),
		config: DefaultConfig(),
	}, nil
}

// SetTiming replaces the delays and DRDY bounds
func (d *Device) SetTiming(t Timing) {
	d.timing = t
}

// SetConfig replaces the register block written by Configure
func (d *Device) SetConfig(c Config) {
	d.config = c
}

// SetTracer installs a callback invoked as an acquisition moves through its phases
func (d *Device) SetTracer(trace func(Phase)) {
	d.trace = trace
}

func (d *Device) phase(p Phase) {
	if d.trace != nil {
		d.trace(p)
	}
}
