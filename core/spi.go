// SPI device support for the primary bus, where this firmware is the controller.
package core

import (
	"errors"

	"tinygo.org/x/drivers"
)

// SPI device flags
const (
	SF_CS_ACTIVE_HIGH = 0x02 // Chip select active high (default is active low)
	SF_HAVE_PIN       = 0x04 // Has chip select pin
)

// SPIDevice represents one peripheral on a controller SPI bus together with
// the chip select line that frames its transfers.
type SPIDevice struct {
	Name  string  // Used in error messages
	Flags uint8   // Device flags (CS presence and polarity)
	Pin   GPIOPin // Chip select pin (if SF_HAVE_PIN is set)

	bus  drivers.SPI
	gpio GPIODriver
}

// NewSPIDevice configures the chip select pin as an output, drives it to its
// inactive level and returns the device.
func NewSPIDevice(name string, bus drivers.SPI, gpio GPIODriver, cs GPIOPin, csActiveHigh bool) (*SPIDevice, error) {
	dev := &SPIDevice{
		Name:  name,
		Flags: SF_HAVE_PIN,
		Pin:   cs,
		bus:   bus,
		gpio:  gpio,
	}
	if csActiveHigh {
		dev.Flags |= SF_CS_ACTIVE_HIGH
	}

	if err := gpio.ConfigureOutput(cs); err != nil {
		return nil, Wrap(name+": configure cs pin "+Utoa(uint32(cs)), err)
	}
	if err := dev.setCS(false); err != nil {
		return nil, Wrap(name+": release cs pin "+Utoa(uint32(cs)), err)
	}
	return dev, nil
}

// NewSPIDeviceWithoutCS returns a device whose select line is managed
// elsewhere (tied low, or driven by the bus peripheral itself).
func NewSPIDeviceWithoutCS(name string, bus drivers.SPI) *SPIDevice {
	return &SPIDevice{Name: name, bus: bus}
}

// setCS drives the chip select line to its active or inactive level
func (d *SPIDevice) setCS(active bool) error {
	level := !active // Default: active low
	if d.Flags&SF_CS_ACTIVE_HIGH != 0 {
		level = active
	}
	return d.gpio.SetPin(d.Pin, level)
}

// Transaction asserts chip select, transmits tx, then clocks len(rx) bytes
// into rx, and deasserts chip select. Chip select is released on every return
// path, including transfer errors.
func (d *SPIDevice) Transaction(tx, rx []byte) (err error) {
	if d.Flags&SF_HAVE_PIN != 0 {
		if err := d.setCS(true); err != nil {
			return Wrap(d.Name+": assert cs", err)
		}
		defer func() {
			if csErr := d.setCS(false); csErr != nil {
				err = errors.Join(err, Wrap(d.Name+": release cs", csErr))
			}
		}()
	}

	if len(tx) > 0 {
		if err := d.bus.Tx(tx, nil); err != nil {
			return Wrap(d.Name+": transmit "+Itoa(len(tx))+" bytes", err)
		}
	}

	if len(rx) > 0 {
		// Zeros are clocked out while the peripheral answers
		fill := make([]byte, len(rx))
		if err := d.bus.Tx(fill, rx); err != nil {
			return Wrap(d.Name+": receive "+Itoa(len(rx))+" bytes", err)
		}
	}

	return nil
}
