//go:build rp2040

package main

import (
	"errors"
	"machine"

	"adsbridge/core"
)

// spiBusConfig names the controller and pins of one SPI bus
type spiBusConfig struct {
	spi  *machine.SPI // SPI controller (SPI0 or SPI1)
	sck  machine.Pin  // Clock pin
	mosi machine.Pin  // Master Out Slave In
	miso machine.Pin  // Master In Slave Out
	name string       // Human-readable name
}

// adcBus is the primary bus wired to the ADS1256
var adcBus = spiBusConfig{spi: machine.SPI0, sck: machine.GPIO2, mosi: machine.GPIO3, miso: machine.GPIO4, name: "spi0e"}

// ConfigureSPI sets up a hardware SPI bus. The returned *machine.SPI
// satisfies drivers.SPI.
func ConfigureSPI(bus spiBusConfig, config core.SPIConfig) (*machine.SPI, error) {
	if config.Mode > 3 {
		return nil, errors.New("invalid SPI mode")
	}

	// TinyGo's SPI mode constants match standard SPI modes
	err := bus.spi.Configure(machine.SPIConfig{
		Frequency: config.Rate,
		SCK:       bus.sck,
		SDO:       bus.mosi, // SDO = Serial Data Out (MOSI)
		SDI:       bus.miso, // SDI = Serial Data In (MISO)
		Mode:      uint8(config.Mode),
		LSBFirst:  false,
	})
	if err != nil {
		return nil, err
	}
	return bus.spi, nil
}
