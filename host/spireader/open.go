package spireader

import (
	"fmt"
	"io"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"

	"adsbridge/host/config"
)

// Open connects to the SPI port and select pin named in cfg. periph host
// drivers must be initialised first. The returned closer releases the port.
func Open(cfg config.BusConfig) (*Reader, io.Closer, error) {
	p, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open spi port %s: %w", cfg.Port, err)
	}

	c, err := p.Connect(physic.Frequency(cfg.SpeedHz)*physic.Hertz, spi.Mode(cfg.Mode), 8)
	if err != nil {
		p.Close()
		return nil, nil, fmt.Errorf("failed to connect spi port %s: %w", cfg.Port, err)
	}

	pin := gpioreg.ByName(cfg.SelectPin)
	if pin == nil {
		p.Close()
		return nil, nil, fmt.Errorf("unknown select pin %s", cfg.SelectPin)
	}
	if err := pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
		p.Close()
		return nil, nil, fmt.Errorf("failed to configure select pin %s: %w", cfg.SelectPin, err)
	}

	return New(c, pin, cfg.EdgeTimeout, cfg.LoadDelay), p, nil
}
