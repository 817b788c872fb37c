//go:build rp2040

package main

import (
	"machine"
	"time"

	"adsbridge/ads1256"
	"adsbridge/bridge"
	"adsbridge/core"
	"adsbridge/firmware"
	"adsbridge/targets/pio"
	"adsbridge/telemetry"
)

// Board wiring
const (
	pinADCCS    core.GPIOPin = 5
	pinADCReady core.GPIOPin = 6
	pinADCReset core.GPIOPin = 7
	pinSelect   core.GPIOPin = 13 // Low while a frame waits for the remote controller

	responderSCK  = machine.GPIO10
	responderMISO = machine.GPIO11

	telemetryBaud = 115200
	adcSPIRate    = 1000000 // Below the converter's CLKIN/4 limit
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	// Debug goes to USB CDC, the UART carries telemetry only
	core.SetDebugWriter(func(msg string) {
		machine.Serial.Write([]byte(msg))
		machine.Serial.Write([]byte("\r\n"))
	})
	core.InitAsyncDebug()

	uart := machine.UART0
	err = uart.Configure(machine.UARTConfig{
		BaudRate: telemetryBaud,
		TX:       machine.GPIO0,
		RX:       machine.GPIO1,
	})
	if err != nil {
		fatal("telemetry uart: " + err.Error())
	}

	clock := hardwareClock{}
	gpio := NewRPGPIODriver()

	bus, err := ConfigureSPI(adcBus, core.SPIConfig{Mode: 1, Rate: adcSPIRate})
	if err != nil {
		fatal("spi: " + err.Error())
	}
	spi, err := core.NewSPIDevice("ads1256", bus, gpio, pinADCCS, false)
	if err != nil {
		fatal("spi device: " + err.Error())
	}
	dev, err := ads1256.New(spi, gpio, clock, ads1256.Pins{
		Ready:    pinADCReady,
		Reset:    pinADCReset,
		HasReset: true,
	})
	if err != nil {
		fatal("ads1256: " + err.Error())
	}

	responder := pio.NewResponder(0, 0)
	if err := responder.Init(responderSCK, responderMISO); err != nil {
		fatal("responder: " + err.Error())
	}
	fwd, err := bridge.New(gpio, pinSelect, responder, clock, bridge.DefaultConfig())
	if err != nil {
		fatal("bridge: " + err.Error())
	}

	runner := firmware.New(dev, fwd, telemetry.New(uart), clock, firmware.DefaultConfig())
	// A nil stop channel runs until the runner halts
	if err := runner.Run(nil); err != nil {
		core.DebugPrintln("[MAIN] runner stopped: " + err.Error())
	}
	runner.DumpTrace()
	idle()
}

// fatal reports a bring-up failure on the debug link and parks the CPU
func fatal(msg string) {
	core.DebugPrintln("[MAIN] " + msg)
	idle()
}

func idle() {
	for {
		time.Sleep(time.Second)
	}
}
