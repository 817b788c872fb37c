// Command adsbridge-sim runs the bridge firmware against a simulated ADS1256
// and responder bus, writing the telemetry stream to stdout.
package main

import (
	"context"
	"flag"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"

	"adsbridge/ads1256"
	"adsbridge/bridge"
	"adsbridge/core"
	"adsbridge/firmware"
	"adsbridge/protocol"
	"adsbridge/sim"
	"adsbridge/telemetry"
)

const (
	pinCS     core.GPIOPin = 5
	pinReady  core.GPIOPin = 6
	pinReset  core.GPIOPin = 7
	pinSelect core.GPIOPin = 13
)

var (
	deviceID = flag.Uint("id", ads1256.ExpectedID, "Chip ID reported by the simulated converter")
	channel  = flag.Uint("channel", 0, "Input channel to sample (0-7)")
	period   = flag.Duration("period", time.Second, "Pause between acquisition cycles")
	cycles   = flag.Int("cycles", 0, "Stop after this many reported samples (0 = run until interrupted)")
	busy     = flag.Int("busy", 0, "DRDY polls reporting busy before each conversion")
	virtual  = flag.Bool("virtual", false, "Use a virtual clock so delays cost no wall time")
	trace    = flag.Bool("trace", false, "Dump the state trace on exit")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	core.SetDebugWriter(func(msg string) { glog.Info(msg) })

	var clock core.Clock = core.SystemClock{}
	if *virtual {
		clock = sim.NewClock()
	}

	board := sim.NewBoard()
	adc := sim.NewADS1256(board, uint8(*deviceID), pinCS, pinReady, pinReset)
	adc.SetSamples(waveform(64)...)
	adc.SetBusyReads(*busy)

	spi, err := core.NewSPIDevice("ads1256", adc, board, pinCS, false)
	if err != nil {
		glog.Exit(err)
	}
	dev, err := ads1256.New(spi, board, clock, ads1256.Pins{Ready: pinReady, Reset: pinReset, HasReset: true})
	if err != nil {
		glog.Exit(err)
	}

	responder := sim.NewResponder()
	fwd, err := bridge.New(board, pinSelect, responder, clock, bridge.DefaultConfig())
	if err != nil {
		glog.Exit(err)
	}

	cfg := firmware.DefaultConfig()
	cfg.Channel = uint8(*channel)
	cfg.Period = *period
	runner := firmware.New(dev, fwd, telemetry.New(os.Stdout), clock, cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reports := 0
	runner.OnState = func(s firmware.State) {
		glog.V(2).Infof("state %s", s)
		if s == firmware.StateReport {
			reports++
			if *cycles > 0 && reports >= *cycles {
				cancel()
			}
		}
	}

	stop := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(stop)
	}()

	err = runner.Run(stop)
	responder.Wait()
	if *trace {
		runner.DumpTrace()
	}

	glog.Infof("cycles %d, frames forwarded %d, completions %d", runner.Cycles(), responder.Loaded(), fwd.Completions())
	if err != nil {
		glog.Errorf("runner: %v", err)
		glog.Flush()
		os.Exit(1)
	}
}

// waveform returns one period of a full-scale sine as 24-bit codes
func waveform(n int) []uint32 {
	values := make([]uint32, n)
	for i := range values {
		v := (math.Sin(2*math.Pi*float64(i)/float64(n)) + 1) / 2
		values[i] = uint32(v * protocol.SampleMax)
	}
	return values
}
