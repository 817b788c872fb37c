// Command adsbridge-host reads samples from the bridge firmware over the
// secondary SPI bus and publishes them to an MQTT broker.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/golang/glog"
	"periph.io/x/host/v3"

	"adsbridge/host/config"
	"adsbridge/host/mcu"
	"adsbridge/host/publish"
	"adsbridge/host/serial"
	"adsbridge/host/spireader"
	"adsbridge/protocol"
)

var (
	configPath = flag.String("config", "adsbridge.yaml", "Configuration file")
	telemetry  = flag.String("telemetry", "", "Telemetry UART device (overrides the config file)")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		glog.Errorf("adsbridge-host: %v", err)
		glog.Flush()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *telemetry != "" {
		cfg.Telemetry.Enabled = true
		cfg.Telemetry.Device = *telemetry
	}
	glog.Infof("adsbridge-host %s: bus %s select %s, broker %s topic %q",
		protocol.Version, cfg.Bus.Port, cfg.Bus.SelectPin, cfg.MQTT.Broker, cfg.MQTT.Topic)

	if _, err := host.Init(); err != nil {
		return err
	}

	reader, bus, err := spireader.Open(cfg.Bus)
	if err != nil {
		return err
	}
	defer bus.Close()

	pub, err := publish.Connect(cfg.MQTT)
	if err != nil {
		return err
	}
	defer pub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		link := mcu.NewMCU()
		if err := link.ConnectWithConfig(serial.ConfigFor(cfg.Telemetry)); err != nil {
			return err
		}
		defer link.Close()
		go func() {
			if err := link.Tail(nil); err != nil {
				glog.Errorf("telemetry: %v", err)
				if errors.Is(err, mcu.ErrDeviceRejected) {
					stop()
				}
			}
		}()
	}

	samples := make(chan protocol.Sample, cfg.Buffer)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := pub.Run(ctx, samples); err != nil && !errors.Is(err, context.Canceled) {
			glog.Errorf("publisher: %v", err)
		}
	}()

	err = reader.Run(ctx, samples)
	stop()
	wg.Wait()

	frames, dropped := reader.Stats()
	published, failed := pub.Stats()
	glog.Infof("frames %d dropped %d published %d failed %d", frames, dropped, published, failed)
	return err
}
