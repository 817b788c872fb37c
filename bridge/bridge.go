// Package bridge forwards samples to a remote controller over the responder
// SPI bus. The select line is held low while a frame is loaded and released
// either by the polling path or by the transfer-complete handler, whichever
// runs first.
package bridge

import (
	"errors"
	"sync/atomic"
	"time"

	"adsbridge/core"
	"adsbridge/protocol"
)

// ErrBusy is returned when a frame is still unread at the transfer deadline
var ErrBusy = errors.New("bridge: transfer still in progress")

// Config bounds one forwarded frame
type Config struct {
	SelectSetup time.Duration // Select held low before the frame is loaded
	Transfer    core.PollConfig
}

// DefaultConfig returns the bridge timing the firmware ships with
func DefaultConfig() Config {
	return Config{
		SelectSetup: 1 * time.Millisecond,
		Transfer: core.PollConfig{
			Timeout:  2 * time.Second,
			Interval: 50 * time.Microsecond,
		},
	}
}

// Forwarder pushes samples to the responder bus
type Forwarder struct {
	gpio  core.GPIODriver
	sel   core.GPIOPin
	bus   core.Responder
	clock core.Clock
	cfg   Config

	inflight    atomic.Uint32 // Token of the frame being clocked out, 0 when none
	completions atomic.Uint32 // Transfers released by the completion handler
}

// New configures the select line as an output, releases it and returns the
// forwarder.
func New(gpio core.GPIODriver, sel core.GPIOPin, bus core.Responder, clock core.Clock, cfg Config) (*Forwarder, error) {
	if err := gpio.ConfigureOutput(sel); err != nil {
		return nil, core.Wrap("bridge: configure select pin "+core.Utoa(uint32(sel)), err)
	}
	f := &Forwarder{
		gpio:  gpio,
		sel:   sel,
		bus:   bus,
		clock: clock,
		cfg:   cfg,
	}
	if err := f.Release(); err != nil {
		return nil, err
	}
	return f, nil
}

// Forward sends one sample, most significant byte first, and returns once the
// remote controller has clocked the frame out.
func (f *Forwarder) Forward(s protocol.Sample) error {
	frame := protocol.EncodeFrame(s.Value)

	if err := f.gpio.SetPin(f.sel, core.Low); err != nil {
		return core.Wrap("bridge: assert select", err)
	}
	if f.cfg.SelectSetup > 0 {
		f.clock.Sleep(f.cfg.SelectSetup)
	}

	tok, err := f.bus.Start(frame[:], f.Complete)
	if err != nil {
		return core.Wrap("bridge: start transfer", err, f.Release())
	}
	// A completion delivered before this store is ignored by Complete; the
	// polling path below still releases the line.
	f.inflight.Store(uint32(tok))

	deadline := f.clock.Now().Add(f.cfg.Transfer.Timeout)
	for {
		state := f.bus.State(tok)
		if state == core.TransferIdle {
			break
		}
		if state == core.TransferFailed {
			f.inflight.Store(0)
			return core.Wrap("bridge: transfer "+core.Utoa(uint32(tok))+" failed", f.Release())
		}
		if f.cfg.Transfer.Timeout > 0 && !f.clock.Now().Before(deadline) {
			f.inflight.Store(0)
			return core.Wrap("bridge: token "+core.Utoa(uint32(tok))+" after "+f.cfg.Transfer.Timeout.String(), ErrBusy, core.ErrUnresponsive, f.Release())
		}
		if f.cfg.Transfer.Interval > 0 {
			f.clock.Sleep(f.cfg.Transfer.Interval)
		}
	}

	f.inflight.CompareAndSwap(uint32(tok), 0)
	return f.Release()
}

// Complete is the transfer-complete handler passed to the responder. It
// releases the select line when tok is the frame in flight and ignores stale
// or unknown tokens.
func (f *Forwarder) Complete(tok core.Token) {
	if tok == 0 || !f.inflight.CompareAndSwap(uint32(tok), 0) {
		return
	}
	f.completions.Add(1)
	_ = f.Release()
}

// Release drives the select line high. Releasing an already released line
// is harmless.
func (f *Forwarder) Release() error {
	if err := f.gpio.SetPin(f.sel, core.High); err != nil {
		return core.Wrap("bridge: release select", err)
	}
	return nil
}

// Completions returns how many transfers were released by the completion handler
func (f *Forwarder) Completions() uint32 {
	return f.completions.Load()
}
