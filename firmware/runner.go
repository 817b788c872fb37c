// Package firmware sequences the acquisition: identify the ADC once at
// startup, configure it, then on every period take one sample, forward it over
// the responder bus and report it on the telemetry link.
package firmware

import (
	"errors"
	"time"

	"adsbridge/ads1256"
	"adsbridge/core"
	"adsbridge/protocol"
)

// ErrHalted is returned by every operation once the runner has halted
var ErrHalted = errors.New("firmware: halted")

// Converter is the ADC as seen by the runner
type Converter interface {
	Reset() error
	Identify() (uint8, error)
	Configure() error
	Acquire(channel uint8) (protocol.Sample, error)
	SetTracer(trace func(ads1256.Phase))
}

// Forwarder hands a sample to the remote controller
type Forwarder interface {
	Forward(s protocol.Sample) error
}

// Reporter writes the telemetry stream
type Reporter interface {
	Banner(ok bool) error
	Report(s protocol.Sample) error
}

// Config controls the acquisition loop
type Config struct {
	Channel                uint8
	Period                 time.Duration // Pause between cycles
	StartupSettle          time.Duration // Pause after configuration, before the first cycle
	IdentifyAttempts       int           // Reset-and-identify attempts for an unresponsive device
	MaxConsecutiveFailures int           // Failed cycles before the device is reset and re-identified
}

// DefaultConfig returns the loop settings the firmware ships with
func DefaultConfig() Config {
	return Config{
		Channel:                0,
		Period:                 1000 * time.Millisecond,
		StartupSettle:          1000 * time.Millisecond,
		IdentifyAttempts:       3,
		MaxConsecutiveFailures: 5,
	}
}

// Runner owns the acquisition state machine
type Runner struct {
	adc   Converter
	fwd   Forwarder
	rep   Reporter
	clock core.Clock
	cfg   Config

	state      State
	configured bool
	announced  bool // startup banner written
	failures   int
	cycles     uint32
	boot       time.Time
	events     core.EventRing

	// OnState, when set, observes every state transition
	OnState func(State)
}

// New returns a runner in StateIdle. Start must be called before Cycle.
func New(adc Converter, fwd Forwarder, rep Reporter, clock core.Clock, cfg Config) *Runner {
	if cfg.IdentifyAttempts < 1 {
		cfg.IdentifyAttempts = 1
	}
	if cfg.MaxConsecutiveFailures < 1 {
		cfg.MaxConsecutiveFailures = 1
	}
	r := &Runner{
		adc:   adc,
		fwd:   fwd,
		rep:   rep,
		clock: clock,
		cfg:   cfg,
		state: StateIdle,
		boot:  clock.Now(),
	}
	adc.SetTracer(func(p ads1256.Phase) {
		r.setState(stateForPhase(p))
	})
	return r
}

// State returns the current state
func (r *Runner) State() State {
	return r.state
}

// Halted reports whether the runner reached its terminal state
func (r *Runner) Halted() bool {
	return r.state == StateHalted
}

// Cycles returns the number of successful acquisition cycles
func (r *Runner) Cycles() uint32 {
	return r.cycles
}

// Events exposes the transition trace for post-mortem dumps
func (r *Runner) Events() *core.EventRing {
	return &r.events
}

// DumpTrace writes the transition trace through the debug writer
func (r *Runner) DumpTrace() {
	r.events.Dump(func(kind uint8) string { return State(kind).String() })
}

func (r *Runner) setState(s State) {
	if r.state == StateHalted {
		return
	}
	r.state = s
	r.events.Record(uint8(s), r.cfg.Channel, core.Millis(r.clock.Now().Sub(r.boot)), r.cycles)
	if r.OnState != nil {
		r.OnState(s)
	}
}

func (r *Runner) halt(reason string) {
	r.setState(StateHalted)
	core.DebugPrintln("[FW] halted: " + reason)
}

// Start resets and identifies the device, writes the startup banner and
// configures the converter. An identity mismatch halts the runner for good. A
// device that stays unresponsive leaves the runner unconfigured; Cycle then
// retries through recovery.
func (r *Runner) Start() error {
	if r.Halted() {
		return ErrHalted
	}
	r.setState(StateStartup)

	id, err := r.identify()
	if err != nil {
		if errors.Is(err, ads1256.ErrIdentityMismatch) {
			r.announce(false)
			r.halt(err.Error())
			return err
		}
		core.DebugPrintln("[FW] startup: " + err.Error())
		r.setState(StateIdle)
		return err
	}

	core.DebugPrintln("[FW] device id " + core.Itoa(int(id)))
	r.announce(true)

	if err := r.adc.Configure(); err != nil {
		// Retried through recovery on the first cycle
		core.DebugPrintln("[FW] configure: " + err.Error())
		r.setState(StateIdle)
		return err
	}
	r.configured = true
	r.clock.Sleep(r.cfg.StartupSettle)
	r.setState(StateIdle)
	return nil
}

// announce writes the banner for the first identification outcome only
func (r *Runner) announce(ok bool) {
	if r.announced {
		return
	}
	r.announced = true
	if err := r.rep.Banner(ok); err != nil {
		core.DebugPrintln("[FW] banner: " + err.Error())
	}
}

// identify resets the device and reads its ID, retrying only while the
// device is unresponsive or the bus fails. A wrong ID is final.
func (r *Runner) identify() (uint8, error) {
	var err error
	for attempt := 1; attempt <= r.cfg.IdentifyAttempts; attempt++ {
		if err = r.adc.Reset(); err != nil {
			core.DebugPrintln("[FW] reset: " + err.Error())
			continue
		}
		var id uint8
		id, err = r.adc.Identify()
		if err == nil {
			return id, nil
		}
		if errors.Is(err, ads1256.ErrIdentityMismatch) {
			return id, err
		}
		core.DebugPrintln("[FW] identify attempt " + core.Itoa(attempt) + ": " + err.Error())
	}
	return 0, err
}

// recoverDevice resets the device and repeats identification and configuration
func (r *Runner) recoverDevice() error {
	r.setState(StateRecover)
	if _, err := r.identify(); err != nil {
		if errors.Is(err, ads1256.ErrIdentityMismatch) {
			r.announce(false)
			r.halt(err.Error())
		} else {
			r.setState(StateIdle)
		}
		return err
	}
	r.announce(true)
	if err := r.adc.Configure(); err != nil {
		r.setState(StateIdle)
		return err
	}
	r.configured = true
	r.failures = 0
	core.DebugPrintln("[FW] device recovered")
	return nil
}

// ChannelValue acquires one sample on channel, forwards it over the
// responder bus and reports it on the telemetry link. The runner is back in
// StateIdle when it returns, whether or not the sample made it through.
func (r *Runner) ChannelValue(channel uint8) (protocol.Sample, error) {
	if r.Halted() {
		return protocol.Sample{}, ErrHalted
	}
	defer r.setState(StateIdle)

	s, err := r.adc.Acquire(channel)
	if err != nil {
		return s, err
	}

	r.setState(StateForward)
	if err := r.fwd.Forward(s); err != nil {
		return s, err
	}

	r.setState(StateReport)
	if err := r.rep.Report(s); err != nil {
		return s, err
	}
	return s, nil
}

// Cycle runs one acquisition on the configured channel. A failed cycle is
// abandoned and retried on the next call; after MaxConsecutiveFailures the
// device is reset and re-identified before the next attempt.
func (r *Runner) Cycle() (protocol.Sample, error) {
	if r.Halted() {
		return protocol.Sample{}, ErrHalted
	}
	if !r.configured {
		if err := r.recoverDevice(); err != nil {
			return protocol.Sample{}, err
		}
	}

	s, err := r.ChannelValue(r.cfg.Channel)
	if err != nil {
		r.failures++
		core.DebugAsync("[FW] cycle failed (" + core.Itoa(r.failures) + "): " + err.Error())
		if r.failures >= r.cfg.MaxConsecutiveFailures {
			r.configured = false
			r.failures = 0
		}
		return s, err
	}

	r.failures = 0
	r.cycles++
	return s, nil
}

// Run starts the runner and then cycles once per period until stop is closed
// or the runner halts.
func (r *Runner) Run(stop <-chan struct{}) error {
	if err := r.Start(); err != nil && r.Halted() {
		return err
	}
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		_, _ = r.Cycle()
		if r.Halted() {
			return ErrHalted
		}
		r.clock.Sleep(r.cfg.Period)
	}
}
