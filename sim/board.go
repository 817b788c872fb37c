package sim

import (
	"fmt"
	"sync"

	"adsbridge/core"
)

type pinMode uint8

const (
	modeUnset pinMode = iota
	modeOutput
	modeInput
)

// Board is an in-memory GPIO driver. Input levels come from registered
// sources; output writes are recorded and fanned out to watchers.
type Board struct {
	mu       sync.Mutex
	modes    map[core.GPIOPin]pinMode
	levels   map[core.GPIOPin]bool
	history  map[core.GPIOPin][]bool
	sources  map[core.GPIOPin]func() bool
	watchers map[core.GPIOPin][]func(bool)
	setErr   map[core.GPIOPin]error
}

// NewBoard returns an empty board
func NewBoard() *Board {
	return &Board{
		modes:    make(map[core.GPIOPin]pinMode),
		levels:   make(map[core.GPIOPin]bool),
		history:  make(map[core.GPIOPin][]bool),
		sources:  make(map[core.GPIOPin]func() bool),
		watchers: make(map[core.GPIOPin][]func(bool)),
		setErr:   make(map[core.GPIOPin]error),
	}
}

// ConfigureOutput implements core.GPIODriver
func (b *Board) ConfigureOutput(pin core.GPIOPin) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modes[pin] = modeOutput
	return nil
}

// ConfigureInputPullUp implements core.GPIODriver
func (b *Board) ConfigureInputPullUp(pin core.GPIOPin) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modes[pin] = modeInput
	if _, ok := b.levels[pin]; !ok {
		b.levels[pin] = core.High
	}
	return nil
}

// SetPin implements core.GPIODriver
func (b *Board) SetPin(pin core.GPIOPin, value bool) error {
	b.mu.Lock()
	if err := b.setErr[pin]; err != nil {
		b.mu.Unlock()
		return err
	}
	if b.modes[pin] != modeOutput {
		b.mu.Unlock()
		return fmt.Errorf("sim: pin %d is not an output", pin)
	}
	b.levels[pin] = value
	b.history[pin] = append(b.history[pin], value)
	watchers := append([]func(bool){}, b.watchers[pin]...)
	b.mu.Unlock()

	for _, w := range watchers {
		w(value)
	}
	return nil
}

// GetPin implements core.GPIODriver
func (b *Board) GetPin(pin core.GPIOPin) (bool, error) {
	b.mu.Lock()
	src := b.sources[pin]
	level := b.levels[pin]
	b.mu.Unlock()

	if src != nil {
		return src(), nil
	}
	return level, nil
}

// Level returns the last level of a pin without consulting input sources
func (b *Board) Level(pin core.GPIOPin) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.levels[pin]
}

// History returns every level written to an output pin, oldest first
func (b *Board) History(pin core.GPIOPin) []bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]bool(nil), b.history[pin]...)
}

// Drive attaches a source that supplies the level of an input pin
func (b *Board) Drive(pin core.GPIOPin, src func() bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources[pin] = src
}

// Watch registers a callback for writes to an output pin
func (b *Board) Watch(pin core.GPIOPin, fn func(level bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watchers[pin] = append(b.watchers[pin], fn)
}

// FailWrites makes SetPin on pin return err until cleared with nil
func (b *Board) FailWrites(pin core.GPIOPin, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setErr[pin] = err
}
