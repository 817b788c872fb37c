package core

import (
	"errors"
	"time"
)

// ErrUnresponsive is returned when a device line or transfer never reaches the
// expected state within its deadline.
var ErrUnresponsive = errors.New("device unresponsive")

// PollConfig bounds a busy-wait.
type PollConfig struct {
	Timeout  time.Duration // Zero or negative waits forever
	Interval time.Duration // Pause between samples of the line
}

// WaitForLevel polls pin until it reads level. It returns an error wrapping
// ErrUnresponsive if the deadline passes first.
func WaitForLevel(gpio GPIODriver, pin GPIOPin, level bool, poll PollConfig, clock Clock) error {
	deadline := clock.Now().Add(poll.Timeout)
	for {
		v, err := gpio.GetPin(pin)
		if err != nil {
			return Wrap("read pin "+Utoa(uint32(pin)), err)
		}
		if v == level {
			return nil
		}
		if poll.Timeout > 0 && !clock.Now().Before(deadline) {
			return Wrap("pin "+Utoa(uint32(pin))+" did not go "+levelName(level)+" within "+poll.Timeout.String(), ErrUnresponsive)
		}
		if poll.Interval > 0 {
			clock.Sleep(poll.Interval)
		}
	}
}

func levelName(level bool) string {
	if level {
		return "high"
	}
	return "low"
}
