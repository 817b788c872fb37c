package core

import "time"

// Clock abstracts the time source so that blocking delays and deadlines can be
// driven by a simulated clock in tests.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock is the Clock backed by the runtime timer
type SystemClock struct{}

// Now returns the current time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Sleep blocks for d
func (SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// Millis converts a duration to whole milliseconds for log output
func Millis(d time.Duration) uint32 {
	return uint32(d / time.Millisecond)
}
