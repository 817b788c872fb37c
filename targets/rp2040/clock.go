//go:build rp2040

package main

import (
	"runtime/volatile"
	"time"
	"unsafe"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x08 // Raw timer high word
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// GetHardwareUptime reads the full 64-bit RP2040 microsecond timer
func GetHardwareUptime() uint64 {
	// Must read high first, then low, then high again to detect rollover
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// hardwareClock implements core.Clock on the hardware timer. Now counts from
// boot rather than wall time.
type hardwareClock struct{}

var bootEpoch = time.Unix(0, 0)

func (hardwareClock) Now() time.Time {
	return bootEpoch.Add(time.Duration(GetHardwareUptime()) * time.Microsecond)
}

func (hardwareClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
