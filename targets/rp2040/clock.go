//go:build rp2040

package main

import (
	"runtime/volatile"
	"time"
	"unsafe"

	"puzzlebox/core"
)

// RP2040 timer peripheral
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x08 // raw timer high word
	timerTIMERAWL = timerBase + 0x0C // raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// GetHardwareUptime reads the 64-bit microsecond timer
func GetHardwareUptime() uint64 {
	// Read high, low, high again to catch a carry between the two words
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()
		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// Millis returns the free-running millisecond count. It wraps after about
// 49 days, which core.Elapsed tolerates.
func Millis() uint32 {
	return uint32(GetHardwareUptime() / 1000)
}

// UpdateSystemTime copies hardware time into the core clock
func UpdateSystemTime() {
	core.SetTime(Millis())
}

// sleepMillis blocks for ms and brings the core clock up to date, so that
// gesture timing after a long animation sees the real elapsed time
func sleepMillis(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
	UpdateSystemTime()
}
