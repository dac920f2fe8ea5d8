//go:build tinygo

package core

import "sync/atomic"

var systemTicksValue uint32

// getSystemTicks returns the current system ticks. The USB reader goroutine
// and the main loop may both read the clock.
func getSystemTicks() uint32 {
	return atomic.LoadUint32(&systemTicksValue)
}

// setSystemTicks sets the system ticks
func setSystemTicks(ms uint32) {
	atomic.StoreUint32(&systemTicksValue, ms)
}
