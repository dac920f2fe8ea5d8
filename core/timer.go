package core

// The core clock counts milliseconds. Targets feed it from their hardware
// timer once per loop iteration; tests drive it directly with SetTime.
var systemTicks uint32

// GetTime returns the current system time in milliseconds
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ms uint32) {
	setSystemTicks(ms)
}

// AdvanceTime moves the clock forward by ms. Used by simulated sleeps.
func AdvanceTime(ms uint32) {
	setSystemTicks(getSystemTicks() + ms)
}

// Elapsed returns the milliseconds from start to now, correct across
// wraparound of the clock
func Elapsed(start, now uint32) uint32 {
	return now - start
}
