//go:build rp2040

package main

import "machine"

// button is the mode push-button, wired to ground with the internal pull-up
type button struct {
	pin machine.Pin
}

func newButton(pin machine.Pin) *button {
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return &button{pin: pin}
}

// Pressed reports true while the button pulls the line low
func (b *button) Pressed() bool {
	return !b.pin.Get()
}

// relayLock drives the lock solenoid relay, active high
type relayLock struct {
	pin machine.Pin
}

func newRelayLock(pin machine.Pin) *relayLock {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.Low()
	return &relayLock{pin: pin}
}

func (l *relayLock) Engage() {
	l.pin.High()
}

func (l *relayLock) Release() {
	l.pin.Low()
}
