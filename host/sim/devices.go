package sim

import (
	"encoding/hex"
	"fmt"

	"puzzlebox/core"
)

// Card is a simulated MIFARE card
type Card struct {
	UID   []byte
	Value byte
}

func (c *Card) String() string {
	return fmt.Sprintf("%s=%d", hex.EncodeToString(c.UID), c.Value)
}

// Reader is a card reader with at most one card on it
type Reader struct {
	card *Card

	// Next n reads or writes fail with a transport timeout
	FailReads  int
	FailWrites int
}

func (r *Reader) Present() bool {
	return r.card != nil
}

func (r *Reader) Identity() []byte {
	if r.card == nil {
		return nil
	}
	return r.card.UID
}

func (r *Reader) ReadValue() (byte, error) {
	if r.card == nil {
		return 0, core.ErrTransportTimeout
	}
	if r.FailReads > 0 {
		r.FailReads--
		return 0, core.ErrTransportTimeout
	}
	return r.card.Value, nil
}

func (r *Reader) WriteValue(v byte) error {
	if r.card == nil {
		return core.ErrTransportTimeout
	}
	if r.FailWrites > 0 {
		r.FailWrites--
		return core.ErrTransportTimeout
	}
	r.card.Value = v
	return nil
}

// Button is the simulated push-button
type Button struct {
	pressed bool
}

func (b *Button) Pressed() bool {
	return b.pressed
}

// Lock records relay activity
type Lock struct {
	notify  func(string)
	engaged bool
	opened  int
}

func (l *Lock) Engage() {
	l.engaged = true
	l.opened++
	l.notify("lock open")
}

func (l *Lock) Release() {
	l.engaged = false
	l.notify("lock closed")
}

// Presenter turns feedback calls into text lines
type Presenter struct {
	notify func(string)
}

func (p *Presenter) ModeChanged(mode core.Mode) {
	p.notify("mode " + mode.String())
}

func (p *Presenter) CardAccepted(position, total int) {
	p.notify(fmt.Sprintf("card accepted %d/%d", position, total))
}

func (p *Presenter) ProgressAdvanced(current, total int) {
	p.notify(fmt.Sprintf("combination card %d/%d", current, total))
}

func (p *Presenter) SelectionChanged(value uint8) {
	p.notify(fmt.Sprintf("selection %d", value))
}

func (p *Presenter) ReadFailed() {
	p.notify("read failed")
}

func (p *Presenter) WriteResult(ok bool) {
	if ok {
		p.notify("card written")
	} else {
		p.notify("write failed")
	}
}

func (p *Presenter) PuzzleResult(ok bool) {
	if ok {
		p.notify("puzzle solved")
	} else {
		p.notify("wrong combination")
	}
}

func (p *Presenter) ComboSaved() {
	p.notify("combination saved")
}
