//go:build rp2040

package main

import (
	"machine"
	"time"

	pio "github.com/tinygo-org/pio/rp2-pio"
	"github.com/tinygo-org/pio/rp2-pio/piolib"
	"tinygo.org/x/drivers/tone"

	"puzzlebox/core"
)

type rgb struct{ r, g, b uint8 }

const brightness = 48

var (
	colorOff     = rgb{}
	colorPuzzle  = rgb{0, 0, brightness}
	colorProgram = rgb{0, brightness, 0}
	colorSetup   = rgb{brightness, 0, brightness}
	colorGood    = rgb{0, brightness, 0}
	colorBad     = rgb{brightness, 0, 0}
	colorCard    = rgb{brightness, brightness, brightness}
	colorValue   = rgb{brightness, brightness / 2, 0}
)

// ringPresenter renders lock feedback on a WS2812 ring driven by PIO and a
// piezo buzzer driven by PWM. Either half may be missing if it failed to
// initialise; the other still works.
type ringPresenter struct {
	ring    *piolib.WS2812B
	speaker tone.Speaker
	audio   bool
	frame   [pixelCount]rgb
}

func newRingPresenter() *ringPresenter {
	p := &ringPresenter{}

	sm, err := pio.PIO0.ClaimStateMachine()
	if err == nil {
		p.ring, err = piolib.NewWS2812B(sm, pinPixels)
	}
	if err != nil {
		core.DebugPrintln("feedback: ring: " + err.Error())
		p.ring = nil
	}

	speaker, err := tone.New(machine.PWM4, pinBuzzer)
	if err != nil {
		core.DebugPrintln("feedback: buzzer: " + err.Error())
	} else {
		p.speaker = speaker
		p.audio = true
		p.speaker.Stop()
	}

	p.show()
	return p
}

func (p *ringPresenter) ModeChanged(mode core.Mode) {
	c := colorPuzzle
	switch mode {
	case core.ModeProgram:
		c = colorProgram
	case core.ModeSetCombo:
		c = colorSetup
	}
	// Sweep the mode colour around the ring, then leave it dimly lit
	for i := range p.frame {
		p.frame[i] = c
		p.show()
		time.Sleep(25 * time.Millisecond)
	}
	p.beep(tone.C5, 80)
	p.fill(rgb{c.r / 8, c.g / 8, c.b / 8})
}

func (p *ringPresenter) CardAccepted(position, total int) {
	p.progress(position, total, colorCard)
	p.beep(tone.A5, 60)
}

func (p *ringPresenter) ProgressAdvanced(current, total int) {
	p.progress(current, total, colorSetup)
	p.beep(tone.E5, 60)
}

func (p *ringPresenter) SelectionChanged(value uint8) {
	// Value n lights n+1 pixels so that zero is still visible
	p.clear()
	for i := 0; i <= int(value) && i < pixelCount; i++ {
		p.frame[i] = colorValue
	}
	p.show()
	p.beep(tone.G5, 40)
}

func (p *ringPresenter) ReadFailed() {
	p.flash(colorBad, 2, 80)
	p.beep(tone.C4, 150)
}

func (p *ringPresenter) WriteResult(ok bool) {
	if ok {
		p.flash(colorGood, 1, 200)
		p.beep(tone.C6, 80)
		return
	}
	p.flash(colorBad, 3, 100)
	p.beep(tone.C4, 200)
}

func (p *ringPresenter) PuzzleResult(ok bool) {
	if ok {
		p.fill(colorGood)
		p.melody(tone.C5, tone.E5, tone.G5, tone.C6)
		return
	}
	p.fill(colorBad)
	p.melody(tone.G4, tone.E4, tone.C4)
	p.clear()
	p.show()
}

func (p *ringPresenter) ComboSaved() {
	p.flash(colorSetup, 3, 120)
	p.melody(tone.E5, tone.E5)
}

func (p *ringPresenter) progress(n, total int, c rgb) {
	if total <= 0 {
		return
	}
	lit := n * pixelCount / total
	p.clear()
	for i := 0; i < lit && i < pixelCount; i++ {
		p.frame[i] = c
	}
	p.show()
}

func (p *ringPresenter) flash(c rgb, times int, ms uint32) {
	for i := 0; i < times; i++ {
		p.fill(c)
		time.Sleep(time.Duration(ms) * time.Millisecond)
		p.fill(colorOff)
		time.Sleep(time.Duration(ms) * time.Millisecond)
	}
}

func (p *ringPresenter) melody(notes ...tone.Note) {
	for _, n := range notes {
		p.beep(n, 120)
		time.Sleep(30 * time.Millisecond)
	}
}

func (p *ringPresenter) beep(note tone.Note, ms uint32) {
	if !p.audio {
		time.Sleep(time.Duration(ms) * time.Millisecond)
		return
	}
	p.speaker.SetNote(note)
	time.Sleep(time.Duration(ms) * time.Millisecond)
	p.speaker.Stop()
}

func (p *ringPresenter) fill(c rgb) {
	for i := range p.frame {
		p.frame[i] = c
	}
	p.show()
}

func (p *ringPresenter) clear() {
	for i := range p.frame {
		p.frame[i] = colorOff
	}
}

func (p *ringPresenter) show() {
	if p.ring == nil {
		return
	}
	for _, c := range p.frame {
		p.ring.PutRGB(c.r, c.g, c.b)
	}
	// WS2812 latches after the line idles low for 50us
	time.Sleep(100 * time.Microsecond)
}
