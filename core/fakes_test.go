package core

import "errors"

var errFakeTimeout = errors.New("fake: no answer")

type fakeCard struct {
	uid   []byte
	value uint8
}

// fakeReader holds at most one card. Errors apply to every access until
// cleared.
type fakeReader struct {
	card     *fakeCard
	readErr  error
	writeErr error
	reads    int
}

func (r *fakeReader) place(uid byte, value uint8) *fakeCard {
	r.card = &fakeCard{uid: []byte{0x04, uid, 0x22, 0x33}, value: value}
	return r.card
}

func (r *fakeReader) remove() {
	r.card = nil
}

func (r *fakeReader) Present() bool {
	return r.card != nil
}

func (r *fakeReader) Identity() []byte {
	if r.card == nil {
		return nil
	}
	return r.card.uid
}

func (r *fakeReader) ReadValue() (byte, error) {
	r.reads++
	if r.readErr != nil {
		return 0, r.readErr
	}
	if r.card == nil {
		return 0, ErrTransportTimeout
	}
	return r.card.value, nil
}

func (r *fakeReader) WriteValue(v byte) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	if r.card == nil {
		return ErrTransportTimeout
	}
	r.card.value = v
	return nil
}

type fakeStorage struct {
	data      [64]byte
	commits   int
	commitErr error
}

func (s *fakeStorage) LoadByte(addr uint16) byte {
	return s.data[addr]
}

func (s *fakeStorage) StoreByte(addr uint16, b byte) {
	s.data[addr] = b
}

func (s *fakeStorage) Commit() error {
	s.commits++
	return s.commitErr
}

// plainStorage has no Commit method
type plainStorage struct {
	data [64]byte
}

func (s *plainStorage) LoadByte(addr uint16) byte     { return s.data[addr] }
func (s *plainStorage) StoreByte(addr uint16, b byte) { s.data[addr] = b }

// fakePresenter logs every presentation and lock call in order
type fakePresenter struct {
	log *[]string
}

func (p fakePresenter) add(s string) { *p.log = append(*p.log, s) }

func (p fakePresenter) ModeChanged(mode Mode) { p.add("mode:" + mode.String()) }
func (p fakePresenter) CardAccepted(position, total int) {
	p.add("accepted:" + itoa(position) + "/" + itoa(total))
}
func (p fakePresenter) ProgressAdvanced(current, total int) {
	p.add("progress:" + itoa(current) + "/" + itoa(total))
}
func (p fakePresenter) SelectionChanged(value uint8) { p.add("selection:" + itoa(int(value))) }
func (p fakePresenter) ReadFailed()                  { p.add("read_failed") }
func (p fakePresenter) WriteResult(ok bool)          { p.add("write:" + boolString(ok)) }
func (p fakePresenter) PuzzleResult(ok bool)         { p.add("puzzle:" + boolString(ok)) }
func (p fakePresenter) ComboSaved()                  { p.add("saved") }

type fakeLock struct {
	log     *[]string
	engaged bool
}

func (l *fakeLock) Engage() {
	l.engaged = true
	*l.log = append(*l.log, "engage")
}

func (l *fakeLock) Release() {
	l.engaged = false
	*l.log = append(*l.log, "release")
}

type fakeButton struct {
	pressed bool
}

func (b *fakeButton) Pressed() bool {
	return b.pressed
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// rig wires a Machine to fakes. Sleeps advance the core clock so that
// blocking presentation consumes simulated time.
type rig struct {
	m       *Machine
	reader  *fakeReader
	storage *fakeStorage
	button  *fakeButton
	lock    *fakeLock
	log     []string
	events  []Event
	slept   uint32
}

func newRig(cfg Config) (*rig, error) {
	return newRigWithStorage(cfg, &fakeStorage{})
}

func newRigWithStorage(cfg Config, storage *fakeStorage) (*rig, error) {
	SetTime(1000)
	ClearEventRing()

	r := &rig{
		reader:  &fakeReader{},
		storage: storage,
		button:  &fakeButton{},
	}
	r.lock = &fakeLock{log: &r.log}

	m, err := NewMachine(cfg, Devices{
		Reader:    r.reader,
		Storage:   r.storage,
		Presenter: fakePresenter{log: &r.log},
		Lock:      r.lock,
		Button:    r.button,
		Sleep: func(ms uint32) {
			r.slept += ms
			AdvanceTime(ms)
		},
	})
	if err != nil {
		return nil, err
	}
	m.SetObserver(ObserverFunc(func(ev Event) {
		r.events = append(r.events, ev)
	}))
	m.Start()
	r.m = m
	return r, nil
}

// run ticks the machine for at least ms of simulated time
func (r *rig) run(ms uint32) {
	end := GetTime() + ms
	for int32(GetTime()-end) < 0 {
		r.m.Tick()
		AdvanceTime(r.m.Config().TickDelay)
	}
}

// press holds the button for ms and releases it
func (r *rig) press(ms uint32) {
	r.button.pressed = true
	r.run(ms)
	r.button.pressed = false
	r.run(r.m.Config().TickDelay)
}

// tap places a card long enough to be read, then lifts it for longer than
// the removal settle time
func (r *rig) tap(uid byte, value uint8) {
	r.reader.place(uid, value)
	r.run(50)
	r.reader.remove()
	r.run(150)
}

func (r *rig) kinds() []EventKind {
	out := make([]EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (r *rig) clearLog() {
	r.log = r.log[:0]
	r.events = r.events[:0]
}
