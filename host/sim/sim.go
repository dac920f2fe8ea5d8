// Package sim runs the lock core on the host against simulated devices.
//
// The core keeps its clock, event ring and debug writer in package state,
// so a process should run at most one Simulator at a time. Time is
// virtual: each step advances the core clock by the tick delay, and every
// blocking wait inside the core (lock hold, increment settle) completes
// instantly by advancing the clock.
package sim

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"puzzlebox/core"
	"puzzlebox/protocol"
)

// Options configure a Simulator
type Options struct {
	// Store is the record file; empty keeps the record in memory
	Store string

	// Notify receives device feedback lines (lights, sounds, relay).
	// Defaults to logging them.
	Notify func(string)

	Logger *zap.Logger
}

// Simulator owns a core.Machine wired to simulated devices and, once
// Connect is called, serves the device end of the serial link. All
// methods are safe for concurrent use.
type Simulator struct {
	log *zap.Logger

	mu        sync.Mutex
	machine   *core.Machine
	link      *core.Link
	reader    *Reader
	button    *Button
	lock      *Lock
	store     *FileStore
	cards     map[string]*Card
	tickDelay uint32

	// Device end of the link
	conn      io.ReadWriteCloser
	transport *protocol.Transport
	input     *protocol.FifoBuffer
	output    *protocol.ScratchOutput
	incoming  chan []byte
	readDone  chan struct{}
	closeOnce sync.Once
}

// New builds a simulator and starts the machine, loading the stored
// combination
func New(cfg core.Config, opts Options) (*Simulator, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	notify := opts.Notify
	if notify == nil {
		notify = func(s string) { log.Info(s) }
	}

	store, err := OpenFileStore(opts.Store)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		log:    log,
		reader: &Reader{},
		button: &Button{},
		lock:   &Lock{notify: notify},
		store:  store,
		cards:  make(map[string]*Card),
		input:  protocol.NewFifoBuffer(512),
		output: protocol.NewScratchOutput(),
	}

	core.SetTime(0)
	core.ClearEventRing()

	m, err := core.NewMachine(cfg, core.Devices{
		Reader:    s.reader,
		Storage:   store,
		Presenter: &Presenter{notify: notify},
		Lock:      s.lock,
		Button:    s.button,
		Sleep:     core.AdvanceTime,
	})
	if err != nil {
		return nil, err
	}
	s.machine = m
	s.tickDelay = m.Config().TickDelay

	s.link = core.NewLink(m)
	s.link.SetFlush(s.flush)
	s.transport = protocol.NewTransport(s.output, s.link.Handle)
	s.transport.SetFlushCallback(s.flush)
	core.SetDebugWriter(func(text string) {
		log.Debug(text)
		s.link.WriteDebug(text)
	})

	s.mu.Lock()
	m.Start()
	s.mu.Unlock()
	return s, nil
}

// Connect serves the link protocol on conn. The simulator owns conn from
// here on and closes it in Close.
func (s *Simulator) Connect(conn io.ReadWriteCloser) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conn = conn
	s.incoming = make(chan []byte, 64)
	s.readDone = make(chan struct{})
	s.link.Attach(s.transport)
	go s.readLoop(conn, s.incoming, s.readDone)
}

func (s *Simulator) readLoop(conn io.Reader, incoming chan<- []byte, done chan struct{}) {
	defer close(done)
	buf := make([]byte, 256)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			incoming <- chunk
		}
		if err != nil {
			s.log.Debug("link reader stopped", zap.Error(err))
			return
		}
	}
}

// Close disconnects the link
func (s *Simulator) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		conn, done, incoming := s.conn, s.readDone, s.incoming
		s.mu.Unlock()
		if conn == nil {
			return
		}
		err = conn.Close()
		// Keep draining so a reader blocked on a full channel can exit
		for {
			select {
			case <-done:
				return
			case <-incoming:
			}
		}
	})
	return err
}

// Run steps the machine every interval until ctx is cancelled
func (s *Simulator) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Step()
		}
	}
}

// Step services the link once, runs one machine tick and advances the
// clock by the tick delay
func (s *Simulator) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step()
}

func (s *Simulator) step() {
	s.pollLink()
	s.machine.Tick()
	s.flush()
	core.AdvanceTime(s.tickDelay)
}

// advance steps for ms of virtual time
func (s *Simulator) advance(ms uint32) {
	end := core.GetTime() + ms
	for int32(core.GetTime()-end) < 0 {
		s.step()
	}
}

func (s *Simulator) pollLink() {
	if s.incoming == nil {
		return
	}
	for {
		select {
		case chunk := <-s.incoming:
			if s.input.Write(chunk) < len(chunk) {
				s.log.Warn("link input overflow")
			}
			continue
		default:
		}
		break
	}
	if s.input.Available() > 0 {
		s.transport.Receive(s.input)
	}
}

// flush writes pending link output. It runs with s.mu held, from the
// step or from inside the link while it sends.
func (s *Simulator) flush() {
	if s.output.CurPosition() == 0 {
		return
	}
	if s.conn != nil {
		if _, err := s.conn.Write(s.output.Result()); err != nil {
			s.log.Debug("link write failed", zap.Error(err))
		}
	}
	s.output.Reset()
}

// Place puts a card on the reader. A card seen before keeps the value it
// was last given unless value is non-nil.
func (s *Simulator) Place(uid []byte, value *byte) *Card {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := string(uid)
	card, ok := s.cards[key]
	if !ok {
		card = &Card{UID: append([]byte(nil), uid...)}
		s.cards[key] = card
	}
	if value != nil {
		card.Value = *value
	}
	s.reader.card = card
	return card
}

// Remove lifts the card off the reader
func (s *Simulator) Remove() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reader.card = nil
}

// Press holds the button for ms of virtual time, then releases it
func (s *Simulator) Press(ms uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.button.pressed = true
	s.advance(ms)
	s.button.pressed = false
	s.step()
}

// Wait runs the machine for ms of virtual time
func (s *Simulator) Wait(ms uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance(ms)
}

// FailReads makes the next n card reads fail
func (s *Simulator) FailReads(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reader.FailReads = n
}

// FailWrites makes the next n card writes fail
func (s *Simulator) FailWrites(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reader.FailWrites = n
}

// FailCommits makes the next n record commits fail
func (s *Simulator) FailCommits(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.FailCommits = n
}

// State returns the machine state
func (s *Simulator) State() core.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State()
}

// Combination returns the combination the machine is using
func (s *Simulator) Combination() []uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Combination()
}

// Cards returns every card placed so far
func (s *Simulator) Cards() []Card {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Card, 0, len(s.cards))
	for _, c := range s.cards {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].UID, out[j].UID) < 0
	})
	return out
}

// Opened returns how many times the lock has been released
func (s *Simulator) Opened() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lock.opened
}

// Now returns the virtual clock in milliseconds
func (s *Simulator) Now() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.GetTime()
}
