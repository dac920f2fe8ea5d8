package core

// Mode is the active operating mode of the lock
type Mode uint8

const (
	ModePuzzle   Mode = iota // solve the stored combination (initial)
	ModeProgram              // write the selected value to cards
	ModeSetCombo             // read a new combination from cards
)

func (m Mode) String() string {
	switch m {
	case ModePuzzle:
		return "puzzle"
	case ModeProgram:
		return "program"
	case ModeSetCombo:
		return "setcombo"
	default:
		return "unknown"
	}
}

// ProgramValues is the number of distinct values Program mode cycles through
const ProgramValues = 10

// Devices groups the hardware the machine drives. All fields are required.
type Devices struct {
	Reader    CardReader
	Storage   Storage
	Presenter Presenter
	Lock      Lock
	Button    Button
	Sleep     SleepFunc
}

func (d *Devices) validate() error {
	if d.Reader == nil || d.Storage == nil || d.Presenter == nil ||
		d.Lock == nil || d.Button == nil || d.Sleep == nil {
		return ErrMissingDevice
	}
	return nil
}

// State is a snapshot of the machine for reporting
type State struct {
	Mode      Mode
	Selection uint8
	Entered   uint8
	Length    uint8
	Present   bool
}

// Machine owns all lock state and runs one step per Tick. It is not safe
// for concurrent use; call it from a single loop.
type Machine struct {
	cfg Config
	dev Devices

	classifier *GestureClassifier
	increment  EdgeDetector
	dispatcher *CardDispatcher
	store      *ComboStore
	observer   Observer

	mode      Mode
	combo     Sequence
	entered   Sequence
	selection uint8
}

// NewMachine creates a machine in Puzzle mode holding the default
// combination. Call Start before the first Tick.
func NewMachine(cfg Config, dev Devices) (*Machine, error) {
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := dev.validate(); err != nil {
		return nil, err
	}

	m := &Machine{
		cfg:  cfg,
		dev:  dev,
		mode: ModePuzzle,
	}
	store, err := NewComboStore(dev.Storage, &m.cfg)
	if err != nil {
		return nil, err
	}
	m.store = store
	m.combo = store.Default()
	m.classifier = NewGestureClassifier(&m.cfg)
	m.dispatcher = NewCardDispatcher(dev.Reader, &m.cfg)
	return m, nil
}

// SetObserver registers the receiver of emitted events
func (m *Machine) SetObserver(o Observer) {
	m.observer = o
}

// Start loads the persisted combination. An invalid record leaves the
// default in place and is not rewritten.
func (m *Machine) Start() {
	combo, err := m.store.Load()
	m.combo = combo

	var usedDefault uint8
	if err != nil {
		usedDefault = 1
		DebugPrintln("combo: " + err.Error() + ", using default")
	}
	m.emit(EventComboLoaded, uint8(m.combo.Len()), usedDefault)
}

// Tick runs one iteration: classify the button, then run the active mode.
func (m *Machine) Tick() {
	pressed := m.dev.Button.Pressed()
	m.applyGesture(m.classifier.Update(pressed, GetTime()))

	switch m.mode {
	case ModePuzzle:
		m.runPuzzle()
	case ModeProgram:
		m.runProgram(pressed)
	case ModeSetCombo:
		m.runSetCombo()
	}
}

// applyGesture performs the mode transition a gesture selects
func (m *Machine) applyGesture(g Gesture) {
	switch g {
	case GestureShortPress:
		if m.mode != ModePuzzle {
			return
		}
		m.selection = 0
		m.increment.Sync(false)
		m.setMode(ModeProgram)
		// Entering Program always opens the lock
		m.unlock()

	case GestureLongHold:
		if m.mode == ModeSetCombo {
			return
		}
		m.setMode(ModeSetCombo)
	}
}

// setMode switches mode, dropping any partially entered sequence
func (m *Machine) setMode(mode Mode) {
	m.mode = mode
	m.entered.Reset()
	m.emit(EventModeChanged, 0, 0)
	m.dev.Presenter.ModeChanged(mode)
}

func (m *Machine) unlock() {
	m.dev.Lock.Engage()
	m.dev.Sleep(m.cfg.LockHold)
	m.dev.Lock.Release()
}

// readCard appends the value of a newly placed card to the entered
// sequence. A failed read is abandoned until the card is placed again.
func (m *Machine) readCard() bool {
	if _, ok := m.dispatcher.Poll(GetTime()); !ok {
		return false
	}
	v, err := m.dev.Reader.ReadValue()
	if err != nil {
		m.cardFailed(err)
		m.dev.Presenter.ReadFailed()
		return false
	}
	m.entered.Append(v)
	m.emit(EventCardRead, v, uint8(m.entered.Len()))
	return true
}

func (m *Machine) cardFailed(err error) {
	DebugPrintln("card: " + err.Error())
	m.emit(EventCardError, 0, 0)
}

func (m *Machine) runPuzzle() {
	if !m.readCard() {
		return
	}
	m.dev.Presenter.CardAccepted(m.entered.Len(), m.combo.Len())
	if m.entered.Len() < m.combo.Len() {
		return
	}

	if m.combo.Matches(&m.entered) {
		m.emit(EventPuzzleSolved, uint8(m.entered.Len()), 0)
		m.dev.Presenter.PuzzleResult(true)
		m.unlock()
	} else {
		m.emit(EventPuzzleFailed, uint8(m.entered.Len()), 0)
		m.dev.Presenter.PuzzleResult(false)
	}
	m.entered.Reset()
}

func (m *Machine) runProgram(pressed bool) {
	if m.increment.Rising(pressed) {
		m.selection = (m.selection + 1) % ProgramValues
		m.emit(EventSelection, m.selection, 0)
		m.dev.Presenter.SelectionChanged(m.selection)
		m.dev.Sleep(m.cfg.IncrementSettle)
	}

	if _, ok := m.dispatcher.Poll(GetTime()); !ok {
		return
	}
	if err := m.dev.Reader.WriteValue(m.selection); err != nil {
		m.cardFailed(err)
		m.dev.Presenter.WriteResult(false)
		return
	}
	m.emit(EventCardWritten, m.selection, 0)
	m.dev.Presenter.WriteResult(true)
}

func (m *Machine) runSetCombo() {
	if !m.readCard() {
		return
	}
	m.dev.Presenter.ProgressAdvanced(m.entered.Len(), m.combo.Len())
	// The card count stays whatever was last saved; only values change
	if m.entered.Len() < m.combo.Len() {
		return
	}

	m.combo = m.entered
	if err := m.store.Save(&m.combo); err != nil {
		DebugPrintln("combo: save failed: " + err.Error())
		m.emit(EventSaveFailed, uint8(m.combo.Len()), 0)
	} else {
		m.emit(EventComboSaved, uint8(m.combo.Len()), 0)
	}
	m.dev.Presenter.ComboSaved()
	m.setMode(ModePuzzle)
}

func (m *Machine) emit(kind EventKind, a, b uint8) {
	ev := Event{Clock: GetTime(), Kind: kind, Mode: m.mode, A: a, B: b}
	RecordEvent(ev)
	if IsDebugEnabled() {
		DebugPrintln(FormatEvent(ev))
	}
	if m.observer != nil {
		m.observer.Observe(ev)
	}
}

// Mode returns the active mode
func (m *Machine) Mode() Mode {
	return m.mode
}

// Selection returns the value Program mode writes next
func (m *Machine) Selection() uint8 {
	return m.selection
}

// Combination returns a copy of the current combination
func (m *Machine) Combination() []uint8 {
	return m.combo.Values()
}

// Entered returns a copy of the cards entered so far
func (m *Machine) Entered() []uint8 {
	return m.entered.Values()
}

// Config returns the effective configuration
func (m *Machine) Config() Config {
	return m.cfg
}

// State returns a reporting snapshot
func (m *Machine) State() State {
	return State{
		Mode:      m.mode,
		Selection: m.selection,
		Entered:   uint8(m.entered.Len()),
		Length:    uint8(m.combo.Len()),
		Present:   m.dispatcher.Present(),
	}
}
