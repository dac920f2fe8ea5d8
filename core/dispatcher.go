package core

// CardDispatcher emits one new-card event per physical placement.
//
// Readers report presence on every poll while a card rests on them, and
// cheap antennas drop out for a poll now and then. An event fires on the
// absent->present edge only when the card differs from the previous
// placement. The remembered card is forgotten once absence has lasted
// RemovalSettle (immediately when zero), so lifting a card and putting it
// back counts again. A nonzero settle rides out antenna dropouts.
type CardDispatcher struct {
	reader CardReader
	cfg    *Config

	present     bool
	last        CardIdentity
	hasLast     bool
	absentSince uint32

	polled   bool
	lastPoll uint32
}

// NewCardDispatcher creates a dispatcher with no card on the reader
func NewCardDispatcher(reader CardReader, cfg *Config) *CardDispatcher {
	return &CardDispatcher{reader: reader, cfg: cfg}
}

// Poll samples the reader if the poll interval has passed. It returns the
// card identity and true when a new placement was detected.
func (d *CardDispatcher) Poll(now uint32) (CardIdentity, bool) {
	if d.polled && Elapsed(d.lastPoll, now) < d.cfg.PollInterval {
		return CardIdentity{}, false
	}
	d.polled = true
	d.lastPoll = now

	if !d.reader.Present() {
		if d.present {
			d.present = false
			d.absentSince = now
		}
		if d.hasLast && Elapsed(d.absentSince, now) >= d.cfg.RemovalSettle {
			d.hasLast = false
			d.last = CardIdentity{}
		}
		return CardIdentity{}, false
	}

	if d.present {
		return CardIdentity{}, false
	}
	d.present = true

	id := NewCardIdentity(d.reader.Identity())
	if d.hasLast && id.Equal(d.last) {
		return CardIdentity{}, false
	}
	d.last = id
	d.hasLast = true
	return id, true
}

// Present reports whether a card was on the reader at the last poll
func (d *CardDispatcher) Present() bool {
	return d.present
}
