package core

import "testing"

func TestCardDispatcherSingleEventPerPlacement(t *testing.T) {
	cfg := DefaultConfig()
	reader := &fakeReader{}
	d := NewCardDispatcher(reader, &cfg)

	if _, ok := d.Poll(0); ok {
		t.Error("Empty reader should not report a card")
	}

	reader.place(1, 0)
	id, ok := d.Poll(20)
	if !ok {
		t.Fatal("Expected new card")
	}
	if id.Len() != 4 || id.Bytes()[1] != 1 {
		t.Errorf("Unexpected identity %v", id.Bytes())
	}
	for now := uint32(40); now < 400; now += 20 {
		if _, ok := d.Poll(now); ok {
			t.Fatalf("Resting card reported again at %d", now)
		}
	}
	if !d.Present() {
		t.Error("Expected card present")
	}
}

func TestCardDispatcherPollInterval(t *testing.T) {
	cfg := DefaultConfig()
	reader := &fakeReader{}
	d := NewCardDispatcher(reader, &cfg)

	d.Poll(0)
	reader.place(1, 0)
	if _, ok := d.Poll(10); ok {
		t.Error("Poll inside the interval should not sample the reader")
	}
	if _, ok := d.Poll(20); !ok {
		t.Error("Expected card once the interval passed")
	}
}

func TestCardDispatcherDifferentCardDuringDropout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RemovalSettle = 100
	reader := &fakeReader{}
	d := NewCardDispatcher(reader, &cfg)

	reader.place(1, 0)
	d.Poll(0)
	reader.remove()
	d.Poll(20)

	// A different card counts at once, before the settle time
	reader.place(2, 0)
	if _, ok := d.Poll(40); !ok {
		t.Error("Different card should be reported immediately")
	}
}

func TestCardDispatcherForgetsOnRemoval(t *testing.T) {
	cfg := DefaultConfig()
	reader := &fakeReader{}
	d := NewCardDispatcher(reader, &cfg)

	card := reader.place(1, 0)
	d.Poll(0)
	reader.remove()
	d.Poll(20)
	reader.card = card
	if _, ok := d.Poll(40); !ok {
		t.Error("Removal should forget the card at once")
	}
}

func TestCardIdentityTruncates(t *testing.T) {
	uid := make([]byte, MaxIdentityLen+4)
	for i := range uid {
		uid[i] = byte(i)
	}
	id := NewCardIdentity(uid)
	if id.Len() != MaxIdentityLen {
		t.Errorf("Expected %d bytes, got %d", MaxIdentityLen, id.Len())
	}
	if !id.Equal(NewCardIdentity(uid[:MaxIdentityLen])) {
		t.Error("Truncated identities should compare equal")
	}
	if id.Equal(NewCardIdentity(uid[:4])) {
		t.Error("Different lengths should not compare equal")
	}
}

func TestCardDispatcherSettleRidesOutDropout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RemovalSettle = 100
	reader := &fakeReader{}
	d := NewCardDispatcher(reader, &cfg)

	card := reader.place(1, 0)
	d.Poll(0)
	reader.remove()
	d.Poll(20)
	d.Poll(40)
	reader.card = card
	if _, ok := d.Poll(60); ok {
		t.Error("Same card back within the settle time should not count")
	}

	reader.remove()
	d.Poll(80)
	d.Poll(180)
	reader.card = card
	if _, ok := d.Poll(200); !ok {
		t.Error("Same card after the settle time should count")
	}
}
