package reader

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var errBadStatus = errors.New("tag: bad status")

// scriptedTag fails the first failures calls of the configured kind
type scriptedTag struct {
	present  bool
	uid      []byte
	block    [BlockSize]byte
	authErrs []error
	opErrs   []error

	detects  int
	halts    int
	timeouts []uint32
}

func (s *scriptedTag) Detect() bool         { s.detects++; return s.present }
func (s *scriptedTag) UID() []byte          { return s.uid }
func (s *scriptedTag) SetTimeout(ms uint32) { s.timeouts = append(s.timeouts, ms) }
func (s *scriptedTag) Halt()                { s.halts++ }

func (s *scriptedTag) next(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (s *scriptedTag) Authenticate(block uint8) error {
	return s.next(&s.authErrs)
}

func (s *scriptedTag) ReadBlock(block uint8, buf []byte) error {
	if err := s.next(&s.opErrs); err != nil {
		return err
	}
	copy(buf, s.block[:])
	return nil
}

func (s *scriptedTag) WriteBlock(block uint8, data []byte) error {
	if err := s.next(&s.opErrs); err != nil {
		return err
	}
	copy(s.block[:], data)
	return nil
}

func TestPresentRemembersIdentity(t *testing.T) {
	tag := &scriptedTag{present: true, uid: []byte{1, 2, 3, 4}}
	r := New(tag, Config{})

	if !r.Present() {
		t.Fatal("Expected card present")
	}
	tag.uid = []byte{9, 9, 9, 9}
	if diff := cmp.Diff([]byte{1, 2, 3, 4}, r.Identity()); diff != "" {
		t.Errorf("Identity mismatch (-want +got):\n%s", diff)
	}
}

func TestReadValue(t *testing.T) {
	tag := &scriptedTag{present: true, block: [BlockSize]byte{7}}
	r := New(tag, Config{})
	r.Present()

	v, err := r.ReadValue()
	if err != nil || v != 7 {
		t.Fatalf("ReadValue = %d, %v", v, err)
	}
	if tag.halts != 1 {
		t.Errorf("Expected card halted after the read, halts=%d", tag.halts)
	}
	// Present bound, then authenticate and read bounds
	if diff := cmp.Diff([]uint32{500, 500, 500}, tag.timeouts); diff != "" {
		t.Errorf("Timeouts mismatch (-want +got):\n%s", diff)
	}
}

func TestReadValueRetries(t *testing.T) {
	tag := &scriptedTag{
		present:  true,
		block:    [BlockSize]byte{4},
		authErrs: []error{errBadStatus},
		opErrs:   []error{ErrTimeout},
	}
	r := New(tag, Config{})
	r.Present()

	v, err := r.ReadValue()
	if err != nil || v != 4 {
		t.Fatalf("ReadValue = %d, %v", v, err)
	}
	// One detect from Present, then a reselect before each retry
	if tag.detects != 3 {
		t.Errorf("Expected 3 detects, got %d", tag.detects)
	}
}

func TestReadValueGivesUp(t *testing.T) {
	testCases := []struct {
		name string
		errs []error
		want error
	}{
		{"timeouts", []error{ErrTimeout, ErrTimeout, ErrTimeout}, ErrTimeout},
		{"bad status", []error{ErrTimeout, ErrTimeout, errBadStatus}, ErrProtocol},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tag := &scriptedTag{present: true, opErrs: tc.errs}
			r := New(tag, Config{})
			r.Present()

			if _, err := r.ReadValue(); err != tc.want {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
			if tag.halts != 3 {
				t.Errorf("Expected 3 attempts, got %d", tag.halts)
			}
		})
	}
}

func TestReadValueCardGone(t *testing.T) {
	tag := &scriptedTag{}
	r := New(tag, Config{Attempts: 2})

	if _, err := r.ReadValue(); err != ErrTimeout {
		t.Errorf("Expected ErrTimeout, got %v", err)
	}
	if tag.detects != 2 {
		t.Errorf("Expected 2 detect attempts, got %d", tag.detects)
	}
}

func TestWriteValuePadsBlock(t *testing.T) {
	tag := &scriptedTag{present: true}
	for i := range tag.block {
		tag.block[i] = 0xEE
	}
	r := New(tag, Config{})
	r.Present()

	if err := r.WriteValue(5); err != nil {
		t.Fatalf("WriteValue: %v", err)
	}
	if tag.block != [BlockSize]byte{5} {
		t.Errorf("Expected {5, 0...}, got %v", tag.block)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{Attempts: -1}
	applyDefaults(&cfg)
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("Defaults mismatch (-want +got):\n%s", diff)
	}
}
