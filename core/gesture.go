package core

// Gesture is a classified button interaction
type Gesture uint8

const (
	GestureNone       Gesture = iota // no release this tick
	GestureNoOp                      // release after a bounce-length press
	GestureShortPress                // selects Program from Puzzle
	GestureLongHold                  // selects SetCombo
)

func (g Gesture) String() string {
	switch g {
	case GestureNone:
		return "none"
	case GestureNoOp:
		return "noop"
	case GestureShortPress:
		return "short"
	case GestureLongHold:
		return "long"
	default:
		return "unknown"
	}
}

// Classify maps a completed press duration to a gesture
func Classify(duration uint32, cfg *Config) Gesture {
	switch {
	case duration < cfg.ShortPressMin:
		return GestureNoOp
	case duration < cfg.LongHoldMin:
		return GestureShortPress
	default:
		return GestureLongHold
	}
}

// GestureClassifier turns sampled button levels into gestures. It reports
// only on the release edge; a hold that crosses LongHoldMin does nothing
// until the button is let go.
type GestureClassifier struct {
	cfg       *Config
	pressed   bool
	pressedAt uint32
}

// NewGestureClassifier creates a classifier with the button released
func NewGestureClassifier(cfg *Config) *GestureClassifier {
	return &GestureClassifier{cfg: cfg}
}

// Update feeds one button sample taken at now
func (c *GestureClassifier) Update(pressed bool, now uint32) Gesture {
	switch {
	case pressed && !c.pressed:
		c.pressed = true
		c.pressedAt = now
	case !pressed && c.pressed:
		c.pressed = false
		return Classify(Elapsed(c.pressedAt, now), c.cfg)
	}
	return GestureNone
}

// Held reports whether a press is in progress
func (c *GestureClassifier) Held() bool {
	return c.pressed
}

// EdgeDetector reports press edges for the Program mode increment. It is
// independent of the classifier so that both can watch the same button.
type EdgeDetector struct {
	last bool
}

// Sync records the current level without reporting an edge
func (e *EdgeDetector) Sync(pressed bool) {
	e.last = pressed
}

// Rising returns true when the button went from released to pressed
func (e *EdgeDetector) Rising(pressed bool) bool {
	rising := pressed && !e.last
	e.last = pressed
	return rising
}
