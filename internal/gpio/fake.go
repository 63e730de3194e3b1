package gpio

import "github.com/sweeney/ap-led/internal/logic"

// FakePanel is a test double that records every write.
type FakePanel struct {
	// Patterns contains every actuator pattern written, in order.
	Patterns []logic.Pattern

	// Indicator contains every indicator value written, in order.
	Indicator []bool

	// Closed tracks if Close was called.
	Closed bool

	// WriteError, if set, is returned by SetPattern and SetIndicator.
	WriteError error
}

// NewFakePanel creates an empty FakePanel.
func NewFakePanel() *FakePanel {
	return &FakePanel{}
}

// SetPattern records the pattern.
func (f *FakePanel) SetPattern(p logic.Pattern) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Patterns = append(f.Patterns, p)
	return nil
}

// SetIndicator records the indicator value.
func (f *FakePanel) SetIndicator(on bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Indicator = append(f.Indicator, on)
	return nil
}

// LastPattern returns the most recent pattern write.
// ok is false when no pattern has been written yet.
func (f *FakePanel) LastPattern() (logic.Pattern, bool) {
	if len(f.Patterns) == 0 {
		return 0, false
	}
	return f.Patterns[len(f.Patterns)-1], true
}

// LastIndicator returns the most recent indicator write.
// ok is false when no indicator value has been written yet.
func (f *FakePanel) LastIndicator() (bool, bool) {
	if len(f.Indicator) == 0 {
		return false, false
	}
	return f.Indicator[len(f.Indicator)-1], true
}

// Close marks the panel as closed.
func (f *FakePanel) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded writes.
func (f *FakePanel) Reset() {
	f.Patterns = nil
	f.Indicator = nil
	f.Closed = false
	f.WriteError = nil
}
