// Package gpio drives the actuator and indicator LED lines with hardware
// abstraction. The real implementation uses the Linux GPIO character
// device; the fake records writes for tests.
package gpio

import "github.com/sweeney/ap-led/internal/logic"

// Panel drives the LED output lines.
type Panel interface {
	// SetPattern writes the raw 3-bit actuator pattern to the three LED
	// lines as one group operation. Only the designated lines change.
	SetPattern(p logic.Pattern) error

	// SetIndicator drives the status LED: true means lit.
	SetIndicator(on bool) error

	// Close releases GPIO resources.
	Close() error
}

// Default line offsets (BCM numbering).
const (
	DefaultPinLED1      = 12
	DefaultPinLED2      = 13
	DefaultPinLED3      = 14
	DefaultPinIndicator = 26
)
