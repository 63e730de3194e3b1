//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/ap-led/internal/logic"
)

// RealPanel drives actual hardware through the Linux GPIO character device.
// The actuator lines carry the raw pattern bits unmodified; the indicator
// LED is wired active-low, so a logical "lit" drives its line low.
type RealPanel struct {
	chip      *gpiocdev.Chip
	leds      *gpiocdev.Lines
	indicator *gpiocdev.Line
}

// NewRealPanel requests the three actuator lines and the indicator line as
// outputs. Initial state is pattern 0b111 and indicator off: with
// active-low wiring, every LED dark.
func NewRealPanel(pin1, pin2, pin3, pinIndicator int) (*RealPanel, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	leds, err := chip.RequestLines([]int{pin1, pin2, pin3}, gpiocdev.AsOutput(1, 1, 1))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request LED lines %d,%d,%d: %w", pin1, pin2, pin3, err)
	}

	indicator, err := chip.RequestLine(pinIndicator, gpiocdev.AsOutput(1))
	if err != nil {
		leds.Close()
		chip.Close()
		return nil, fmt.Errorf("request indicator line %d: %w", pinIndicator, err)
	}

	return &RealPanel{chip: chip, leds: leds, indicator: indicator}, nil
}

// SetPattern writes the pattern bits to the three lines in a single kernel
// call, so the group changes together and no other line is touched.
func (p *RealPanel) SetPattern(pat logic.Pattern) error {
	values := []int{
		int(pat) & 1,
		int(pat) >> 1 & 1,
		int(pat) >> 2 & 1,
	}
	if err := p.leds.SetValues(values); err != nil {
		return fmt.Errorf("write pattern %03b: %w", pat, err)
	}
	return nil
}

// SetIndicator drives the status LED. Active-low: lit means line low.
func (p *RealPanel) SetIndicator(on bool) error {
	v := 1
	if on {
		v = 0
	}
	if err := p.indicator.SetValue(v); err != nil {
		return fmt.Errorf("write indicator: %w", err)
	}
	return nil
}

// Close parks every line high (all LEDs dark) before releasing GPIO
// resources, so a restart never inherits a half-lit panel.
func (p *RealPanel) Close() error {
	var errs []error

	if p.leds != nil {
		if err := p.leds.SetValues([]int{1, 1, 1}); err != nil {
			errs = append(errs, fmt.Errorf("park LED lines: %w", err))
		}
		if err := p.leds.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close LED lines: %w", err))
		}
	}
	if p.indicator != nil {
		if err := p.indicator.SetValue(1); err != nil {
			errs = append(errs, fmt.Errorf("park indicator: %w", err))
		}
		if err := p.indicator.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close indicator: %w", err))
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
