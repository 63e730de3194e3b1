//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/ap-led/internal/logic"
)

// RealPanel is not available on non-Linux platforms.
type RealPanel struct{}

// NewRealPanel returns an error on non-Linux platforms.
func NewRealPanel(pin1, pin2, pin3, pinIndicator int) (*RealPanel, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// SetPattern is not implemented on non-Linux platforms.
func (p *RealPanel) SetPattern(logic.Pattern) error {
	return errors.New("gpio: not supported")
}

// SetIndicator is not implemented on non-Linux platforms.
func (p *RealPanel) SetIndicator(bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (p *RealPanel) Close() error { return nil }
