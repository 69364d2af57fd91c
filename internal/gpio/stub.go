//go:build !linux

package gpio

import "errors"

// RealLine is not available on non-Linux platforms.
type RealLine struct{}

// NewRealLine returns an error on non-Linux platforms.
func NewRealLine(chipName string, offset int) (*RealLine, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Value is not implemented on non-Linux platforms.
func (l *RealLine) Value() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// SetHandler is not implemented on non-Linux platforms.
func (l *RealLine) SetHandler(h EventHandler) {}

// Close is not implemented on non-Linux platforms.
func (l *RealLine) Close() error {
	return nil
}
