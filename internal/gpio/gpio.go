// Package gpio provides the button line binding with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// EventHandler is invoked from the line's edge-detection context on every raw
// transition, bounces included. Handlers must not block.
type EventHandler func()

// Line is a single requested GPIO input line.
type Line interface {
	// Value returns the current raw level of the line. It may block.
	// The button is wired active low: true (high) means released.
	Value() (bool, error)

	// SetHandler installs the transition handler. Edges detected before a
	// handler is installed are discarded. A nil handler stops intake.
	SetHandler(h EventHandler)

	// Close releases the line. No handler is invoked after Close returns.
	Close() error
}

// Default binding for the flagship button (BCM numbering).
const (
	DefaultChip = "gpiochip0"
	DefaultLine = 27
)
