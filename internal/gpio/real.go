//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// RealLine reads the button from actual hardware using the Linux GPIO
// character device, with both-edge event detection.
type RealLine struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line

	mu      sync.Mutex
	handler EventHandler
}

// NewRealLine requests offset on the named chip as an input with pull-up and
// both-edge events. The line is requested without a handler; install one with
// SetHandler once the rest of the pipeline is wired.
func NewRealLine(chipName string, offset int) (*RealLine, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	l := &RealLine{chip: chip}

	// Pull-up to match the button wiring: the line idles high and is pulled
	// low when pressed.
	line, err := chip.RequestLine(offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(l.onEvent),
	)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button line %d: %w", offset, err)
	}
	l.line = line

	return l, nil
}

func (l *RealLine) onEvent(gpiocdev.LineEvent) {
	// The handler is called under the lock so Close can guarantee no
	// invocation survives it. Handlers are non-blocking by contract.
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handler != nil {
		l.handler()
	}
}

// Value returns the current raw level of the line.
func (l *RealLine) Value() (bool, error) {
	v, err := l.line.Value()
	if err != nil {
		return false, fmt.Errorf("read button line: %w", err)
	}
	return v != 0, nil
}

// SetHandler installs the transition handler.
func (l *RealLine) SetHandler(h EventHandler) {
	l.mu.Lock()
	l.handler = h
	l.mu.Unlock()
}

// Close stops intake and releases the line. The line is reconfigured to a
// plain input before release so no edge detection outlives the daemon.
func (l *RealLine) Close() error {
	// Drop the handler first; this waits out any in-flight invocation.
	l.mu.Lock()
	l.handler = nil
	l.mu.Unlock()

	var errs []error
	if l.line != nil {
		if err := l.line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line: %w", err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
