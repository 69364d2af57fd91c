package gpio

import (
	"errors"
	"sync"
)

// FakeLine is a test double with a settable level and manually injected
// edges.
type FakeLine struct {
	mu      sync.Mutex
	level   bool
	handler EventHandler
	closed  bool
	reads   int

	// ReadError, if set, will be returned by Value()
	ReadError error
}

// NewFakeLine creates a FakeLine at the given initial level.
// Remember the wiring is active low: level true means released.
func NewFakeLine(level bool) *FakeLine {
	return &FakeLine{level: level}
}

// Value returns the current scripted level.
func (f *FakeLine) Value() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if f.closed {
		return false, errors.New("fake line closed")
	}
	f.reads++
	return f.level, nil
}

// SetLevel changes the level subsequent Value calls observe. It does not
// inject an edge by itself; pair it with Edge to mimic a real transition.
func (f *FakeLine) SetLevel(level bool) {
	f.mu.Lock()
	f.level = level
	f.mu.Unlock()
}

// Edge invokes the installed handler, simulating one raw hardware
// transition. Edges with no handler installed are discarded, as on real
// hardware before registration.
func (f *FakeLine) Edge() {
	f.mu.Lock()
	h := f.handler
	closed := f.closed
	f.mu.Unlock()
	if h != nil && !closed {
		h()
	}
}

// Bounce injects n rapid edges, simulating contact bounce.
func (f *FakeLine) Bounce(n int) {
	for i := 0; i < n; i++ {
		f.Edge()
	}
}

// SetHandler installs the transition handler.
func (f *FakeLine) SetHandler(h EventHandler) {
	f.mu.Lock()
	f.handler = h
	f.mu.Unlock()
}

// Reads returns how many times Value was called.
func (f *FakeLine) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Closed reports whether Close was called.
func (f *FakeLine) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Close marks the line as closed and drops the handler.
func (f *FakeLine) Close() error {
	f.mu.Lock()
	f.closed = true
	f.handler = nil
	f.mu.Unlock()
	return nil
}
