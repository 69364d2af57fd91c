// Package inputbus defines the generic input-event bus that confirmed button
// state changes are reported to, mirroring the kernel input layer's
// report-then-sync contract: one key report plus one sync per confirmed
// transition, delivered as a single logical unit.
package inputbus

// Key identifies the logical key a report refers to.
type Key uint16

// KeyEnter is the key the flagship button is mapped to
// (Linux input keycode 28).
const KeyEnter Key = 28

// Bus receives synthesized input reports. Implementations must tolerate
// being called from the settle-pass goroutine.
type Bus interface {
	// ReportKey reports one key state change. pressed follows the logical
	// button state, not the electrical level.
	ReportKey(code Key, pressed bool) error

	// Sync marks the end of one atomic report.
	Sync() error
}
