package inputbus

import "sync"

// Report is one recorded ReportKey call.
type Report struct {
	Code    Key
	Pressed bool
}

// Fake records reports and syncs for test assertions. Safe for concurrent
// use: the settle pass writes while tests read.
type Fake struct {
	mu      sync.Mutex
	reports []Report
	syncs   int

	// ReportError, if set, will be returned by ReportKey.
	ReportError error

	// SyncError, if set, will be returned by Sync.
	SyncError error
}

// NewFake creates a Fake for testing.
func NewFake() *Fake {
	return &Fake{}
}

// ReportKey records the report.
func (f *Fake) ReportKey(code Key, pressed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReportError != nil {
		return f.ReportError
	}
	f.reports = append(f.reports, Report{Code: code, Pressed: pressed})
	return nil
}

// Sync records the sync.
func (f *Fake) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SyncError != nil {
		return f.SyncError
	}
	f.syncs++
	return nil
}

// Reports returns a copy of the recorded reports.
func (f *Fake) Reports() []Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Report, len(f.reports))
	copy(out, f.reports)
	return out
}

// Syncs returns the number of recorded syncs.
func (f *Fake) Syncs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.syncs
}

// Reset clears recorded reports and syncs.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = nil
	f.syncs = 0
	f.ReportError = nil
	f.SyncError = nil
}
