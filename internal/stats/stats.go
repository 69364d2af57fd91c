// Package stats holds the observability counters for the button pipeline and
// a thread-safe status tracker read by HTTP handlers and heartbeat events.
package stats

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Counters are the four advisory counters of the pipeline. Each is
// independently atomic and monotonic for the lifetime of the binding, so they
// can be updated from the edge-intake, settle and consumer contexts without
// locking and read at any time by attribute queries.
type Counters struct {
	// RawTransitions counts every edge delivered by the hardware line,
	// bounces included.
	RawTransitions atomic.Int64

	// SettlePasses counts debounce settle passes, whether or not the level
	// changed.
	SettlePasses atomic.Int64

	// Presses counts confirmed state changes (both presses and releases).
	Presses atomic.Int64

	// LastEventNanos is the unix-nanosecond timestamp of the most recent
	// confirmed state change. Zero until the first event.
	LastEventNanos atomic.Int64
}

// CounterSnapshot is a point-in-time copy of the counter values.
type CounterSnapshot struct {
	RawTransitions int64
	SettlePasses   int64
	Presses        int64
	LastEventNanos int64
}

// Snapshot reads all four counters. The reads are individually atomic, not a
// single consistent cut; the counters are advisory only.
func (c *Counters) Snapshot() CounterSnapshot {
	return CounterSnapshot{
		RawTransitions: c.RawTransitions.Load(),
		SettlePasses:   c.SettlePasses.Load(),
		Presses:        c.Presses.Load(),
		LastEventNanos: c.LastEventNanos.Load(),
	}
}

// Config contains daemon configuration for display.
type Config struct {
	Chip        string
	Line        int
	QuietMs     int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Pressed       bool
	Counters      CounterSnapshot
	MailboxDrops  int64
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker composes daemon status from the counters and a pair of state
// getters, plus mutable connectivity state behind an RWMutex.
type Tracker struct {
	startTime time.Time
	cfg       Config
	counters  *Counters
	pressed   func() bool
	drops     func() int64

	mu            sync.RWMutex
	mqttConnected bool
}

// NewTracker creates a Tracker. pressed reports the current debounced button
// state and drops the mailbox overwrite count; both must be safe to call from
// any goroutine.
func NewTracker(startTime time.Time, cfg Config, counters *Counters, pressed func() bool, drops func() int64) *Tracker {
	return &Tracker{
		startTime: startTime,
		cfg:       cfg,
		counters:  counters,
		pressed:   pressed,
		drops:     drops,
	}
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.mqttConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	mqtt := t.mqttConnected
	t.mu.RUnlock()
	return Snapshot{
		Pressed:       t.pressed(),
		Counters:      t.counters.Snapshot(),
		MailboxDrops:  t.drops(),
		StartTime:     t.startTime,
		Now:           time.Now(),
		MQTTConnected: mqtt,
		Config:        t.cfg,
	}
}
