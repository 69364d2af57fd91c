// Package button implements the debounce engine: a fast intake path reacting
// to raw line transitions and a deferred settle pass that decides whether a
// confirmed press or release occurred.
//
// Intake never interprets the line, which may still be bouncing at that point.
// It only (re)arms a settle timer for the quiet interval. When the interval
// elapses with no further transitions, the settle pass reads the now-stable
// level and, if it differs from the last accepted level, commits exactly one
// event: counters, mailbox message, and one key report plus sync on the
// input bus.
package button

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chun/bbb-button/internal/inputbus"
	"github.com/chun/bbb-button/internal/mailbox"
	"github.com/chun/bbb-button/internal/stats"
)

// DefaultQuiet is the settle interval used when none is configured.
const DefaultQuiet = 20 * time.Millisecond

// LevelReader reads the current line level. Reads may block.
type LevelReader interface {
	Value() (bool, error)
}

// Debouncer owns the line state for one monitored button.
//
// Line state and counters are one exclusion scope (the Debouncer mutex and
// the atomic counters); the mailbox has its own. The mutex is only ever held
// for short non-blocking sections, so intake is safe from the line's
// edge-detection context.
type Debouncer struct {
	quiet    time.Duration
	line     LevelReader
	box      *mailbox.Mailbox
	bus      inputbus.Bus
	counters *stats.Counters
	log      *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	done      *sync.Cond // signalled when a settle pass finishes
	timer     *time.Timer
	armed     bool
	settling  bool
	closed    bool
	lastLevel bool // last accepted (settled) level
}

// New creates a Debouncer and establishes the initial accepted level with one
// blocking read of the line. quiet <= 0 selects DefaultQuiet.
func New(line LevelReader, box *mailbox.Mailbox, bus inputbus.Bus, counters *stats.Counters, quiet time.Duration, log *zap.Logger) (*Debouncer, error) {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	level, err := line.Value()
	if err != nil {
		return nil, fmt.Errorf("read initial level: %w", err)
	}

	d := &Debouncer{
		quiet:     quiet,
		line:      line,
		box:       box,
		bus:       bus,
		counters:  counters,
		log:       log,
		now:       time.Now,
		lastLevel: level,
	}
	d.done = sync.NewCond(&d.mu)
	return d, nil
}

// OnRawTransition is called from the line's edge-detection context on every
// raw transition. It never blocks and is safe to call concurrently with
// itself, since transitions can outrun processing. Each call cancels any armed
// settle timer and arms a fresh one, so a burst collapses into a single
// settle pass after the quiet interval. A rearm that lands while a settle
// pass is already executing schedules its own later pass; it is never
// dropped.
func (d *Debouncer) OnRawTransition() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.counters.RawTransitions.Inc()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, d.runSettlePass)
	d.armed = true
	d.mu.Unlock()
}

// runSettlePass runs once the quiet interval elapses with no further rearm.
// Settle passes for the line are serialized: if one is already executing,
// the next waits rather than running concurrently or being discarded.
func (d *Debouncer) runSettlePass() {
	d.mu.Lock()
	for d.settling && !d.closed {
		d.done.Wait()
	}
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.settling = true
	d.armed = false
	d.mu.Unlock()

	d.settle()

	d.mu.Lock()
	d.settling = false
	d.done.Broadcast()
	d.mu.Unlock()
}

// settle reads the stable level and commits a confirmed event if it changed.
func (d *Debouncer) settle() {
	d.counters.SettlePasses.Inc()

	level, err := d.line.Value() // may block; the intake path stays open meanwhile
	if err != nil {
		d.log.Warn("settle pass: level read failed", zap.Error(err))
		return
	}
	now := d.now()

	d.mu.Lock()
	if level == d.lastLevel {
		// Same outcome as before the burst: bounce noise or a false
		// trigger. Nothing to report.
		d.mu.Unlock()
		return
	}
	d.lastLevel = level
	d.mu.Unlock()

	pressed := !level // active low
	count := d.counters.Presses.Inc()
	d.counters.LastEventNanos.Store(now.UnixNano())

	d.box.Publish(FormatEvent(pressed, count, now))

	if err := d.bus.ReportKey(inputbus.KeyEnter, pressed); err != nil {
		d.log.Warn("input bus report failed", zap.Error(err))
	} else if err := d.bus.Sync(); err != nil {
		d.log.Warn("input bus sync failed", zap.Error(err))
	}

	d.log.Debug("confirmed transition",
		zap.Bool("pressed", pressed),
		zap.Int64("count", count),
	)
}

// Pressed returns the logical button state derived from the last accepted
// level.
func (d *Debouncer) Pressed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.lastLevel
}

// Armed reports whether a settle pass is currently scheduled.
func (d *Debouncer) Armed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

// Close stops intake, cancels any armed settle timer, and blocks until any
// in-flight settle pass has finished. After Close returns the engine is
// quiescent: no counter update, publish, or bus report will follow.
// Close is idempotent.
func (d *Debouncer) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.armed = false
	for d.settling {
		d.done.Wait()
	}
	// Wake any settle pass queued behind the one that just finished so it
	// can observe closed and bail.
	d.done.Broadcast()
	d.mu.Unlock()
}

// FormatEvent renders the consumer-visible event message: direction, the
// confirmed event count, and a unix-nanosecond timestamp, newline-terminated.
// The mailbox truncates anything beyond its fixed capacity.
func FormatEvent(pressed bool, count int64, t time.Time) []byte {
	dir := "released"
	if pressed {
		dir = "pressed"
	}
	return []byte(fmt.Sprintf("button %s: count=%d time=%d\n", dir, count, t.UnixNano()))
}
