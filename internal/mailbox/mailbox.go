// Package mailbox implements the single-slot event buffer shared between the
// settle pass and blocking consumers.
//
// The mailbox holds at most one unread event. A newer event overwrites an
// older unread one: lossy latest-wins, by contract. Overwrites are counted
// so saturation is visible without being an error.
package mailbox

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/atomic"
)

// MaxMessage is the fixed capacity of the event slot. Published messages are
// truncated to this length, never overflowed.
const MaxMessage = 256

var (
	// ErrInterrupted is returned when a blocked Take is cancelled via its
	// context. It is retryable: the unread event, if any, is preserved.
	ErrInterrupted = errors.New("mailbox: wait interrupted")

	// ErrClosed is returned once the mailbox has been closed. Blocked
	// takers are woken and receive it rather than being left stuck.
	ErrClosed = errors.New("mailbox: closed")
)

// Mailbox is safe for any number of concurrent publishers and takers,
// although in this pipeline the settle pass is the only producer.
type Mailbox struct {
	mu     sync.Mutex
	buf    [MaxMessage]byte
	n      int
	unread bool
	closed bool

	// notify is closed and replaced on every publish and on Close. Waiters
	// hold the old channel, so a close wakes all of them at once; each must
	// re-check unread under the lock because the wake carries no payload.
	notify chan struct{}

	drops atomic.Int64
}

// New creates an empty mailbox.
func New() *Mailbox {
	return &Mailbox{notify: make(chan struct{})}
}

// Publish overwrites the slot with msg (truncated to MaxMessage bytes),
// marks it unread, and wakes every waiter whether or not any are blocked.
// Replacing a still-unread event is counted as a drop. Publishing to a
// closed mailbox is a no-op.
func (m *Mailbox) Publish(msg []byte) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.unread {
		m.drops.Inc()
	}
	m.n = copy(m.buf[:], msg)
	m.unread = true
	ch := m.notify
	m.notify = make(chan struct{})
	m.mu.Unlock()

	close(ch)
}

// Take blocks until an unread event is available, then copies it out, clears
// the unread flag, and returns the copy. The result holds at most max bytes;
// a message longer than max is truncated, a shorter one yields a short
// result.
//
// The lock is held only for the copy into the returned buffer, never across
// the hand-off to the caller. Cancellation of ctx returns ErrInterrupted and
// leaves the event unread for the next attempt. Once the mailbox is closed
// Take returns ErrClosed.
func (m *Mailbox) Take(ctx context.Context, max int) ([]byte, error) {
	for {
		m.mu.Lock()
		if m.unread {
			n := m.n
			if max < n {
				n = max
			}
			out := make([]byte, n)
			copy(out, m.buf[:n])
			m.unread = false
			m.mu.Unlock()
			return out, nil
		}
		if m.closed {
			m.mu.Unlock()
			return nil, ErrClosed
		}
		wait := m.notify
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ErrInterrupted
		case <-wait:
			// Woken; the event may already have been consumed by another
			// taker, so loop and re-check under the lock.
		}
	}
}

// HasUnread reports whether an event is waiting to be consumed.
func (m *Mailbox) HasUnread() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unread
}

// Drops returns the number of unread events that were overwritten by a newer
// publish.
func (m *Mailbox) Drops() int64 {
	return m.drops.Load()
}

// Close marks the mailbox closed and wakes every blocked taker. Subsequent
// publishes are dropped and subsequent takes return ErrClosed. Close is
// idempotent.
func (m *Mailbox) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	ch := m.notify
	m.notify = make(chan struct{})
	m.mu.Unlock()

	close(ch)
}
