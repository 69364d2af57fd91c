// Package device exposes the consumer-facing blocking read interface over
// the event mailbox. Any number of consumers may be open at once; each read
// returns at most one formatted event message.
package device

import (
	"context"

	"go.uber.org/zap"

	"github.com/chun/bbb-button/internal/mailbox"
)

// Device hands out consumers bound to one mailbox.
type Device struct {
	box *mailbox.Mailbox
	log *zap.Logger
}

// New creates a Device over the given mailbox.
func New(box *mailbox.Mailbox, log *zap.Logger) *Device {
	return &Device{box: box, log: log}
}

// Open binds a new consumer to the mailbox. Consumers are independent and
// carry no state beyond the binding.
func (d *Device) Open() *Consumer {
	d.log.Info("button device opened")
	return &Consumer{dev: d}
}

// Consumer is one reader of the event stream.
type Consumer struct {
	dev *Device
}

// Read blocks until an event is available and copies it into p, returning
// the number of bytes copied. If p is smaller than the event message the
// message is truncated to len(p); if larger, the read is short.
//
// Cancellation of ctx surfaces as mailbox.ErrInterrupted, a retryable
// condition, not data loss: the event stays unread for the next attempt.
// Once the mailbox is torn down Read returns mailbox.ErrClosed instead of
// blocking forever.
func (c *Consumer) Read(ctx context.Context, p []byte) (int, error) {
	msg, err := c.dev.box.Take(ctx, len(p))
	if err != nil {
		return 0, err
	}
	return copy(p, msg), nil
}

// Close releases the consumer. Any registered interest in the mailbox is
// implicit, so there is nothing to undo.
func (c *Consumer) Close() error {
	c.dev.log.Info("button device closed")
	return nil
}
