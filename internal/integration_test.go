package internal

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chun/bbb-button/internal/button"
	"github.com/chun/bbb-button/internal/device"
	"github.com/chun/bbb-button/internal/gpio"
	"github.com/chun/bbb-button/internal/inputbus"
	"github.com/chun/bbb-button/internal/mailbox"
	"github.com/chun/bbb-button/internal/stats"
)

const integrationQuiet = 15 * time.Millisecond

type pipeline struct {
	line     *gpio.FakeLine
	box      *mailbox.Mailbox
	bus      *inputbus.Fake
	counters *stats.Counters
	deb      *button.Debouncer
	dev      *device.Device
}

// newPipeline wires the full chain the daemon assembles: fake hardware line,
// debouncer, event mailbox and consumer device, with a fake input bus
// standing in for the MQTT forwarder.
func newPipeline(t *testing.T, level bool) *pipeline {
	t.Helper()

	p := &pipeline{
		line:     gpio.NewFakeLine(level),
		box:      mailbox.New(),
		bus:      inputbus.NewFake(),
		counters: &stats.Counters{},
	}

	deb, err := button.New(p.line, p.box, p.bus, p.counters, integrationQuiet, zap.NewNop())
	if err != nil {
		t.Fatalf("init debouncer: %v", err)
	}
	p.deb = deb
	p.line.SetHandler(deb.OnRawTransition)
	p.dev = device.New(p.box, zap.NewNop())

	t.Cleanup(func() {
		p.deb.Close()
		p.box.Close()
	})
	return p
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// TestIntegrationPressReleaseCycle drives a noisy press and release through
// the whole pipeline and checks the mailbox, input bus and counters agree.
func TestIntegrationPressReleaseCycle(t *testing.T) {
	p := newPipeline(t, true) // high level, active-low: starts released

	// Press with contact bounce: level drops, several spurious edges follow.
	p.line.SetLevel(false)
	p.line.Bounce(5)
	waitFor(t, "press confirmation", func() bool {
		return p.counters.Presses.Load() == 1
	})

	consumer := p.dev.Open()
	defer consumer.Close()

	buf := make([]byte, mailbox.MaxMessage)
	n, err := consumer.Read(context.Background(), buf)
	if err != nil {
		t.Fatalf("read press event: %v", err)
	}
	msg := string(buf[:n])
	if !strings.HasPrefix(msg, "button pressed: count=1 time=") {
		t.Errorf("press message: got %q", msg)
	}
	if !strings.HasSuffix(msg, "\n") {
		t.Errorf("press message missing trailing newline: %q", msg)
	}

	// Release with a shorter bounce burst.
	p.line.SetLevel(true)
	p.line.Bounce(3)
	waitFor(t, "release confirmation", func() bool {
		return p.counters.Presses.Load() == 2
	})

	n, err = consumer.Read(context.Background(), buf)
	if err != nil {
		t.Fatalf("read release event: %v", err)
	}
	if !strings.HasPrefix(string(buf[:n]), "button released: count=2 time=") {
		t.Errorf("release message: got %q", buf[:n])
	}

	reports := p.bus.Reports()
	if len(reports) != 2 {
		t.Fatalf("bus reports: got %d, want 2", len(reports))
	}
	if reports[0].Code != inputbus.KeyEnter || !reports[0].Pressed {
		t.Errorf("report 0: got %+v, want KeyEnter pressed", reports[0])
	}
	if reports[1].Code != inputbus.KeyEnter || reports[1].Pressed {
		t.Errorf("report 1: got %+v, want KeyEnter released", reports[1])
	}
	if got := p.bus.Syncs(); got != 2 {
		t.Errorf("bus syncs: got %d, want 2", got)
	}

	if raw := p.counters.RawTransitions.Load(); raw < 8 {
		t.Errorf("raw transitions: got %d, want >= 8", raw)
	}
	if passes := p.counters.SettlePasses.Load(); passes < 2 {
		t.Errorf("settle passes: got %d, want >= 2", passes)
	}
	if p.counters.LastEventNanos.Load() == 0 {
		t.Error("last event timestamp not recorded")
	}
}

// TestIntegrationBounceWithoutChangeCommitsNothing verifies that noise which
// settles back to the original level produces no event anywhere downstream.
func TestIntegrationBounceWithoutChangeCommitsNothing(t *testing.T) {
	p := newPipeline(t, true)

	p.line.Bounce(6)
	waitFor(t, "settle pass", func() bool {
		return p.counters.SettlePasses.Load() >= 1
	})

	if got := p.counters.Presses.Load(); got != 0 {
		t.Errorf("presses: got %d, want 0", got)
	}
	if p.box.HasUnread() {
		t.Error("mailbox has an event after pure noise")
	}
	if got := len(p.bus.Reports()); got != 0 {
		t.Errorf("bus reports: got %d, want 0", got)
	}
}

// TestIntegrationConsumerBlocksUntilEvent starts a reader before any event
// exists and confirms it wakes on the first confirmed transition.
func TestIntegrationConsumerBlocksUntilEvent(t *testing.T) {
	p := newPipeline(t, true)

	consumer := p.dev.Open()
	defer consumer.Close()

	type result struct {
		msg string
		err error
	}
	done := make(chan result, 1)
	go func() {
		buf := make([]byte, mailbox.MaxMessage)
		n, err := consumer.Read(context.Background(), buf)
		done <- result{msg: string(buf[:n]), err: err}
	}()

	select {
	case r := <-done:
		t.Fatalf("read returned before any event: %+v", r)
	case <-time.After(3 * integrationQuiet):
	}

	p.line.SetLevel(false)
	p.line.Edge()

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("read: %v", r.err)
		}
		if !strings.HasPrefix(r.msg, "button pressed: count=1") {
			t.Errorf("message: got %q", r.msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reader never woke after confirmed press")
	}
}

// TestIntegrationOverwriteKeepsLatest confirms that a slow consumer sees only
// the newest event when several confirmations pass between reads.
func TestIntegrationOverwriteKeepsLatest(t *testing.T) {
	p := newPipeline(t, true)

	p.line.SetLevel(false)
	p.line.Edge()
	waitFor(t, "first confirmation", func() bool {
		return p.counters.Presses.Load() == 1
	})

	p.line.SetLevel(true)
	p.line.Edge()
	waitFor(t, "second confirmation", func() bool {
		return p.counters.Presses.Load() == 2
	})

	consumer := p.dev.Open()
	defer consumer.Close()

	buf := make([]byte, mailbox.MaxMessage)
	n, err := consumer.Read(context.Background(), buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(buf[:n]), "button released: count=2") {
		t.Errorf("expected only the latest event, got %q", buf[:n])
	}
	if got := p.box.Drops(); got != 1 {
		t.Errorf("mailbox drops: got %d, want 1", got)
	}
}

// TestIntegrationTeardown closes the pipeline under a blocked reader and
// checks the reader is released and late edges change nothing.
func TestIntegrationTeardown(t *testing.T) {
	p := newPipeline(t, true)

	consumer := p.dev.Open()
	errCh := make(chan error, 1)
	go func() {
		buf := make([]byte, mailbox.MaxMessage)
		_, err := consumer.Read(context.Background(), buf)
		errCh <- err
	}()
	time.Sleep(5 * time.Millisecond)

	p.deb.Close()
	p.box.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, mailbox.ErrClosed) {
			t.Errorf("read after close: got %v, want ErrClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("blocked reader not released by close")
	}

	raw := p.counters.RawTransitions.Load()
	p.line.Edge()
	time.Sleep(3 * integrationQuiet)
	if got := p.counters.RawTransitions.Load(); got != raw {
		t.Errorf("raw transitions moved after close: got %d, want %d", got, raw)
	}
}
