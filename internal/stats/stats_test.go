package stats

import (
	"sync"
	"testing"
	"time"
)

func TestCountersSnapshot(t *testing.T) {
	var c Counters
	c.RawTransitions.Inc()
	c.RawTransitions.Inc()
	c.SettlePasses.Inc()
	c.Presses.Inc()
	c.LastEventNanos.Store(42)

	snap := c.Snapshot()
	if snap.RawTransitions != 2 {
		t.Errorf("RawTransitions: got %d, want 2", snap.RawTransitions)
	}
	if snap.SettlePasses != 1 {
		t.Errorf("SettlePasses: got %d, want 1", snap.SettlePasses)
	}
	if snap.Presses != 1 {
		t.Errorf("Presses: got %d, want 1", snap.Presses)
	}
	if snap.LastEventNanos != 42 {
		t.Errorf("LastEventNanos: got %d, want 42", snap.LastEventNanos)
	}
}

func TestCountersConcurrentIncrements(t *testing.T) {
	var c Counters
	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				c.RawTransitions.Inc()
			}
		}()
	}
	wg.Wait()

	if got := c.RawTransitions.Load(); got != workers*perWorker {
		t.Errorf("RawTransitions: got %d, want %d (lost updates)", got, workers*perWorker)
	}
}

func TestTrackerSnapshot(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cfg := Config{
		Chip:        "gpiochip0",
		Line:        27,
		QuietMs:     20,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
	}

	var c Counters
	c.Presses.Store(3)

	pressed := true
	drops := int64(2)
	tr := NewTracker(start, cfg, &c,
		func() bool { return pressed },
		func() int64 { return drops },
	)

	snap := tr.Snapshot()
	if !snap.Pressed {
		t.Error("expected Pressed=true")
	}
	if snap.Counters.Presses != 3 {
		t.Errorf("Counters.Presses: got %d, want 3", snap.Counters.Presses)
	}
	if snap.MailboxDrops != 2 {
		t.Errorf("MailboxDrops: got %d, want 2", snap.MailboxDrops)
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false before SetMQTTConnected")
	}
	if snap.Config.Broker != cfg.Broker {
		t.Errorf("Config.Broker: got %q, want %q", snap.Config.Broker, cfg.Broker)
	}

	tr.SetMQTTConnected(true)
	pressed = false
	snap = tr.Snapshot()
	if !snap.MQTTConnected {
		t.Error("expected MQTTConnected=true after SetMQTTConnected")
	}
	if snap.Pressed {
		t.Error("expected Pressed=false after state change")
	}
	if snap.Uptime() < 0 {
		t.Errorf("Uptime: got negative %v", snap.Uptime())
	}
}
