package main

import (
	"sync"
	"time"

	"github.com/chun/bbb-button/internal/inputbus"
	"github.com/chun/bbb-button/internal/mqtt"
	"github.com/chun/bbb-button/internal/stats"
)

// mqttBus carries confirmed key events to the MQTT broker. ReportKey records
// the pending state change and Sync flushes it as one button event, so a
// report without a following sync never reaches the broker.
type mqttBus struct {
	pub      mqtt.Publisher
	counters *stats.Counters
	now      func() time.Time

	mu      sync.Mutex
	pending bool
	pressed bool
}

func newMQTTBus(pub mqtt.Publisher, counters *stats.Counters, now func() time.Time) *mqttBus {
	return &mqttBus{pub: pub, counters: counters, now: now}
}

func (b *mqttBus) ReportKey(code inputbus.Key, pressed bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = true
	b.pressed = pressed
	return nil
}

func (b *mqttBus) Sync() error {
	b.mu.Lock()
	if !b.pending {
		b.mu.Unlock()
		return nil
	}
	pressed := b.pressed
	b.pending = false
	b.mu.Unlock()

	return b.pub.Publish(mqtt.ButtonEvent{
		Timestamp: b.now(),
		Pressed:   pressed,
		Count:     b.counters.Presses.Load(),
	})
}
