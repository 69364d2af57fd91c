package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// bufferCapacity bounds how many messages are held while disconnected.
const bufferCapacity = 64

// RealPublisher publishes to an actual MQTT broker. While the broker is
// unreachable, messages are held in a fixed-capacity ring buffer (oldest
// dropped) and replayed in order once the connection comes back.
type RealPublisher struct {
	client paho.Client
	log    *zap.Logger

	mu     sync.Mutex
	buffer *ringBuffer
}

// NewRealPublisher creates a publisher for the given broker. The connection
// is established in the background with retry, so construction never fails;
// events published before the broker is reachable are buffered.
func NewRealPublisher(broker string, log *zap.Logger) *RealPublisher {
	p := &RealPublisher{
		log:    log,
		buffer: newRingBuffer(bufferCapacity),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("bbb-buttond").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) { p.replay() })

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

// Publish sends a button event to the MQTT broker.
func (p *RealPublisher) Publish(event ButtonEvent) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.send(Topic, 0, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for system events - we want to ensure delivery
	return p.send(TopicSystem, 1, event.Retained, payload)
}

// send delivers one message, buffering it instead when the connection is
// down or the publish fails.
func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		p.bufferMsg(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		p.bufferMsg(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		p.bufferMsg(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (p *RealPublisher) bufferMsg(msg bufferedMsg) {
	p.mu.Lock()
	dropped := p.buffer.push(msg)
	n := p.buffer.len()
	p.mu.Unlock()
	if dropped {
		p.log.Warn("offline buffer full, dropped oldest message", zap.Int("buffered", n))
	}
}

// replay publishes buffered messages in arrival order. Called from the paho
// OnConnect handler after every (re)connection.
func (p *RealPublisher) replay() {
	p.mu.Lock()
	msgs := p.buffer.drainAll()
	p.mu.Unlock()
	if len(msgs) == 0 {
		return
	}

	p.log.Info("replaying buffered messages", zap.Int("count", len(msgs)))
	for _, msg := range msgs {
		token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
		if !token.WaitTimeout(5 * time.Second) {
			p.log.Warn("replay timeout", zap.String("topic", msg.topic))
			continue
		}
		if err := token.Error(); err != nil {
			p.log.Warn("replay failed", zap.String("topic", msg.topic), zap.Error(err))
		}
	}
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
