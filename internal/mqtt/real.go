package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/ap-led/internal/logic"
)

// offlineBufferSize is how many messages are held while the broker is
// unreachable.
const offlineBufferSize = 64

// RealPublisher publishes to an actual MQTT broker. Messages produced
// while the connection is down are held in a ring buffer and replayed in
// order when the broker comes back.
type RealPublisher struct {
	client paho.Client

	mu  sync.Mutex
	buf *ring
}

// NewRealPublisher creates a publisher that connects to the given broker
// in the background and keeps retrying. It never blocks startup on the
// broker being reachable.
func NewRealPublisher(broker, clientID string) *RealPublisher {
	p := &RealPublisher{buf: newRing(offlineBufferSize)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			p.replay()
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

// replay drains the offline buffer onto the live connection.
func (p *RealPublisher) replay() {
	p.mu.Lock()
	msgs := p.buf.drain()
	p.mu.Unlock()
	if len(msgs) == 0 {
		return
	}
	log.Printf("mqtt: connected, replaying %d buffered messages", len(msgs))
	for _, m := range msgs {
		p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	}
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.buf.push(queued{topic: topic, payload: payload, qos: qos, retained: retained})
		n := p.buf.len()
		p.mu.Unlock()
		log.Printf("mqtt: broker unreachable, buffered message (%d pending)", n)
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Publish sends a connectivity or command event. QoS 0, not retained.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.publish(Topic, 0, false, payload)
}

// PublishSystem sends a system lifecycle event. QoS 1 (at-least-once):
// startup and shutdown should survive a flaky link.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

// IsConnected reports whether the broker connection is currently up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
