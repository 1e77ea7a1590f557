package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSBus publishes and consumes events through NATS JetStream. JetStream
// gives the channel its at-least-once guarantee: unacknowledged messages are
// redelivered, and consumers ack only after applying (or terminally
// rejecting) an event.
type NATSBus struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// Compile-time check that NATSBus implements Publisher.
var _ Publisher = (*NATSBus)(nil)

// Connect connects to NATS with automatic reconnection, binds a JetStream
// context, and makes sure the voting stream exists. Extra nats.Option values
// (e.g. disconnect/reconnect handlers) can be appended.
func Connect(url string, opts ...nats.Option) (*NATSBus, error) {
	defaults := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("binding JetStream context: %w", err)
	}

	if err := ensureStream(js); err != nil {
		nc.Close()
		return nil, err
	}

	return &NATSBus{conn: nc, js: js}, nil
}

// ensureStream creates the voting stream if it does not exist yet. Creation
// races between multiple processes are harmless: the loser sees the stream
// already there.
func ensureStream(js nats.JetStreamContext) error {
	_, err := js.StreamInfo(StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("looking up stream %s: %w", StreamName, err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{StreamSubjects},
	})
	if err != nil {
		return fmt.Errorf("creating stream %s: %w", StreamName, err)
	}
	return nil
}

// Publish JSON-encodes the event and publishes it to the given subject,
// waiting for the stream's acknowledgment.
func (b *NATSBus) Publish(ctx context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if _, err := b.js.Publish(topic, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// QueueSubscribe registers a durable queue consumer on the given subject.
// Messages must be acknowledged explicitly by the handler: Ack for applied
// or terminally rejected events, Nak to request redelivery after a transient
// failure. The durable name doubles as the queue group, so each lane has one
// serial processor per group regardless of process count.
func (b *NATSBus) QueueSubscribe(topic, durable string, handler nats.MsgHandler) (*nats.Subscription, error) {
	sub, err := b.js.QueueSubscribe(topic, durable, handler,
		nats.Durable(durable),
		nats.ManualAck(),
		nats.AckExplicit(),
		nats.MaxAckPending(1),
		nats.DeliverAll(),
	)
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	return sub, nil
}

// Close drains the connection, letting in-flight handlers finish.
func (b *NATSBus) Close() error {
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
		return err
	}
	return nil
}
